// Package models defines the data structures for transcript events.
package models

// TranscriptSegment represents one chunk's transcription appended to
// the running transcript.
type TranscriptSegment struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Sequence  uint64 `json:"sequence"`
	Text      string `json:"text"`
}

// TranscriptCorrected represents the corrected transcript produced at
// session end, with change provenance counts by category.
type TranscriptCorrected struct {
	EventType   string         `json:"eventType"`
	SessionID   string         `json:"sessionId"`
	Timestamp   int64          `json:"timestamp"`
	Original    string         `json:"original"`
	Corrected   string         `json:"corrected"`
	ChangeCount int            `json:"changeCount"`
	Changes     map[string]int `json:"changesByCategory,omitempty"`
}
