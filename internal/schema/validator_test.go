package schema

import (
	"testing"

	"live-dictation-service/internal/models"
)

func TestValidate_SegmentEvent(t *testing.T) {
	v := New()

	ok := models.TranscriptSegment{EventType: "transcript.segment", SessionID: "s-1", Text: "hello"}
	if err := v.Validate(ok); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}

	missing := models.TranscriptSegment{EventType: "transcript.segment", Text: "hello"}
	if err := v.Validate(missing); err == nil {
		t.Error("expected error for missing sessionId")
	}
}

func TestValidate_CorrectedEvent(t *testing.T) {
	v := New()

	ok := models.TranscriptCorrected{EventType: "transcript.corrected", SessionID: "s-1"}
	if err := v.Validate(ok); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}

	missing := models.TranscriptCorrected{EventType: "transcript.corrected"}
	if err := v.Validate(missing); err == nil {
		t.Error("expected error for missing sessionId")
	}
}

func TestValidate_UnknownShapePasses(t *testing.T) {
	v := New()

	if err := v.Validate(map[string]string{"anything": "goes"}); err != nil {
		t.Errorf("expected unknown shapes to pass, got %v", err)
	}
}
