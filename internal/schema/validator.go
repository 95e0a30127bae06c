// Package schema validates event payloads before publishing.
package schema

import (
	"errors"

	"live-dictation-service/internal/models"
)

var errMissingSession = errors.New("event is missing sessionId")

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks the required identity fields of known event shapes.
// Unknown shapes pass; the publisher logs every payload anyway.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case models.TranscriptSegment:
		if e.SessionID == "" {
			return errMissingSession
		}
	case models.TranscriptCorrected:
		if e.SessionID == "" {
			return errMissingSession
		}
	}
	return nil
}
