package model

import (
	"fmt"
	"time"
)

// Outcome is the result reported for a memory in a feedback event.
type Outcome string

const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeRejected   Outcome = "rejected"
	OutcomeSuperseded Outcome = "superseded"
)

// ValidOutcomes are the allowed feedback outcomes.
var ValidOutcomes = map[Outcome]bool{
	OutcomeAccepted:   true,
	OutcomeRejected:   true,
	OutcomeSuperseded: true,
}

// FeedbackEntry is one event from the append-only feedback log.
type FeedbackEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	MemoryID      string    `json:"memory_id"`
	Outcome       Outcome   `json:"outcome"`
	Type          string    `json:"type,omitempty"`
	Feedback      string    `json:"feedback,omitempty"`
	CorrectAction string    `json:"correct_action,omitempty"`
	CreatesMemory bool      `json:"auto_creates_memory,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
}

// Validate rejects entries the confidence engine cannot apply.
func (e *FeedbackEntry) Validate() error {
	if e.MemoryID == "" {
		return fmt.Errorf("%w: feedback entry missing memory_id", ErrMalformedInput)
	}
	if !ValidOutcomes[e.Outcome] {
		return fmt.Errorf("%w: unknown outcome %q", ErrMalformedInput, e.Outcome)
	}
	return nil
}

// IsCorrection reports whether the entry should synthesize a correction memory.
func (e *FeedbackEntry) IsCorrection() bool {
	return e.Type == "correction" && e.CreatesMemory
}
