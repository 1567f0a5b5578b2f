package model

import "time"

// Decision is the reviewer's disposition for a promotion candidate.
type Decision string

const (
	DecisionAdded  Decision = "added"
	DecisionDenied Decision = "denied"
	DecisionKept   Decision = "kept_observing"
)

// DecisionRecord is one entry of the append-only promotion decision log.
// Decisions are recorded permanently, independent of confidence state, so a
// cancelled review never reprocesses already-decided candidates.
type DecisionRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	MemoryID   string    `json:"memory_id"`
	Decision   Decision  `json:"decision"`
	TargetPath string    `json:"target_path"`
	ScopeType  ScopeType `json:"scope_type"`
	Reason     string    `json:"reason,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Developed  bool      `json:"developed,omitempty"`
}
