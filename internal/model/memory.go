// Package model defines the core memory data types.
package model

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Common errors for store and engine operations.
var (
	ErrNotFound        = errors.New("memory not found")
	ErrMalformedRecord = errors.New("malformed memory record")
	ErrMalformedInput  = errors.New("malformed input")
)

// MemoryType classifies what a memory encodes.
type MemoryType string

const (
	TypePreference MemoryType = "preference"
	TypePattern    MemoryType = "pattern"
	TypeWorkflow   MemoryType = "workflow"
	TypeProject    MemoryType = "project"
	TypeCorrection MemoryType = "correction"
	TypeNegative   MemoryType = "negative"
)

// ValidTypes are the allowed memory types.
var ValidTypes = map[MemoryType]bool{
	TypePreference: true,
	TypePattern:    true,
	TypeWorkflow:   true,
	TypeProject:    true,
	TypeCorrection: true,
	TypeNegative:   true,
}

// Status is the lifecycle state of a memory. Transitions are one-directional:
// there is no path back from archived or superseded.
type Status string

const (
	StatusActive      Status = "active"
	StatusUnderReview Status = "under_review"
	StatusArchived    Status = "archived"
	StatusSuperseded  Status = "superseded"
)

// ValidStatuses are the allowed lifecycle states.
var ValidStatuses = map[Status]bool{
	StatusActive:      true,
	StatusUnderReview: true,
	StatusArchived:    true,
	StatusSuperseded:  true,
}

// Retired reports whether a status excludes the memory from all future
// selection and decay.
func (s Status) Retired() bool {
	return s == StatusArchived || s == StatusSuperseded
}

// ScopeType partitions memories into global vs. per-project.
type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

// Content is the human-readable body of a memory.
type Content struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Triggers are informational matching hints attached to a memory. They are
// recorded and round-tripped but never evaluated by the engines.
type Triggers struct {
	Keywords []string `json:"keywords,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
	Files    []string `json:"files,omitempty"`
}

// Metadata carries the confidence state of a memory.
type Metadata struct {
	Confidence            float64    `json:"confidence"`
	Status                Status     `json:"status"`
	PositiveReinforcement int        `json:"positive_reinforcement"`
	NegativeReinforcement int        `json:"negative_reinforcement"`
	AccessCount           int        `json:"access_count"`
	CreatedAt             time.Time  `json:"created_at"`
	LastAccessed          *time.Time `json:"last_accessed,omitempty"`
}

// Scope binds a memory to a global or project partition for its lifetime.
type Scope struct {
	Type ScopeType `json:"type"`
	Path string    `json:"path,omitempty"`
}

// Evidence is one append-only provenance entry.
type Evidence struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
}

// Memory represents a stored memory record.
type Memory struct {
	ID       string     `json:"id"`
	Type     MemoryType `json:"type"`
	Content  Content    `json:"content"`
	Triggers Triggers   `json:"triggers"`
	Metadata Metadata   `json:"metadata"`
	Scope    Scope      `json:"scope"`
	Evidence []Evidence `json:"evidence,omitempty"`
}

var entropy = rand.New(rand.NewSource(time.Now().UnixNano()))

// NewID returns a fresh ULID string.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewMemory creates an active memory with the given type, content and scope.
func NewMemory(t MemoryType, content Content, scope Scope, confidence float64) *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:      NewID(),
		Type:    t,
		Content: content,
		Scope:   scope,
		Metadata: Metadata{
			Confidence: confidence,
			Status:     StatusActive,
			CreatedAt:  now,
		},
	}
}

// NewCorrection synthesizes a correction memory linked to the memory it
// corrects. The correction text becomes the description; the caller supplies
// the corrective action.
func NewCorrection(orig *Memory, correction, action, sessionID string, confidence float64) *Memory {
	m := NewMemory(TypeCorrection, Content{
		Title:       Truncate("Correction: "+orig.Content.Title, 60),
		Description: correction,
		Action:      action,
	}, orig.Scope, confidence)
	m.Triggers = orig.Triggers
	m.Evidence = append(m.Evidence, Evidence{
		Timestamp:   m.Metadata.CreatedAt,
		Description: fmt.Sprintf("Correction of memory %s (session %s)", orig.ID, sessionID),
		Source:      "feedback",
	})
	return m
}

// Validate checks a record at the load boundary. Records that fail are
// quarantined by callers rather than propagated into the engines.
func (m *Memory) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if !ValidTypes[m.Type] {
		return fmt.Errorf("%w: unknown type %q", ErrMalformedRecord, m.Type)
	}
	if !ValidStatuses[m.Metadata.Status] {
		return fmt.Errorf("%w: unknown status %q", ErrMalformedRecord, m.Metadata.Status)
	}
	if strings.TrimSpace(m.Content.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrMalformedRecord)
	}
	if m.Metadata.Confidence < 0 || m.Metadata.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.3f out of range", ErrMalformedRecord, m.Metadata.Confidence)
	}
	if m.Scope.Type != ScopeGlobal && m.Scope.Type != ScopeProject {
		return fmt.Errorf("%w: unknown scope %q", ErrMalformedRecord, m.Scope.Type)
	}
	if m.Metadata.PositiveReinforcement < 0 || m.Metadata.NegativeReinforcement < 0 || m.Metadata.AccessCount < 0 {
		return fmt.Errorf("%w: negative reinforcement counters", ErrMalformedRecord)
	}
	return nil
}

// LastTouched returns last_accessed, falling back to created_at.
func (m *Memory) LastTouched() time.Time {
	if m.Metadata.LastAccessed != nil {
		return *m.Metadata.LastAccessed
	}
	return m.Metadata.CreatedAt
}

// PositiveRatio is positive/(positive+negative), 0.5 (neutral) when the
// memory has never been reinforced either way.
func (m *Memory) PositiveRatio() float64 {
	pos := m.Metadata.PositiveReinforcement
	neg := m.Metadata.NegativeReinforcement
	if pos+neg == 0 {
		return 0.5
	}
	return float64(pos) / float64(pos+neg)
}

// Truncate shortens s to max runes, appending an ellipsis when it cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
