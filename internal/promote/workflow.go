package promote

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/document"
	"github.com/memoir-dev/memoir/internal/merge"
	"github.com/memoir-dev/memoir/internal/model"
	"github.com/memoir-dev/memoir/internal/store"
)

// Action is a reviewer's verdict on a single candidate.
type Action string

const (
	ActionAdd     Action = "add"     // insert as-is, archive the record
	ActionDevelop Action = "develop" // insert an edited copy, archive the record
	ActionSkip    Action = "skip"    // deny permanently
	ActionKeep    Action = "keep"    // keep observing, re-surface after the cooldown
	ActionQuit    Action = "quit"    // stop the session, remaining candidates untouched
)

// Candidate is what the Decider sees for one record under review.
type Candidate struct {
	Memory     *model.Memory
	Index      int // 1-based position in this session
	Total      int
	TargetPath string
	Duplicate  merge.Duplicate
	Overlaps   []merge.Overlap
}

// Verdict carries the decision back from the Decider. Edited is consulted
// only for ActionDevelop; a nil Edited means the reviewer abandoned the edit
// and the record stays a candidate. Reason is attached to skip decisions.
type Verdict struct {
	Action Action
	Edited *model.Memory
	Reason string
}

// Decider reviews candidates one at a time. Implementations range from an
// interactive terminal prompt to a fixed script in tests.
type Decider interface {
	Decide(c *Candidate) (Verdict, error)
}

// Outcome distinguishes how a review session ended.
type Outcome string

const (
	OutcomeNoCandidates Outcome = "no_candidates"
	OutcomeCompleted    Outcome = "completed"
	OutcomeQuit         Outcome = "quit"
)

// Result summarizes a review session.
type Result struct {
	Outcome   Outcome
	Added     int
	Developed int
	Denied    int
	Kept      int
	Errors    int
	Remaining int // candidates not reviewed because the session quit
}

// Config holds the workflow's fixed settings.
type Config struct {
	GlobalDoc        string        // target document for global-scope records
	ProjectDocName   string        // document filename inside project roots
	KeepCooldown     time.Duration // how long a kept_observing decision suppresses a record
	MinConfidence    float64
	MinPositiveRatio float64
}

// Options selects and shapes one review session.
type Options struct {
	Scope       model.ScopeType // empty means all scopes
	ProjectPath string
	DryRun      bool
	Auto        bool // add clean candidates without asking, skip the rest
	SessionID   string
}

// Workflow drives candidate review against the store and target documents.
type Workflow struct {
	store   *store.Store
	cfg     Config
	decider Decider
	logger  *zap.Logger
	now     func() time.Time
}

func NewWorkflow(s *store.Store, cfg Config, decider Decider, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProjectDocName == "" {
		cfg.ProjectDocName = "CLAUDE.md"
	}
	if cfg.KeepCooldown == 0 {
		cfg.KeepCooldown = 7 * 24 * time.Hour
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.MinPositiveRatio == 0 {
		cfg.MinPositiveRatio = DefaultMinPositiveRatio
	}
	return &Workflow{store: s, cfg: cfg, decider: decider, logger: logger, now: time.Now}
}

// Candidates returns the records that would be offered for review right now:
// gate-passing records minus those blocked by a prior decision.
func (w *Workflow) Candidates(scope model.ScopeType, projectPath string) ([]*model.Memory, error) {
	records, err := w.store.List(store.ListParams{Scope: scope, ProjectPath: projectPath})
	if err != nil {
		return nil, err
	}
	cands := Select(records, w.cfg.MinConfidence, w.cfg.MinPositiveRatio)
	blocked, err := w.store.Blocked(w.now(), w.cfg.KeepCooldown)
	if err != nil {
		return nil, err
	}
	out := cands[:0]
	for _, m := range cands {
		if !blocked[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

// Run reviews every current candidate through the Decider, applying verdicts
// as it goes. A quit verdict ends the session immediately; already-applied
// verdicts stay applied and the rest remain candidates for the next session.
func (w *Workflow) Run(opts Options) (Result, error) {
	var res Result
	cands, err := w.Candidates(opts.Scope, opts.ProjectPath)
	if err != nil {
		return res, err
	}
	if len(cands) == 0 {
		res.Outcome = OutcomeNoCandidates
		return res, nil
	}

	session := opts.SessionID
	if session == "" {
		session = uuid.NewString()
	}

	for i, m := range cands {
		cand := w.Preview(m)
		cand.Index = i + 1
		cand.Total = len(cands)
		target := cand.TargetPath

		verdict, err := w.verdictFor(cand, opts.Auto)
		if err != nil {
			res.Remaining = len(cands) - i
			return res, err
		}

		switch verdict.Action {
		case ActionQuit:
			res.Outcome = OutcomeQuit
			res.Remaining = len(cands) - i
			return res, nil

		case ActionAdd:
			if err := w.insert(m, target, "User approved", false, session, opts.DryRun); err != nil {
				w.logger.Error("promotion failed", zap.String("id", m.ID), zap.Error(err))
				res.Errors++
				continue
			}
			res.Added++

		case ActionDevelop:
			if verdict.Edited == nil {
				continue // edit abandoned, record stays a candidate
			}
			if err := w.insertDeveloped(m, verdict.Edited, target, session, opts.DryRun); err != nil {
				w.logger.Error("promotion failed", zap.String("id", m.ID), zap.Error(err))
				res.Errors++
				continue
			}
			res.Added++
			res.Developed++

		case ActionSkip:
			reason := verdict.Reason
			if reason == "" {
				reason = "User chose to skip"
			}
			if err := w.deny(m, target, reason, session, opts.DryRun); err != nil {
				w.logger.Error("deny failed", zap.String("id", m.ID), zap.Error(err))
				res.Errors++
				continue
			}
			res.Denied++

		case ActionKeep:
			if err := w.keep(m, target, session, opts.DryRun); err != nil {
				w.logger.Error("keep failed", zap.String("id", m.ID), zap.Error(err))
				res.Errors++
				continue
			}
			res.Kept++
		}
	}
	res.Outcome = OutcomeCompleted
	return res, nil
}

// verdictFor asks the Decider, or in auto mode decides without one: clean
// candidates (no duplicate, no overlaps) are added, anything needing human
// judgment is left untouched for a later interactive session.
func (w *Workflow) verdictFor(c *Candidate, auto bool) (Verdict, error) {
	if !auto {
		return w.decider.Decide(c)
	}
	if c.Duplicate.Kind != merge.MatchNew || len(c.Overlaps) > 0 {
		w.logger.Info("auto mode leaving candidate for review",
			zap.String("id", c.Memory.ID),
			zap.String("duplicate", string(c.Duplicate.Kind)),
			zap.Int("overlaps", len(c.Overlaps)))
		return Verdict{Action: ActionDevelop}, nil // nil Edited: no-op, stays a candidate
	}
	return Verdict{Action: ActionAdd}, nil
}

// Preview computes a record's review context without touching anything:
// where it would land and how it relates to the document already there. A
// missing document reads as no duplicate and no overlaps.
func (w *Workflow) Preview(m *model.Memory) *Candidate {
	target := w.targetFor(m)
	cand := &Candidate{
		Memory:     m,
		TargetPath: target,
		Duplicate:  merge.Duplicate{Kind: merge.MatchNew},
	}
	if raw, err := os.ReadFile(target); err == nil {
		doc := document.New(string(raw))
		cand.Duplicate = merge.DuplicateStatus(m, doc)
		cand.Overlaps = merge.Overlaps(m, doc)
	}
	return cand
}

func (w *Workflow) targetFor(m *model.Memory) string {
	if m.Scope.Type == model.ScopeProject && m.Scope.Path != "" {
		return filepath.Join(m.Scope.Path, w.cfg.ProjectDocName)
	}
	return w.cfg.GlobalDoc
}

// insert writes the record into the target document, archives it, and logs
// the added decision. The document write happens first so a failure leaves
// the record active and eligible for a retry.
func (w *Workflow) insert(m *model.Memory, target, reason string, developed bool, session string, dryRun bool) error {
	if dryRun {
		w.logger.Info("dry run: would promote",
			zap.String("id", m.ID), zap.String("target", target))
		return nil
	}
	if err := w.writeEntry(m, target); err != nil {
		return err
	}
	if err := w.store.Archive(m, fmt.Sprintf("Promoted to %s", target), "promotion", w.now().UTC()); err != nil {
		return err
	}
	return w.store.AppendDecision(model.DecisionRecord{
		Timestamp:  w.now().UTC(),
		MemoryID:   m.ID,
		Decision:   model.DecisionAdded,
		TargetPath: target,
		ScopeType:  m.Scope.Type,
		Reason:     reason,
		SessionID:  session,
		Developed:  developed,
	})
}

// insertDeveloped promotes the edited copy while archiving the original
// record. The edited content is what lands in the document; the store keeps
// the original so its history stays intact.
func (w *Workflow) insertDeveloped(orig, edited *model.Memory, target, session string, dryRun bool) error {
	if dryRun {
		w.logger.Info("dry run: would promote (developed)",
			zap.String("id", orig.ID), zap.String("target", target))
		return nil
	}
	if err := w.writeEntry(edited, target); err != nil {
		return err
	}
	if err := w.store.Archive(orig, fmt.Sprintf("Promoted to %s (developed)", target), "promotion", w.now().UTC()); err != nil {
		return err
	}
	return w.store.AppendDecision(model.DecisionRecord{
		Timestamp:  w.now().UTC(),
		MemoryID:   orig.ID,
		Decision:   model.DecisionAdded,
		TargetPath: target,
		ScopeType:  orig.Scope.Type,
		Reason:     "User developed and approved",
		SessionID:  session,
		Developed:  true,
	})
}

func (w *Workflow) deny(m *model.Memory, target, reason, session string, dryRun bool) error {
	if dryRun {
		w.logger.Info("dry run: would deny", zap.String("id", m.ID))
		return nil
	}
	if err := w.store.Archive(m, fmt.Sprintf("Promotion denied: %s", reason), "promotion", w.now().UTC()); err != nil {
		return err
	}
	return w.store.AppendDecision(model.DecisionRecord{
		Timestamp:  w.now().UTC(),
		MemoryID:   m.ID,
		Decision:   model.DecisionDenied,
		TargetPath: target,
		ScopeType:  m.Scope.Type,
		Reason:     reason,
		SessionID:  session,
	})
}

// keep records a kept_observing decision. The record stays active and keeps
// accumulating feedback; the decision log suppresses it until the cooldown
// lapses.
func (w *Workflow) keep(m *model.Memory, target, session string, dryRun bool) error {
	if dryRun {
		w.logger.Info("dry run: would keep observing", zap.String("id", m.ID))
		return nil
	}
	return w.store.AppendDecision(model.DecisionRecord{
		Timestamp:  w.now().UTC(),
		MemoryID:   m.ID,
		Decision:   model.DecisionKept,
		TargetPath: target,
		ScopeType:  m.Scope.Type,
		Reason:     "Keep observing",
		SessionID:  session,
	})
}

// writeEntry merges the record into the document at target, bootstrapping
// the file when it does not exist yet. The write is atomic so a crash never
// leaves a half-written document.
func (w *Workflow) writeEntry(m *model.Memory, target string) error {
	raw, err := os.ReadFile(target)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", target, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		raw = []byte("# " + filepath.Base(target) + "\n\n")
	}
	doc := document.New(string(raw))
	merge.Insert(m, doc)
	return writeFileAtomic(target, []byte(doc.String()))
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".memoir-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
