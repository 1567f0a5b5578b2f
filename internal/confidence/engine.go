// Package confidence implements the memory confidence lifecycle: feedback
// adjustment, time-based decay, and feedback log consumption.
package confidence

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/model"
	"github.com/memoir-dev/memoir/internal/store"
)

const (
	acceptedBoost   = 0.1
	rejectedPenalty = 0.2
	// Below this confidence a rejected memory is flagged for review.
	reviewThreshold = 0.3
	// Per-day exponential decay base.
	dailyDecay = 0.99
	// Changes smaller than this are treated as unchanged.
	decayEpsilon = 0.001
)

// Config holds the tunable bounds of the engine.
type Config struct {
	// Floor is the minimum confidence; decaying to it archives the record.
	Floor float64
	// CorrectionConfidence seeds records synthesized from correction feedback.
	CorrectionConfidence float64
}

// DecayStats summarizes one decay pass.
type DecayStats struct {
	Processed int
	Decayed   int
	Archived  int
	Unchanged int
	Errors    int
}

// FeedbackStats summarizes one feedback log pass.
type FeedbackStats struct {
	Processed          int
	Errors             int
	CorrectionsCreated int
}

// Engine mutates record confidence through the store.
type Engine struct {
	store  *store.Store
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a confidence engine over the given store.
func NewEngine(s *store.Store, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Floor == 0 {
		cfg.Floor = 0.1
	}
	return &Engine{store: s, cfg: cfg, logger: logger, now: time.Now}
}

// Adjust applies a feedback outcome to one memory and persists it. An
// explicit delta, when non-zero, is applied after the outcome rule. Repeating
// the same outcome compounds; callers track a watermark to avoid
// double-application.
func (e *Engine) Adjust(id string, outcome model.Outcome, delta float64) (*model.Memory, error) {
	m, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	meta := &m.Metadata

	switch outcome {
	case model.OutcomeAccepted:
		meta.Confidence = math.Min(1.0, meta.Confidence+acceptedBoost)
		meta.PositiveReinforcement++
	case model.OutcomeRejected:
		meta.Confidence = math.Max(e.cfg.Floor, meta.Confidence-rejectedPenalty)
		meta.NegativeReinforcement++
		if meta.Confidence < reviewThreshold {
			meta.Status = model.StatusUnderReview
		}
	case model.OutcomeSuperseded:
		meta.Status = model.StatusSuperseded
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", model.ErrMalformedInput, outcome)
	}

	if delta != 0 {
		meta.Confidence = clamp(meta.Confidence+delta, e.cfg.Floor, 1.0)
	}

	now := e.now().UTC()
	meta.LastAccessed = &now
	meta.AccessCount++

	if err := e.store.Update(m); err != nil {
		return nil, err
	}
	e.logger.Debug("adjusted memory",
		zap.String("id", id),
		zap.String("outcome", string(outcome)),
		zap.Float64("confidence", meta.Confidence))
	return m, nil
}

// Decay applies time-based confidence decay to every live record.
// Reinforcement history resists decay: the decay factor is scaled by
// 0.5 + 0.5*(positive/access_count), so a perfect record decays at half
// speed. Decay never raises confidence. A record that reaches the floor is
// archived, which is terminal. With dryRun set the pass computes and reports
// but persists nothing.
func (e *Engine) Decay(dryRun bool) (DecayStats, error) {
	var stats DecayStats
	records, err := e.store.List(store.ListParams{})
	if err != nil {
		return stats, err
	}
	now := e.now().UTC()

	for _, m := range records {
		stats.Processed++
		if m.Metadata.Status.Retired() {
			stats.Unchanged++
			continue
		}

		days := int(now.Sub(m.LastTouched()).Hours() / 24)
		if days < 1 {
			stats.Unchanged++
			continue
		}

		factor := math.Pow(dailyDecay, float64(days))
		ratio := 0.0
		if m.Metadata.AccessCount > 0 {
			ratio = float64(m.Metadata.PositiveReinforcement) / float64(m.Metadata.AccessCount)
		}
		factor *= 0.5 + 0.5*ratio

		old := m.Metadata.Confidence
		updated := math.Max(e.cfg.Floor, old*factor)
		if math.Abs(updated-old) <= decayEpsilon {
			stats.Unchanged++
			continue
		}

		stats.Decayed++
		archive := updated <= e.cfg.Floor
		if archive {
			stats.Archived++
		}

		if dryRun {
			e.logger.Info("decay (dry run)",
				zap.String("id", m.ID),
				zap.Float64("from", old),
				zap.Float64("to", updated),
				zap.Int("days", days),
				zap.Bool("would_archive", archive))
			continue
		}

		m.Metadata.Confidence = round3(updated)
		if archive {
			m.Metadata.Status = model.StatusArchived
		}
		if err := e.store.Update(m); err != nil {
			stats.Errors++
			e.logger.Warn("decay update failed", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		e.logger.Info("decayed memory",
			zap.String("id", m.ID),
			zap.Float64("from", old),
			zap.Float64("to", m.Metadata.Confidence),
			zap.Int("days", days),
			zap.Bool("archived", archive))
	}
	return stats, nil
}

// ProcessFeedback consumes unprocessed feedback log entries in log order and
// applies each through Adjust. Correction entries that request memory
// creation synthesize a linked correction record. The watermark advances to
// the maximum timestamp seen even when individual entries failed: a store of
// transient errors must not become a re-processing trap, so bad entries are
// counted and permanently skipped rather than retried.
func (e *Engine) ProcessFeedback() (FeedbackStats, error) {
	var stats FeedbackStats

	watermark, err := e.store.Watermark()
	if err != nil {
		return stats, fmt.Errorf("read watermark: %w", err)
	}
	entries, malformed, err := e.store.ReadFeedbackSince(watermark)
	if err != nil {
		return stats, fmt.Errorf("read feedback log: %w", err)
	}
	stats.Errors += malformed

	var maxSeen time.Time
	for _, entry := range entries {
		if entry.Timestamp.After(maxSeen) {
			maxSeen = entry.Timestamp
		}
		if err := entry.Validate(); err != nil {
			stats.Errors++
			e.logger.Warn("skipping invalid feedback entry", zap.Error(err))
			continue
		}
		m, err := e.Adjust(entry.MemoryID, entry.Outcome, 0)
		if err != nil {
			stats.Errors++
			e.logger.Warn("feedback adjustment failed",
				zap.String("memory_id", entry.MemoryID), zap.Error(err))
			continue
		}
		stats.Processed++

		if entry.IsCorrection() {
			correction := entry.Feedback
			if correction == "" {
				correction = "Correction applied"
			}
			action := entry.CorrectAction
			if action == "" {
				action = "Use the corrected approach"
			}
			c := model.NewCorrection(m, correction, action, entry.SessionID, e.cfg.CorrectionConfidence)
			if err := e.store.Create(c); err != nil {
				stats.Errors++
				e.logger.Warn("correction record creation failed",
					zap.String("memory_id", entry.MemoryID), zap.Error(err))
				continue
			}
			stats.CorrectionsCreated++
			e.logger.Info("created correction memory",
				zap.String("id", c.ID), zap.String("corrects", entry.MemoryID))
		}
	}

	if !maxSeen.IsZero() {
		if err := e.store.SetWatermark(maxSeen); err != nil {
			return stats, fmt.Errorf("advance watermark: %w", err)
		}
	}
	return stats, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
