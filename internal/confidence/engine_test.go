package confidence

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/model"
	"github.com/memoir-dev/memoir/internal/store"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	e := NewEngine(s, Config{Floor: 0.1, CorrectionConfidence: 0.7}, zap.NewNop())
	e.now = func() time.Time { return testNow }
	return e, s
}

// seed creates a record with the given confidence whose created_at is
// daysAgo days before the engine's clock.
func seed(t *testing.T, s *store.Store, confidence float64, daysAgo int) *model.Memory {
	t.Helper()
	m := model.NewMemory(model.TypePattern, model.Content{
		Title:       fmt.Sprintf("record at %.2f", confidence),
		Description: "seeded for lifecycle tests",
	}, model.Scope{Type: model.ScopeGlobal}, confidence)
	m.Metadata.CreatedAt = testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour)
	require.NoError(t, s.Create(m))
	return m
}

func TestAdjustAccepted(t *testing.T) {
	e, s := newTestEngine(t)

	// +0.1 per acceptance, capped at 1.0, from any starting confidence.
	for _, start := range []float64{0.1, 0.3, 0.5, 0.85, 0.95, 1.0} {
		m := seed(t, s, start, 0)
		got, err := e.Adjust(m.ID, model.OutcomeAccepted, 0)
		require.NoError(t, err)

		want := start + 0.1
		if want > 1.0 {
			want = 1.0
		}
		assert.InDelta(t, want, got.Metadata.Confidence, 1e-9, "start %v", start)
		assert.Equal(t, 1, got.Metadata.PositiveReinforcement)
		assert.Equal(t, 1, got.Metadata.AccessCount)
		require.NotNil(t, got.Metadata.LastAccessed)
		assert.Equal(t, testNow, *got.Metadata.LastAccessed)
		assert.Equal(t, model.StatusActive, got.Metadata.Status)
	}
}

func TestAdjustRejected(t *testing.T) {
	e, s := newTestEngine(t)

	m := seed(t, s, 0.6, 0)
	got, err := e.Adjust(m.ID, model.OutcomeRejected, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.Metadata.Confidence, 1e-9)
	assert.Equal(t, model.StatusActive, got.Metadata.Status)
	assert.Equal(t, 1, got.Metadata.NegativeReinforcement)

	// Second rejection lands below 0.3 and flags the record for review.
	got, err = e.Adjust(m.ID, model.OutcomeRejected, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, got.Metadata.Confidence, 1e-9)
	assert.Equal(t, model.StatusUnderReview, got.Metadata.Status)

	// Floor holds at 0.1.
	got, err = e.Adjust(m.ID, model.OutcomeRejected, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Metadata.Confidence, 1e-9)
}

func TestAdjustSuperseded(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.8, 0)

	got, err := e.Adjust(m.ID, model.OutcomeSuperseded, 0)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuperseded, got.Metadata.Status)
	assert.InDelta(t, 0.8, got.Metadata.Confidence, 1e-9, "superseded leaves confidence alone")
	assert.Equal(t, 1, got.Metadata.AccessCount, "access is still recorded")
}

func TestAdjustExplicitDelta(t *testing.T) {
	e, s := newTestEngine(t)

	m := seed(t, s, 0.5, 0)
	got, err := e.Adjust(m.ID, model.OutcomeAccepted, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Metadata.Confidence, 1e-9, "delta applies after outcome, clamped to 1")

	m2 := seed(t, s, 0.5, 0)
	got, err = e.Adjust(m2.ID, model.OutcomeRejected, -0.9)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Metadata.Confidence, 1e-9, "delta clamped to floor")
}

func TestAdjustUnknownOutcome(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.5, 0)
	_, err := e.Adjust(m.ID, "maybe", 0)
	require.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestAdjustMissingMemory(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Adjust("01ZZZZZZZZZZZZZZZZZZZZZZZZ", model.OutcomeAccepted, 0)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDecayFreshRecordUntouched(t *testing.T) {
	e, s := newTestEngine(t)
	seed(t, s, 0.8, 0)

	stats, err := e.Decay(false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 0, stats.Decayed)
}

func TestDecayUnreinforcedRecord(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.5, 50)
	m.Metadata.AccessCount = 10
	require.NoError(t, s.Update(m))

	stats, err := e.Decay(false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Decayed)
	assert.Equal(t, 0, stats.Archived)

	got, err := s.Get(m.ID)
	require.NoError(t, err)
	// 0.5 * 0.99^50 * 0.5 lands near 0.151; above the floor, so still active.
	assert.InDelta(t, 0.1513, got.Metadata.Confidence, 0.001)
	assert.Equal(t, model.StatusActive, got.Metadata.Status)
}

func TestDecayReinforcementResists(t *testing.T) {
	e, s := newTestEngine(t)
	weak := seed(t, s, 0.8, 30)
	weak.Metadata.AccessCount = 10
	require.NoError(t, s.Update(weak))

	strong := seed(t, s, 0.8, 30)
	strong.Metadata.AccessCount = 10
	strong.Metadata.PositiveReinforcement = 10
	require.NoError(t, s.Update(strong))

	_, err := e.Decay(false)
	require.NoError(t, err)

	w, err := s.Get(weak.ID)
	require.NoError(t, err)
	st, err := s.Get(strong.ID)
	require.NoError(t, err)
	assert.Greater(t, st.Metadata.Confidence, w.Metadata.Confidence,
		"a perfect reinforcement history halves the decay")
	assert.Less(t, st.Metadata.Confidence, 0.8, "decay never raises confidence")
}

func TestDecayArchivesAtFloor(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.12, 200)

	stats, err := e.Decay(false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Archived)

	got, err := s.Get(m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Metadata.Confidence, 1e-9)
	assert.Equal(t, model.StatusArchived, got.Metadata.Status)
}

func TestDecaySkipsRetired(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.9, 100)
	m.Metadata.Status = model.StatusArchived
	require.NoError(t, s.Update(m))

	stats, err := e.Decay(false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)

	got, err := s.Get(m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got.Metadata.Confidence, 1e-9)
}

func TestDecayDryRunPersistsNothing(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.12, 200)

	stats, err := e.Decay(true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Decayed, "dry run still reports")
	assert.Equal(t, 1, stats.Archived)

	got, err := s.Get(m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, got.Metadata.Confidence, 1e-9, "dry run must not write")
	assert.Equal(t, model.StatusActive, got.Metadata.Status)
}

func feedbackAt(id string, outcome model.Outcome, at time.Time) model.FeedbackEntry {
	return model.FeedbackEntry{Timestamp: at, MemoryID: id, Outcome: outcome}
}

func TestProcessFeedback(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.5, 0)

	require.NoError(t, s.AppendFeedback(feedbackAt(m.ID, model.OutcomeAccepted, testNow.Add(-2*time.Hour))))
	require.NoError(t, s.AppendFeedback(feedbackAt(m.ID, model.OutcomeAccepted, testNow.Add(-1*time.Hour))))

	stats, err := e.ProcessFeedback()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 0, stats.Errors)

	got, err := s.Get(m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got.Metadata.Confidence, 1e-9)

	// Second pass is a no-op: the watermark already covers both entries.
	stats, err = e.ProcessFeedback()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)

	got, err = s.Get(m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got.Metadata.Confidence, 1e-9)
}

func TestProcessFeedbackAdvancesPastErrors(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.5, 0)

	bad := feedbackAt("01MISSINGMISSINGMISSINGMIS", model.OutcomeAccepted, testNow.Add(-1*time.Hour))
	good := feedbackAt(m.ID, model.OutcomeAccepted, testNow.Add(-2*time.Hour))
	require.NoError(t, s.AppendFeedback(good))
	require.NoError(t, s.AppendFeedback(bad))

	stats, err := e.ProcessFeedback()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Errors)

	// The failed entry advanced the watermark too: it is never retried.
	w, err := s.Watermark()
	require.NoError(t, err)
	assert.True(t, w.Equal(bad.Timestamp), "watermark should cover the failed entry")

	stats, err = e.ProcessFeedback()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 0, stats.Errors)
}

func TestProcessFeedbackCreatesCorrection(t *testing.T) {
	e, s := newTestEngine(t)
	m := seed(t, s, 0.5, 0)

	entry := model.FeedbackEntry{
		Timestamp:     testNow.Add(-time.Hour),
		MemoryID:      m.ID,
		Outcome:       model.OutcomeRejected,
		Type:          "correction",
		Feedback:      "Use the v2 client",
		CorrectAction: "Import pkg/v2 instead",
		CreatesMemory: true,
		SessionID:     "sess-9",
	}
	require.NoError(t, s.AppendFeedback(entry))

	stats, err := e.ProcessFeedback()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CorrectionsCreated)

	all, err := s.List(store.ListParams{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	var corr *model.Memory
	for _, r := range all {
		if r.Type == model.TypeCorrection {
			corr = r
		}
	}
	require.NotNil(t, corr, "correction record should exist")
	assert.Equal(t, "Use the v2 client", corr.Content.Description)
	assert.Equal(t, "Import pkg/v2 instead", corr.Content.Action)
	assert.InDelta(t, 0.7, corr.Metadata.Confidence, 1e-9)
	assert.Equal(t, m.Scope, corr.Scope)
}
