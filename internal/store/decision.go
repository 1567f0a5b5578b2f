package store

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/model"
)

// AppendDecision records a promotion decision in the append-only log.
func (s *Store) AppendDecision(d model.DecisionRecord) error {
	return appendLine(s.decisionsPath(), d)
}

// Decisions returns all recorded decisions in log order. Malformed lines are
// skipped and logged.
func (s *Store) Decisions() ([]model.DecisionRecord, error) {
	f, err := os.Open(s.decisionsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.DecisionRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var d model.DecisionRecord
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			s.logger.Warn("skipping malformed decision line", zap.Error(err))
			continue
		}
		out = append(out, d)
	}
	return out, sc.Err()
}

// Blocked returns the set of memory ids that must not be re-prompted: added
// and denied permanently, kept_observing within the cooldown window. The
// latest decision per memory governs.
func (s *Store) Blocked(now time.Time, keepCooldown time.Duration) (map[string]bool, error) {
	decisions, err := s.Decisions()
	if err != nil {
		return nil, err
	}
	latest := make(map[string]model.DecisionRecord)
	for _, d := range decisions {
		prev, ok := latest[d.MemoryID]
		if !ok || !d.Timestamp.Before(prev.Timestamp) {
			latest[d.MemoryID] = d
		}
	}
	blocked := make(map[string]bool)
	for id, d := range latest {
		switch d.Decision {
		case model.DecisionAdded, model.DecisionDenied:
			blocked[id] = true
		case model.DecisionKept:
			if now.Sub(d.Timestamp) < keepCooldown {
				blocked[id] = true
			}
		}
	}
	return blocked, nil
}
