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

// ReadFeedbackSince returns feedback entries with timestamps strictly after
// the given watermark, in log order. Comment lines (leading '#') are skipped
// silently; malformed lines are skipped and counted.
func (s *Store) ReadFeedbackSince(after time.Time) (entries []model.FeedbackEntry, malformed int, err error) {
	f, err := os.Open(s.feedbackPath())
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var e model.FeedbackEntry
		if jsonErr := json.Unmarshal([]byte(line), &e); jsonErr != nil {
			malformed++
			s.logger.Warn("skipping malformed feedback line", zap.Error(jsonErr))
			continue
		}
		if !e.Timestamp.After(after) {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, malformed, err
	}
	return entries, malformed, nil
}

// AppendFeedback appends one event to the feedback log.
func (s *Store) AppendFeedback(e model.FeedbackEntry) error {
	return appendLine(s.feedbackPath(), e)
}

// Watermark returns the last-processed feedback timestamp, zero when no
// feedback has ever been consumed.
func (s *Store) Watermark() (time.Time, error) {
	b, err := os.ReadFile(s.watermarkPath())
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(b)))
	if err != nil {
		// An unreadable watermark restarts consumption from the beginning;
		// adjustments compound, so surface it instead of silently resetting.
		return time.Time{}, err
	}
	return t, nil
}

// SetWatermark durably advances the feedback watermark.
func (s *Store) SetWatermark(t time.Time) error {
	return writeAtomic(s.watermarkPath(), []byte(t.UTC().Format(time.RFC3339Nano)+"\n"))
}
