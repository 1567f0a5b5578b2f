// Package store implements the file-backed memory record store.
//
// Layout under the configured root:
//
//	memories/global/<id>.json
//	memories/projects/<hash>/<id>.json
//	index.json
//	feedback.jsonl
//	decisions.jsonl
//	.feedback_watermark
//
// One JSON file per record, partitioned by scope; the index file is a
// denormalized cache of per-record summaries. Record files are authoritative:
// any index inconsistency is repaired from them on load.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	indexFile     = "index.json"
	feedbackFile  = "feedback.jsonl"
	decisionsFile = "decisions.jsonl"
	watermarkFile = ".feedback_watermark"
)

// Store is a single-writer, file-backed record store. Two concurrent
// invocations against the same root can race on index and document updates;
// callers serialize externally.
type Store struct {
	root   string
	logger *zap.Logger
}

// Open opens or creates a store rooted at the given directory.
func Open(root string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{
		filepath.Join(root, "memories", "global"),
		filepath.Join(root, "memories", "projects"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	s := &Store{root: root, logger: logger}
	if _, err := os.Stat(s.indexPath()); os.IsNotExist(err) {
		if err := s.RebuildIndex(); err != nil {
			return nil, fmt.Errorf("rebuild index: %w", err)
		}
	}
	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) indexPath() string     { return filepath.Join(s.root, indexFile) }
func (s *Store) feedbackPath() string  { return filepath.Join(s.root, feedbackFile) }
func (s *Store) decisionsPath() string { return filepath.Join(s.root, decisionsFile) }
func (s *Store) watermarkPath() string { return filepath.Join(s.root, watermarkFile) }

func (s *Store) globalDir() string   { return filepath.Join(s.root, "memories", "global") }
func (s *Store) projectsDir() string { return filepath.Join(s.root, "memories", "projects") }

// ProjectHash derives the stable partition name for a project path.
func ProjectHash(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(sum[:])[:16]
}

// writeJSON writes v atomically: temp file in the same directory, then rename,
// so an interrupted write never leaves a truncated file behind.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(path, append(b, '\n'))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// appendLine appends one JSON line to an append-only log file.
func appendLine(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}
