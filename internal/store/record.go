package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/model"
)

// ListParams filters a List call. Zero-value Scope means all scopes.
type ListParams struct {
	Scope       model.ScopeType
	ProjectPath string
}

func (s *Store) recordDir(scope model.Scope) string {
	if scope.Type == model.ScopeProject && scope.Path != "" {
		return filepath.Join(s.projectsDir(), ProjectHash(scope.Path))
	}
	return s.globalDir()
}

func (s *Store) recordPath(scope model.Scope, id string) string {
	return filepath.Join(s.recordDir(scope), id+".json")
}

func readRecord(path string) (*model.Memory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m model.Memory
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedRecord, filepath.Base(path), err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create persists a new record and registers it in the index.
func (s *Store) Create(m *model.Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := writeJSON(s.recordPath(m.Scope, m.ID), m); err != nil {
		return fmt.Errorf("write record %s: %w", m.ID, err)
	}
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	idx.put(m)
	return s.saveIndex(idx)
}

// Get loads a record by id. The index locates the partition; if the index is
// stale the partitions are scanned and the index repaired from the file.
func (s *Store) Get(id string) (*model.Memory, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	if path, ok := s.locate(idx, id); ok {
		m, err := readRecord(path)
		if err == nil {
			return m, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Index pointed at a deleted file; fall through to the scan.
	}
	m, path, err := s.scanFor(id)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.logger.Debug("index repaired from record file",
			zap.String("id", id), zap.String("path", path))
		idx.put(m)
		if err := s.saveIndex(idx); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
}

// Update rewrites an existing record and resyncs its index entry.
func (s *Store) Update(m *model.Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}
	path := s.recordPath(m.Scope, m.ID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", model.ErrNotFound, m.ID)
	}
	if err := writeJSON(path, m); err != nil {
		return fmt.Errorf("write record %s: %w", m.ID, err)
	}
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	idx.put(m)
	return s.saveIndex(idx)
}

// Archive retires a record: status archived plus one evidence entry saying
// why. Archival is terminal.
func (s *Store) Archive(m *model.Memory, note, source string, at time.Time) error {
	m.Metadata.Status = model.StatusArchived
	m.Evidence = append(m.Evidence, model.Evidence{
		Timestamp:   at,
		Description: note,
		Source:      source,
	})
	return s.Update(m)
}

// List returns records in insertion order (global bucket first, then project
// buckets). Malformed record files are quarantined: skipped, counted, and
// logged, never returned. Index entries are repaired against the record files
// as a side effect, with the record file winning every disagreement.
func (s *Store) List(p ListParams) ([]*model.Memory, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	dirty := false

	var out []*model.Memory
	collect := func(dir string, entries []IndexEntry) []IndexEntry {
		seen := make(map[string]bool, len(entries))
		kept := entries[:0]
		for _, e := range entries {
			seen[e.ID] = true
			m, err := readRecord(filepath.Join(dir, e.ID+".json"))
			if err != nil {
				if os.IsNotExist(err) {
					dirty = true // record deleted out from under the index
					continue
				}
				s.logger.Warn("quarantined malformed record",
					zap.String("id", e.ID), zap.Error(err))
				kept = append(kept, e)
				continue
			}
			if !e.matches(m) {
				dirty = true
				e = newIndexEntry(m)
			}
			kept = append(kept, e)
			out = append(out, m)
		}
		// Records written without an index entry (interrupted create).
		for _, id := range untracked(dir, seen) {
			m, err := readRecord(filepath.Join(dir, id+".json"))
			if err != nil {
				s.logger.Warn("quarantined malformed record",
					zap.String("id", id), zap.Error(err))
				continue
			}
			dirty = true
			kept = append(kept, newIndexEntry(m))
			out = append(out, m)
		}
		return kept
	}

	if p.Scope == "" || p.Scope == model.ScopeGlobal {
		idx.Global = collect(s.globalDir(), idx.Global)
	}
	if p.Scope == "" || p.Scope == model.ScopeProject {
		for _, hash := range idx.projectOrder() {
			bucket := idx.Projects[hash]
			if p.ProjectPath != "" && hash != ProjectHash(p.ProjectPath) {
				continue
			}
			bucket.Memories = collect(filepath.Join(s.projectsDir(), hash), bucket.Memories)
		}
	}

	if dirty {
		if err := s.saveIndex(idx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// locate resolves a record path from the index.
func (s *Store) locate(idx *Index, id string) (string, bool) {
	for _, e := range idx.Global {
		if e.ID == id {
			return filepath.Join(s.globalDir(), id+".json"), true
		}
	}
	for hash, bucket := range idx.Projects {
		for _, e := range bucket.Memories {
			if e.ID == id {
				return filepath.Join(s.projectsDir(), hash, id+".json"), true
			}
		}
	}
	return "", false
}

// scanFor searches every partition for a record file the index does not know.
func (s *Store) scanFor(id string) (*model.Memory, string, error) {
	candidates := []string{filepath.Join(s.globalDir(), id+".json")}
	dirs, _ := os.ReadDir(s.projectsDir())
	for _, d := range dirs {
		if d.IsDir() {
			candidates = append(candidates, filepath.Join(s.projectsDir(), d.Name(), id+".json"))
		}
	}
	for _, path := range candidates {
		m, err := readRecord(path)
		if err == nil {
			return m, path, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", err
		}
	}
	return nil, "", nil
}

// untracked lists record ids present on disk but absent from seen, in
// filename order (ULIDs, so creation order).
func untracked(dir string, seen map[string]bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := name[:len(name)-len(".json")]
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
