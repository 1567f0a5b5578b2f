package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/model"
)

// IndexEntry is the denormalized summary of one record. The index is a cache,
// never authoritative: on any inconsistency the record file wins.
type IndexEntry struct {
	ID           string     `json:"id"`
	Confidence   float64    `json:"confidence"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	AccessCount  int        `json:"access_count"`
}

// ProjectBucket holds the index entries of one project partition.
type ProjectBucket struct {
	Path     string       `json:"path"`
	Memories []IndexEntry `json:"memories"`
}

// Index is the on-disk summary index: one global bucket plus one bucket per
// project hash.
type Index struct {
	Global   []IndexEntry              `json:"global"`
	Projects map[string]*ProjectBucket `json:"projects"`
}

func newIndexEntry(m *model.Memory) IndexEntry {
	return IndexEntry{
		ID:           m.ID,
		Confidence:   m.Metadata.Confidence,
		LastAccessed: m.Metadata.LastAccessed,
		AccessCount:  m.Metadata.AccessCount,
	}
}

func (e IndexEntry) matches(m *model.Memory) bool {
	if e.Confidence != m.Metadata.Confidence || e.AccessCount != m.Metadata.AccessCount {
		return false
	}
	switch {
	case e.LastAccessed == nil && m.Metadata.LastAccessed == nil:
		return true
	case e.LastAccessed == nil || m.Metadata.LastAccessed == nil:
		return false
	default:
		return e.LastAccessed.Equal(*m.Metadata.LastAccessed)
	}
}

// put inserts or updates the entry for m in its scope bucket, preserving
// insertion order for existing entries.
func (idx *Index) put(m *model.Memory) {
	entry := newIndexEntry(m)
	if m.Scope.Type == model.ScopeProject && m.Scope.Path != "" {
		hash := ProjectHash(m.Scope.Path)
		bucket := idx.Projects[hash]
		if bucket == nil {
			bucket = &ProjectBucket{Path: m.Scope.Path}
			idx.Projects[hash] = bucket
		}
		bucket.Memories = upsert(bucket.Memories, entry)
		return
	}
	idx.Global = upsert(idx.Global, entry)
}

func upsert(entries []IndexEntry, e IndexEntry) []IndexEntry {
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// projectOrder returns bucket hashes in a stable order.
func (idx *Index) projectOrder() []string {
	hashes := make([]string, 0, len(idx.Projects))
	for h := range idx.Projects {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

func (s *Store) loadIndex() (*Index, error) {
	idx := &Index{Projects: map[string]*ProjectBucket{}}
	b, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, idx); err != nil {
		// A corrupt index is rebuilt from the record files, which win.
		s.logger.Warn("index unreadable, rebuilding from record files", zap.Error(err))
		if err := s.RebuildIndex(); err != nil {
			return nil, err
		}
		b, err = os.ReadFile(s.indexPath())
		if err != nil {
			return nil, err
		}
		idx = &Index{Projects: map[string]*ProjectBucket{}}
		if err := json.Unmarshal(b, idx); err != nil {
			return nil, err
		}
	}
	if idx.Projects == nil {
		idx.Projects = map[string]*ProjectBucket{}
	}
	return idx, nil
}

func (s *Store) saveIndex(idx *Index) error {
	return writeJSON(s.indexPath(), idx)
}

// RebuildIndex regenerates the summary index from the record files.
func (s *Store) RebuildIndex() error {
	idx := &Index{Projects: map[string]*ProjectBucket{}}

	appendDir := func(dir string, add func(IndexEntry, *model.Memory)) error {
		for _, id := range untracked(dir, nil) {
			m, err := readRecord(filepath.Join(dir, id+".json"))
			if err != nil {
				s.logger.Warn("skipping unreadable record during index rebuild",
					zap.String("id", id), zap.Error(err))
				continue
			}
			add(newIndexEntry(m), m)
		}
		return nil
	}

	if err := appendDir(s.globalDir(), func(e IndexEntry, _ *model.Memory) {
		idx.Global = append(idx.Global, e)
	}); err != nil {
		return err
	}

	dirs, _ := os.ReadDir(s.projectsDir())
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		hash := d.Name()
		if err := appendDir(filepath.Join(s.projectsDir(), hash), func(e IndexEntry, m *model.Memory) {
			bucket := idx.Projects[hash]
			if bucket == nil {
				bucket = &ProjectBucket{Path: m.Scope.Path}
				idx.Projects[hash] = bucket
			}
			bucket.Memories = append(bucket.Memories, e)
		}); err != nil {
			return err
		}
	}

	return s.saveIndex(idx)
}
