package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/starford/imagesim/internal/models"
)

type metaEntry struct {
	load func() (models.FileMeta, error)
}

// MetaCache resolves and memoizes file metadata for input paths.
// Each path is stat'ed at most once; lookups of different paths do not block each other.
type MetaCache struct {
	stat func(string) (fs.FileInfo, error)

	mu      sync.Mutex
	entries map[string]*metaEntry
	stats   atomic.Int64
}

// NewMetaCache creates an empty MetaCache using os.Stat.
func NewMetaCache() *MetaCache {
	return &MetaCache{
		stat:    os.Stat,
		entries: make(map[string]*metaEntry),
	}
}

// Lookup returns the metadata for path.
func (m *MetaCache) Lookup(path string) (models.FileMeta, error) {
	m.mu.Lock()
	e, ok := m.entries[path]
	if !ok {
		e = &metaEntry{load: sync.OnceValues(func() (models.FileMeta, error) {
			return m.statMeta(path)
		})}
		m.entries[path] = e
	}
	m.mu.Unlock()
	return e.load()
}

// Name returns the display name of path: its base file name.
// The name is derived from the path even when the file cannot be stat'ed.
func (m *MetaCache) Name(path string) string {
	meta, err := m.Lookup(path)
	if err != nil {
		return filepath.Base(path)
	}
	return meta.Name
}

// Stats returns how many stat calls were made.
func (m *MetaCache) Stats() int64 {
	return m.stats.Load()
}

func (m *MetaCache) statMeta(path string) (models.FileMeta, error) {
	m.stats.Add(1)
	info, err := m.stat(path)
	if err != nil {
		return models.FileMeta{}, err
	}
	return models.FileMeta{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
