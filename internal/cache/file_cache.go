package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

// FileCache persists analysis records as a JSON map keyed by content
// identity. The file is loaded once at construction; readers proceed
// concurrently, writes are serialized and flushed through to disk. There is
// no TTL: the identity encodes the content, so an entry can never go stale.
type FileCache struct {
	path string

	mu      sync.RWMutex
	records map[address.Identity]*model.AnalysisRecord
	dirty   bool
}

// compile-time check: *FileCache must satisfy port.AnalysisCache
var _ port.AnalysisCache = (*FileCache)(nil)

// NewFileCache loads the cache at path. An absent file is an empty cache,
// never an error.
func NewFileCache(path string) (*FileCache, error) {
	c := &FileCache{path: path, records: map[address.Identity]*model.AnalysisRecord{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis cache %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.records); err != nil {
		// A corrupt cache file is not worth failing a run over.
		log.Printf("discarding unreadable analysis cache %q: %v", path, err)
		c.records = map[address.Identity]*model.AnalysisRecord{}
	}
	return c, nil
}

func (c *FileCache) Get(ctx context.Context, id address.Identity) (*model.AnalysisRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[id], nil
}

func (c *FileCache) Put(ctx context.Context, id address.Identity, rec *model.AnalysisRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[id] = rec
	c.dirty = true
	return c.flushLocked()
}

// Close flushes pending writes. Safe to defer alongside a write-through Put;
// flushing a clean cache is a no-op.
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *FileCache) flushLocked() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write analysis cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace analysis cache: %w", err)
	}
	c.dirty = false
	return nil
}
