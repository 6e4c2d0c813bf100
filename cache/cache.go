// Package cache keeps decoded documents of a source directory in memory,
// keyed by name, and re-decodes a document when its file changes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/woozymasta/xcf"
)

// Ext is the file extension documents are looked up with.
const Ext = ".xcf"

var (
	// ErrNotFound indicates no document file exists for a name.
	ErrNotFound = errors.New("document not found")
	// ErrWatch indicates the directory watcher could not be started.
	ErrWatch = errors.New("watch directory failed")
)

// Options configures a Cache.
type Options struct {
	// Open decodes the file at path; nil uses xcf.Open.
	Open func(path string) (*xcf.Document, error)
	// Logger receives eviction and watcher events; nil uses slog.Default.
	Logger *slog.Logger
}

// Cache maps document names to decoded documents. Each document is decoded
// at most once per file modification time, even under concurrent Get calls.
type Cache struct {
	dir  string
	open func(path string) (*xcf.Document, error)
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	doc   *xcf.Document
	mtime time.Time
}

// New returns a cache over the documents in dir.
func New(dir string) *Cache {
	return NewWithOptions(dir, nil)
}

// NewWithOptions returns a cache over the documents in dir.
func NewWithOptions(dir string, opts *Options) *Cache {
	c := &Cache{
		dir:     dir,
		open:    xcf.Open,
		log:     slog.Default(),
		entries: make(map[string]*entry),
	}
	if opts != nil {
		if opts.Open != nil {
			c.open = opts.Open
		}
		if opts.Logger != nil {
			c.log = opts.Logger
		}
	}
	return c
}

// Path returns the file a name resolves to.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, name+Ext)
}

func (c *Cache) entry(name string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok {
		e = &entry{}
		c.entries[name] = e
	}
	return e
}

// Get returns the decoded document for name, decoding it when it is not
// cached or its file changed since it was decoded. A failed decode is not
// cached.
func (c *Cache) Get(name string) (*xcf.Document, error) {
	path := c.Path(name)
	e := c.entry(name)
	e.mu.Lock()
	defer e.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		e.doc = nil
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return nil, err
	}
	if e.doc != nil && info.ModTime().Equal(e.mtime) {
		return e.doc, nil
	}
	if e.doc != nil {
		c.log.Debug("document changed", "name", name, "mtime", info.ModTime())
	}

	doc, err := c.open(path)
	if err != nil {
		e.doc = nil
		return nil, err
	}
	e.doc, e.mtime = doc, info.ModTime()
	c.log.Debug("document decoded", "name", name, "layers", doc.LayerCount())
	return doc, nil
}

// Invalidate drops the cached document for name.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	_, ok := c.entries[name]
	delete(c.entries, name)
	c.mu.Unlock()
	if ok {
		c.log.Info("document evicted", "name", name)
	}
}

// Len returns the number of names with a cache entry.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Watch evicts documents whose files are written, replaced or removed until
// ctx is done.
func (c *Cache) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWatch, c.dir, err)
	}
	c.log.Debug("watching documents", "dir", c.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), Ext) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				c.Invalidate(strings.TrimSuffix(filepath.Base(ev.Name), filepath.Ext(ev.Name)))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("watcher error", "dir", c.dir, "error", err)
		}
	}
}
