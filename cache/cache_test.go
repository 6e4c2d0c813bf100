package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/xcf"
)

var errBroken = errors.New("broken document")

// countingOpener returns an opener that counts calls and never parses the
// file, so fixtures can be arbitrary bytes.
func countingOpener(calls *atomic.Int32) func(string) (*xcf.Document, error) {
	return func(path string) (*xcf.Document, error) {
		calls.Add(1)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if string(data) == "broken" {
			return nil, errBroken
		}
		return &xcf.Document{}, nil
	}
}

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+Ext)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestGetDecodesOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "crate", "data")
	var calls atomic.Int32
	c := NewWithOptions(dir, &Options{Open: countingOpener(&calls)})

	var wg sync.WaitGroup
	docs := make([]*xcf.Document, 16)
	for i := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := c.Get("crate")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			docs[i] = doc
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("decoded %d times, want 1", n)
	}
	for i, doc := range docs {
		if doc != docs[0] {
			t.Fatalf("Get %d returned a different document", i)
		}
	}
}

func TestGetRevalidatesModTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDoc(t, dir, "barrel", "v1")
	var calls atomic.Int32
	c := NewWithOptions(dir, &Options{Open: countingOpener(&calls)})

	first, err := c.Get("barrel")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	second, err := c.Get("barrel")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first == second {
		t.Fatal("changed file served from cache")
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("decoded %d times, want 2", n)
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "door", "data")
	var calls atomic.Int32
	c := NewWithOptions(dir, &Options{Open: countingOpener(&calls)})

	if _, err := c.Get("door"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.Invalidate("door")
	if c.Len() != 0 {
		t.Fatalf("Len = %d after Invalidate", c.Len())
	}
	if _, err := c.Get("door"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("decoded %d times, want 2", n)
	}
}

func TestGetErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "bad", "broken")
	var calls atomic.Int32
	c := NewWithOptions(dir, &Options{Open: countingOpener(&calls)})

	if _, err := c.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v", err)
	}
	for range 2 {
		if _, err := c.Get("bad"); !errors.Is(err, errBroken) {
			t.Fatalf("bad: got %v", err)
		}
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("failed decode cached: %d calls", n)
	}
}

func TestGetDecodesRealDocument(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir())
	writeDoc(t, c.dir, "junk", "not an image")
	if _, err := c.Get("junk"); !errors.Is(err, xcf.ErrNotGimpFile) {
		t.Fatalf("got %v, want ErrNotGimpFile", err)
	}
}

func TestWatchEvicts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDoc(t, dir, "tank", "v1")
	var calls atomic.Int32
	c := NewWithOptions(dir, &Options{Open: countingOpener(&calls)})
	if _, err := c.Get("tank"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("entry not evicted")
		}
		// Rewrite until the watcher is registered and reports the change.
		if err := os.WriteFile(path, []byte("v2"), 0o600); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
