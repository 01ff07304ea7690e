// Package imagetrack follows the images embedded in one editor's draft and
// decides which uploaded files are safe to delete from object storage.
package imagetrack

import (
	"context"
	"sync"

	"jotter/api/internal/richtext"
)

// Remover deletes stored objects by key in one bulk call.
type Remover interface {
	Remove(ctx context.Context, keys []string) error
}

// Tracker diffs the embedded-image set of a draft across edits. An image
// that disappears from the document is queued for deletion; one that comes
// back is un-queued. Each editor instance owns its own tracker.
type Tracker struct {
	mu       sync.Mutex
	fileName func(url string) string
	previous map[string]struct{}
	pending  []string
}

// New creates a tracker. fileName derives the storage key from an image
// URL and returns "" for URLs that do not point into the bucket; those are
// ignored.
func New(fileName func(url string) string) *Tracker {
	return &Tracker{
		fileName: fileName,
		previous: make(map[string]struct{}),
	}
}

// DocumentChanged implements richtext.ChangeObserver.
func (t *Tracker) DocumentChanged(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := make(map[string]struct{})
	for _, src := range richtext.ImageSources(content) {
		current[src] = struct{}{}
	}

	for src := range current {
		if name := t.fileName(src); name != "" {
			t.unqueue(name)
		}
	}
	for src := range t.previous {
		if _, stillThere := current[src]; stillThere {
			continue
		}
		name := t.fileName(src)
		if name == "" {
			continue
		}
		t.queue(name)
	}

	t.previous = current
}

// PendingDeletes returns the storage keys currently queued for deletion.
func (t *Tracker) PendingDeletes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.pending))
	copy(out, t.pending)
	return out
}

// Flush bulk-removes everything queued, then clears the queue and the
// previous-snapshot baseline. Called when the draft is discarded or
// submitted.
func (t *Tracker) Flush(ctx context.Context, remover Remover) error {
	t.mu.Lock()
	keys := t.pending
	t.pending = nil
	t.previous = make(map[string]struct{})
	t.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}
	return remover.Remove(ctx, keys)
}

func (t *Tracker) queue(name string) {
	for _, existing := range t.pending {
		if existing == name {
			return
		}
	}
	t.pending = append(t.pending, name)
}

func (t *Tracker) unqueue(name string) {
	kept := t.pending[:0]
	for _, existing := range t.pending {
		if existing != name {
			kept = append(kept, existing)
		}
	}
	t.pending = kept
}
