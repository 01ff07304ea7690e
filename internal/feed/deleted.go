package feed

import (
	"sync"
	"time"
)

// DeletedSet hides notes the moment a delete is requested while giving
// exit animations time to play: an id is hidden immediately, but only
// leaves the rendered data once the debounce elapses and it moves into the
// settled view.
type DeletedSet struct {
	mu       sync.Mutex
	hidden   map[string]struct{}
	settled  map[string]struct{}
	debounce time.Duration
	after    func(time.Duration, func()) *time.Timer
}

func NewDeletedSet(debounce time.Duration, after func(time.Duration, func()) *time.Timer) *DeletedSet {
	if after == nil {
		after = time.AfterFunc
	}
	return &DeletedSet{
		hidden:   make(map[string]struct{}),
		settled:  make(map[string]struct{}),
		debounce: debounce,
		after:    after,
	}
}

// Add hides the id now and settles it after the debounce.
func (d *DeletedSet) Add(id string) {
	d.mu.Lock()
	d.hidden[id] = struct{}{}
	d.mu.Unlock()

	d.after(d.debounce, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, stillHidden := d.hidden[id]; stillHidden {
			d.settled[id] = struct{}{}
		}
	})
}

// Remove undoes a pending delete: the id reappears immediately.
func (d *DeletedSet) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.hidden, id)
	delete(d.settled, id)
}

// Hidden reports whether the UI should be hiding the row right now.
func (d *DeletedSet) Hidden(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.hidden[id]
	return ok
}

// Settled reports whether the row should be gone from the rendered data.
func (d *DeletedSet) Settled(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.settled[id]
	return ok
}

// HiddenIDs returns a copy of the immediately-hidden set.
func (d *DeletedSet) HiddenIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.hidden))
	for id := range d.hidden {
		out = append(out, id)
	}
	return out
}
