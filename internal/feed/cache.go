// Package feed holds the per-client optimistic feed state: the paged note
// cache, identifier reconciliation, delete-with-undo, and the grouped read
// view.
package feed

import "jotter/api/internal/store"

// Cache is the paged note list as the client last saw it, including
// synthetic rows for creates the server has not acknowledged yet.
type Cache struct {
	pages    [][]store.Note
	pageSize int
}

func NewCache(pageSize int) *Cache {
	return &Cache{pageSize: pageSize}
}

// Snapshot deep-copies the cache so a failed mutation can restore the
// exact pre-mutation state.
func (c *Cache) Snapshot() [][]store.Note {
	pages := make([][]store.Note, len(c.pages))
	for i, page := range c.pages {
		pages[i] = append([]store.Note(nil), page...)
	}
	return pages
}

func (c *Cache) Restore(snapshot [][]store.Note) {
	c.pages = snapshot
}

// PushFront inserts a note at the head of the first page. The page is not
// rechunked, matching the optimistic-create contract: later rows keep
// their page positions so nothing re-renders.
func (c *Cache) PushFront(note store.Note) {
	if len(c.pages) == 0 {
		c.pages = append(c.pages, nil)
	}
	c.pages[0] = append([]store.Note{note}, c.pages[0]...)
}

func (c *Cache) AppendPage(notes []store.Note) {
	c.pages = append(c.pages, notes)
}

func (c *Cache) Flatten() []store.Note {
	var out []store.Note
	for _, page := range c.pages {
		out = append(out, page...)
	}
	return out
}

// Rechunk re-splits the flattened list into pageSize chunks.
func (c *Cache) Rechunk() {
	flat := c.Flatten()
	var pages [][]store.Note
	for start := 0; start < len(flat); start += c.pageSize {
		end := start + c.pageSize
		if end > len(flat) {
			end = len(flat)
		}
		pages = append(pages, flat[start:end])
	}
	c.pages = pages
}

// ReplaceContent swaps a note's content in place, leaving its id and
// position untouched, then rechunks.
func (c *Cache) ReplaceContent(noteID, content string) bool {
	for i, page := range c.pages {
		for j, note := range page {
			if note.ID == noteID {
				c.pages[i][j].Content = content
				c.Rechunk()
				return true
			}
		}
	}
	return false
}

// ReplaceID rewrites a cached note's identifier. Used only by the explicit
// reconciliation pass during update/delete, never by the create path.
func (c *Cache) ReplaceID(oldID, newID string) bool {
	for i, page := range c.pages {
		for j, note := range page {
			if note.ID == oldID {
				c.pages[i][j].ID = newID
				return true
			}
		}
	}
	return false
}

// Remove drops a note and returns it, rechunking the remainder.
func (c *Cache) Remove(noteID string) (store.Note, bool) {
	for i, page := range c.pages {
		for j, note := range page {
			if note.ID == noteID {
				c.pages[i] = append(page[:j:j], page[j+1:]...)
				c.Rechunk()
				return note, true
			}
		}
	}
	return store.Note{}, false
}

func (c *Cache) Contains(noteID string) bool {
	for _, page := range c.pages {
		for _, note := range page {
			if note.ID == noteID {
				return true
			}
		}
	}
	return false
}

func (c *Cache) Len() int {
	total := 0
	for _, page := range c.pages {
		total += len(page)
	}
	return total
}

func (c *Cache) PageCount() int {
	return len(c.pages)
}

func (c *Cache) Clear() {
	c.pages = nil
}
