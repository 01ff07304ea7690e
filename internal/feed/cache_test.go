package feed

import (
	"fmt"
	"reflect"
	"testing"

	"jotter/api/internal/store"
)

func notes(ids ...string) []store.Note {
	out := make([]store.Note, len(ids))
	for i, id := range ids {
		out[i] = store.Note{ID: id, Content: "<p>" + id + "</p>"}
	}
	return out
}

func ids(items []store.Note) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestPushFrontDoesNotRechunk(t *testing.T) {
	c := NewCache(2)
	c.AppendPage(notes("a", "b"))
	c.AppendPage(notes("c", "d"))

	c.PushFront(store.Note{ID: "new"})

	// The first page grows past pageSize; later rows keep their pages.
	if got := ids(c.Flatten()); !reflect.DeepEqual(got, []string{"new", "a", "b", "c", "d"}) {
		t.Errorf("flatten after PushFront: %v", got)
	}
	if c.PageCount() != 2 {
		t.Errorf("PushFront must not rechunk, got %d pages", c.PageCount())
	}
}

func TestPushFrontIntoEmptyCache(t *testing.T) {
	c := NewCache(4)
	c.PushFront(store.Note{ID: "only"})
	if got := ids(c.Flatten()); !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("flatten: %v", got)
	}
}

func TestSnapshotRestoreIsDeep(t *testing.T) {
	c := NewCache(2)
	c.AppendPage(notes("a", "b"))

	snapshot := c.Snapshot()
	c.PushFront(store.Note{ID: "temp"})
	c.ReplaceContent("a", "<p>mutated</p>")

	c.Restore(snapshot)
	flat := c.Flatten()
	if got := ids(flat); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("restore: %v", got)
	}
	if flat[0].Content != "<p>a</p>" {
		t.Errorf("restored content mutated: %q", flat[0].Content)
	}
}

func TestRemoveRechunks(t *testing.T) {
	c := NewCache(2)
	c.AppendPage(notes("a", "b"))
	c.AppendPage(notes("c", "d"))

	removed, ok := c.Remove("b")
	if !ok || removed.ID != "b" {
		t.Fatalf("Remove returned %v %v", removed, ok)
	}
	if got := ids(c.Flatten()); !reflect.DeepEqual(got, []string{"a", "c", "d"}) {
		t.Errorf("flatten after remove: %v", got)
	}
	if c.PageCount() != 2 {
		t.Errorf("expected 2 pages after rechunk, got %d", c.PageCount())
	}

	if _, ok := c.Remove("missing"); ok {
		t.Error("removing a missing id should report false")
	}
}

func TestReplaceContentKeepsPosition(t *testing.T) {
	c := NewCache(2)
	c.AppendPage(notes("a", "b"))

	if !c.ReplaceContent("b", "<p>edited</p>") {
		t.Fatal("ReplaceContent did not find the note")
	}
	flat := c.Flatten()
	if flat[1].ID != "b" || flat[1].Content != "<p>edited</p>" {
		t.Errorf("unexpected row after edit: %+v", flat[1])
	}
}

func TestReplaceID(t *testing.T) {
	c := NewCache(2)
	c.AppendPage(notes("temp-1", "b"))

	if !c.ReplaceID("temp-1", "real-1") {
		t.Fatal("ReplaceID did not find the note")
	}
	if !c.Contains("real-1") || c.Contains("temp-1") {
		t.Error("id was not rewritten")
	}
}

func TestRechunkSplitsByPageSize(t *testing.T) {
	c := NewCache(3)
	for i := 0; i < 7; i++ {
		c.PushFront(store.Note{ID: fmt.Sprintf("n%d", i)})
	}
	c.Rechunk()
	if c.PageCount() != 3 {
		t.Errorf("expected 3 pages for 7 notes at size 3, got %d", c.PageCount())
	}
	if c.Len() != 7 {
		t.Errorf("rechunk must not lose rows, got %d", c.Len())
	}
}
