package imagetrack

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const base = "http://h/storage/v1/object/public/files/"

// fileName mirrors the blob package's key extraction for the test bucket.
func fileName(url string) string {
	if name, ok := strings.CutPrefix(url, base); ok {
		return name
	}
	return ""
}

type fakeRemover struct {
	removed [][]string
	err     error
}

func (f *fakeRemover) Remove(ctx context.Context, keys []string) error {
	f.removed = append(f.removed, keys)
	return f.err
}

func img(name string) string {
	return `<img src="` + base + name + `">`
}

func TestRemovedImageIsQueued(t *testing.T) {
	tr := New(fileName)

	tr.DocumentChanged("<p>a</p>" + img("cat.png"))
	if got := tr.PendingDeletes(); len(got) != 0 {
		t.Fatalf("nothing should be pending yet, got %v", got)
	}

	tr.DocumentChanged("<p>a</p>")
	if got := tr.PendingDeletes(); !reflect.DeepEqual(got, []string{"cat.png"}) {
		t.Errorf("expected [cat.png], got %v", got)
	}
}

func TestReAddedImageIsUnqueued(t *testing.T) {
	tr := New(fileName)

	tr.DocumentChanged(img("cat.png"))
	tr.DocumentChanged("<p>gone</p>")
	tr.DocumentChanged(img("cat.png"))

	if got := tr.PendingDeletes(); len(got) != 0 {
		t.Errorf("re-added image should be unqueued, got %v", got)
	}
}

func TestQueueDeduplicates(t *testing.T) {
	tr := New(fileName)

	tr.DocumentChanged(img("cat.png"))
	tr.DocumentChanged("")
	tr.DocumentChanged(img("cat.png"))
	tr.DocumentChanged("")

	if got := tr.PendingDeletes(); !reflect.DeepEqual(got, []string{"cat.png"}) {
		t.Errorf("expected single entry, got %v", got)
	}
}

func TestForeignURLsIgnored(t *testing.T) {
	tr := New(fileName)

	tr.DocumentChanged(`<img src="https://imgur.com/external.png">`)
	tr.DocumentChanged("<p></p>")

	if got := tr.PendingDeletes(); len(got) != 0 {
		t.Errorf("foreign URL should never be queued, got %v", got)
	}
}

func TestFlushRemovesAndClears(t *testing.T) {
	tr := New(fileName)
	remover := &fakeRemover{}

	tr.DocumentChanged(img("a.png") + img("b.png"))
	tr.DocumentChanged(img("b.png"))

	if err := tr.Flush(context.Background(), remover); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(remover.removed) != 1 || !reflect.DeepEqual(remover.removed[0], []string{"a.png"}) {
		t.Errorf("expected one bulk remove of [a.png], got %v", remover.removed)
	}
	if got := tr.PendingDeletes(); len(got) != 0 {
		t.Errorf("Flush should clear pending, got %v", got)
	}

	// The baseline is also reset: images from the flushed draft do not get
	// queued when the document is later observed empty.
	tr.DocumentChanged("")
	if got := tr.PendingDeletes(); len(got) != 0 {
		t.Errorf("flushed baseline should not requeue, got %v", got)
	}
}

func TestFlushWithNothingPending(t *testing.T) {
	tr := New(fileName)
	remover := &fakeRemover{err: errors.New("should not be called")}

	if err := tr.Flush(context.Background(), remover); err != nil {
		t.Fatalf("empty Flush should be a no-op, got %v", err)
	}
	if len(remover.removed) != 0 {
		t.Error("remover should not be called with no pending keys")
	}
}

func TestFlushPropagatesRemoveError(t *testing.T) {
	tr := New(fileName)
	remover := &fakeRemover{err: errors.New("storage down")}

	tr.DocumentChanged(img("a.png"))
	tr.DocumentChanged("")

	if err := tr.Flush(context.Background(), remover); err == nil {
		t.Error("expected remove error to propagate")
	}
}
