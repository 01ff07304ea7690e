package feed

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"jotter/api/internal/richtext"
	"jotter/api/internal/store"
	"jotter/api/internal/util"
)

// Gateway is the remote data gateway the feed reads from and mutates.
type Gateway interface {
	ListNotes(ctx context.Context, page, pageSize int, query string) ([]store.Note, error)
	InsertNote(ctx context.Context, content, createdBy string) (store.Note, error)
	UpdateNoteContent(ctx context.Context, noteID, content string) error
	DeleteNote(ctx context.Context, noteID string) (store.Note, error)
}

// ImageRemover bulk-removes stored objects once a deleted note's images
// are orphaned.
type ImageRemover interface {
	Remove(ctx context.Context, keys []string) error
}

// Notifier surfaces transient user-facing notifications.
type Notifier interface {
	Info(message string)
	Error(message string)
}

var ErrEmptyNote = errors.New("note content is empty")

// EmptyContent reports whether HTML has neither visible text nor an
// embedded image. Submitting such content is rejected.
func EmptyContent(content string) bool {
	return strings.TrimSpace(richtext.StripTags(content)) == "" && !strings.Contains(content, "<img")
}

type Options struct {
	PageSize     int
	UndoWindow   time.Duration
	ExitDebounce time.Duration
	// RollbackFailedDeletes restores the hidden row when the remote delete
	// fails after the undo window; off, the removal is fire-and-forget.
	RollbackFailedDeletes bool
	Owner                 string
	Notifier              Notifier
	Images                ImageRemover
	// FileName derives a storage key from an embedded image URL; "" means
	// the URL is not ours and is ignored.
	FileName func(url string) string
	Now      func() time.Time
	After    func(time.Duration, func()) *time.Timer
	// RemoteTimeout bounds background gateway calls that outlive the
	// triggering request.
	RemoteTimeout time.Duration
	// OnCreateError hands the composed content back on a failed create so
	// the user's draft is not lost. The surface was already cleared at
	// submit time.
	OnCreateError func(content string)
}

// Feed is the rendered read view.
type Feed struct {
	Groups      []DayGroup `json:"groups"`
	HasNextPage bool       `json:"hasNextPage"`
	Fetching    bool       `json:"fetching"`
	Query       string     `json:"query,omitempty"`
	EditingID   string     `json:"editingId,omitempty"`
	PendingIDs  []string   `json:"pendingIds,omitempty"`
	HiddenIDs   []string   `json:"hiddenIds,omitempty"`
}

// View is one client's optimistic feed: mutations land in the cache
// immediately and reconcile with the gateway as responses arrive.
type View struct {
	gw   Gateway
	opts Options

	mu         sync.Mutex
	cache      *Cache
	rec        *Reconciler
	deleted    *DeletedSet
	pendingIDs map[string]struct{}
	undoTimers map[string]pendingDelete
	editingID  string
	query      string
	page       int
	hasNext    bool
	fetching   bool
	// generation invalidates in-flight reads: it is bumped before every
	// optimistic cache write so a slow fetch cannot clobber the insert
	// when it resolves late.
	generation int

	inflight sync.WaitGroup
}

func NewView(gw Gateway, opts Options) *View {
	if opts.PageSize <= 0 {
		opts.PageSize = 16
	}
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.After == nil {
		opts.After = time.AfterFunc
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 15 * time.Second
	}
	return &View{
		gw:         gw,
		opts:       opts,
		cache:      NewCache(opts.PageSize),
		rec:        NewReconciler(),
		deleted:    NewDeletedSet(opts.ExitDebounce, opts.After),
		pendingIDs: make(map[string]struct{}),
		undoTimers: make(map[string]pendingDelete),
		hasNext:    true,
	}
}

// Load resets the view for a (possibly changed) search query and fetches
// the first page. An unchanged query with pages already loaded is a no-op.
func (v *View) Load(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	v.mu.Lock()
	if query == v.query && v.cache.PageCount() > 0 {
		v.mu.Unlock()
		return nil
	}
	v.generation++
	v.query = query
	v.cache.Clear()
	v.rec.Prune(v.cache.Contains)
	v.page = 0
	v.hasNext = true
	v.fetching = false
	v.mu.Unlock()
	return v.LoadNextPage(ctx)
}

// LoadNextPage fetches the next page unless one is already in flight or
// the feed is exhausted. The intersection sentinel triggers this.
func (v *View) LoadNextPage(ctx context.Context) error {
	v.mu.Lock()
	if v.fetching || !v.hasNext {
		v.mu.Unlock()
		return nil
	}
	v.fetching = true
	gen := v.generation
	page := v.page + 1
	query := v.query
	v.mu.Unlock()

	notes, err := v.gw.ListNotes(ctx, page, v.opts.PageSize, query)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.fetching = false
	if err != nil {
		return err
	}
	if gen != v.generation {
		// superseded by an optimistic write or query change; drop the
		// stale read
		return nil
	}
	v.page = page
	v.hasNext = len(notes) > 0
	if query != "" {
		notes = refilter(notes, query)
	}
	v.cache.AppendPage(notes)
	v.rec.Prune(v.cache.Contains)
	return nil
}

// Create inserts a synthetic note at the head of the first page and
// returns it immediately; the gateway insert completes in the background
// and only records the temp → real id mapping, never rewrites the cached
// row (which would retrigger its enter animation).
func (v *View) Create(ctx context.Context, content string) (store.Note, error) {
	if EmptyContent(content) {
		return store.Note{}, ErrEmptyNote
	}

	tempID := util.NewID("pending")
	v.mu.Lock()
	v.generation++
	snapshot := v.cache.Snapshot()
	note := store.Note{
		ID:        tempID,
		Content:   content,
		CreatedAt: v.opts.Now(),
		CreatedBy: v.opts.Owner,
	}
	v.cache.PushFront(note)
	v.pendingIDs[tempID] = struct{}{}
	v.mu.Unlock()

	v.inflight.Add(1)
	go func() {
		defer v.inflight.Done()
		callCtx, cancel := context.WithTimeout(context.Background(), v.opts.RemoteTimeout)
		defer cancel()

		created, err := v.gw.InsertNote(callCtx, content, v.opts.Owner)
		if err != nil {
			v.mu.Lock()
			v.cache.Restore(snapshot)
			delete(v.pendingIDs, tempID)
			v.mu.Unlock()
			v.notifyError("Failed to create note, something went wrong")
			if v.opts.OnCreateError != nil {
				v.opts.OnCreateError(content)
			}
			return
		}

		v.mu.Lock()
		v.rec.Record(tempID, created.ID)
		v.mu.Unlock()
	}()

	return note, nil
}

// Update replaces a note's content. The id is resolved through the
// reconciler first, so updating a still-pending note targets the real row.
// On failure nothing is rolled back; the caller keeps its edit state and
// can retry.
func (v *View) Update(ctx context.Context, noteID, content string) error {
	v.mu.Lock()
	ref := v.refFor(noteID)
	target := v.rec.Resolve(ref)
	v.mu.Unlock()

	if err := v.gw.UpdateNoteContent(ctx, target, content); err != nil {
		v.notifyError("Failed to update note, something went wrong")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache.ReplaceContent(noteID, content)
	if ref.IsPending() && target != noteID {
		// Explicit reconciliation pass: the row has been on screen long
		// enough that swapping in the real id no longer disturbs its
		// animation.
		v.cache.ReplaceID(noteID, target)
		delete(v.pendingIDs, noteID)
		v.rec.Forget(noteID)
	}
	if v.editingID == noteID {
		v.editingID = ""
	}
	return nil
}

// pendingDelete is a scheduled remote delete awaiting its undo window.
type pendingDelete struct {
	timer    *time.Timer
	deadline time.Time
}

// Delete hides the note immediately and starts the undo window. The
// remote delete fires only after the window elapses. A repeat delete of
// an already-scheduled id returns the window's original deadline.
func (v *View) Delete(noteID string) time.Time {
	v.mu.Lock()
	if pd, scheduled := v.undoTimers[noteID]; scheduled {
		v.mu.Unlock()
		return pd.deadline
	}
	deadline := v.opts.Now().Add(v.opts.UndoWindow)
	v.deleted.Add(noteID)
	if v.editingID == noteID {
		v.editingID = ""
	}
	v.undoTimers[noteID] = pendingDelete{
		timer: v.opts.After(v.opts.UndoWindow, func() {
			v.commitDelete(noteID)
		}),
		deadline: deadline,
	}
	v.mu.Unlock()

	v.notifyInfo("Note deleted")
	return deadline
}

// Undo cancels a pending delete before the window closes. The remote
// delete is never issued.
func (v *View) Undo(noteID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	pd, ok := v.undoTimers[noteID]
	if !ok {
		return false
	}
	pd.timer.Stop()
	delete(v.undoTimers, noteID)
	v.deleted.Remove(noteID)
	return true
}

func (v *View) commitDelete(noteID string) {
	v.mu.Lock()
	if _, stillScheduled := v.undoTimers[noteID]; !stillScheduled {
		v.mu.Unlock()
		return
	}
	delete(v.undoTimers, noteID)
	target := v.rec.Resolve(v.refFor(noteID))
	v.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), v.opts.RemoteTimeout)
	defer cancel()

	deleted, err := v.gw.DeleteNote(ctx, target)
	if err != nil {
		v.notifyError("Failed to delete note, something went wrong")
		if v.opts.RollbackFailedDeletes {
			v.deleted.Remove(noteID)
		}
		return
	}

	v.mu.Lock()
	v.generation++
	v.cache.Remove(noteID)
	delete(v.pendingIDs, noteID)
	v.rec.Forget(noteID)
	v.deleted.Remove(noteID)
	v.mu.Unlock()

	v.removeOrphanedImages(ctx, target, deleted.Content)
}

// removeOrphanedImages bulk-removes every storage file the deleted note's
// content still referenced.
func (v *View) removeOrphanedImages(ctx context.Context, noteID, content string) {
	if v.opts.Images == nil || v.opts.FileName == nil {
		return
	}
	var keys []string
	for _, src := range richtext.ImageSources(content) {
		if name := v.opts.FileName(src); name != "" {
			keys = append(keys, name)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := v.opts.Images.Remove(ctx, keys); err != nil {
		log.Printf("feed: remove images for note %s: %v", noteID, err)
	}
}

// SetEditing marks one note as in inline-edit mode; at most one can be at
// a time.
func (v *View) SetEditing(noteID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editingID = noteID
}

func (v *View) ClearEditing() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editingID = ""
}

// Render flattens the loaded pages, drops the settled deletes (the
// debounced view, so exit animations can finish first), and groups by
// day.
func (v *View) Render() Feed {
	v.mu.Lock()
	flat := v.cache.Flatten()
	visible := make([]store.Note, 0, len(flat))
	for _, note := range flat {
		if !v.deleted.Settled(note.ID) {
			visible = append(visible, note)
		}
	}
	pending := make([]string, 0, len(v.pendingIDs))
	for id := range v.pendingIDs {
		pending = append(pending, id)
	}
	out := Feed{
		Groups:      GroupByDay(visible, v.opts.Now(), v.opts.PageSize),
		HasNextPage: v.hasNext,
		Fetching:    v.fetching,
		Query:       v.query,
		EditingID:   v.editingID,
		PendingIDs:  pending,
		HiddenIDs:   v.deleted.HiddenIDs(),
	}
	v.mu.Unlock()
	return out
}

// Wait blocks until background mutations have settled.
func (v *View) Wait() {
	v.inflight.Wait()
}

// refFor tags an id as pending based on membership, not prefix sniffing.
// Callers hold v.mu.
func (v *View) refFor(noteID string) NoteRef {
	if _, ok := v.pendingIDs[noteID]; ok {
		return Pending(noteID)
	}
	return Persisted(noteID)
}

// refilter re-applies the query against tag-stripped text so matches
// inside markup do not surface.
func refilter(notes []store.Note, query string) []store.Note {
	needle := strings.ToLower(query)
	matched := make([]store.Note, 0, len(notes))
	for _, note := range notes {
		if strings.Contains(strings.ToLower(richtext.StripTags(note.Content)), needle) {
			matched = append(matched, note)
		}
	}
	return matched
}

func (v *View) notifyInfo(message string) {
	if v.opts.Notifier != nil {
		v.opts.Notifier.Info(message)
	}
}

func (v *View) notifyError(message string) {
	if v.opts.Notifier != nil {
		v.opts.Notifier.Error(message)
	}
}
