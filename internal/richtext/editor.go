package richtext

import (
	"strings"
	"sync"

	"jotter/api/internal/util"
)

// ChangeObserver is notified after every document change. The image
// lifecycle tracker hooks in here.
type ChangeObserver interface {
	DocumentChanged(content string)
}

// Options selects the editor variant at construction time.
type Options struct {
	Placeholder string
	OnChange    func(content string)
	Observer    ChangeObserver
}

// Editor is the server-side stand-in for the rich text surface: it holds
// the draft's HTML, keeps an undo/redo history, and fans out change
// notifications. Formatting itself happens client-side; the editor
// consumes the resulting HTML or document tree.
type Editor struct {
	mu       sync.Mutex
	id       string
	opts     Options
	content  string
	history  []string
	future   []string
	editable bool
}

func NewEditor(opts Options) *Editor {
	return &Editor{
		id:       util.NewID("editor"),
		opts:     opts,
		editable: true,
	}
}

// ID identifies this editor instance; uploaded image keys are namespaced
// by it.
func (e *Editor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// SetContent replaces the document. An empty paragraph counts as empty
// content.
func (e *Editor) SetContent(content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setContent(content)
}

func (e *Editor) setContent(content string) {
	if content == "<p></p>" {
		content = ""
	}
	if content == e.content {
		return
	}
	e.history = append(e.history, e.content)
	e.future = nil
	e.content = content
	e.emit()
}

// SetDoc replaces the document from a structured tree.
func (e *Editor) SetDoc(doc Node) {
	e.SetContent(doc.ToHTML())
}

// InsertImage appends an embedded image followed by a fresh paragraph.
func (e *Editor) InsertImage(src string) {
	if src == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setContent(e.content + `<img src="` + src + `"><p></p>`)
}

func (e *Editor) Undo() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.future = append(e.future, e.content)
	e.content = last
	e.emit()
}

func (e *Editor) Redo() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.future) == 0 {
		return
	}
	next := e.future[len(e.future)-1]
	e.future = e.future[:len(e.future)-1]
	e.history = append(e.history, e.content)
	e.content = next
	e.emit()
}

func (e *Editor) Clear() {
	e.SetContent("")
}

func (e *Editor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// Text returns the visible text of the draft.
func (e *Editor) Text() string {
	return StripTags(e.HTML())
}

// IsEmpty reports whether the draft has neither visible text nor an
// embedded image. The submit control stays disabled while it is true.
func (e *Editor) IsEmpty() bool {
	content := e.HTML()
	return strings.TrimSpace(StripTags(content)) == "" && !strings.Contains(content, "<img")
}

// ActiveFormats reports the marks and block types present in the draft.
func (e *Editor) ActiveFormats() []string {
	return ActiveFormats(e.HTML())
}

// Placeholder returns the prompt shown while the draft is empty.
func (e *Editor) Placeholder() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.content != "" {
		return ""
	}
	return e.opts.Placeholder
}

func (e *Editor) SetEditable(editable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editable = editable
}

func (e *Editor) Editable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editable
}

// Reset discards the draft state and assigns a fresh editor id, so the
// next draft's uploads land under new storage keys.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.id = util.NewID("editor")
	e.content = ""
	e.history = nil
	e.future = nil
	e.emit()
}

// emit runs under e.mu; observers must not call back into the editor.
func (e *Editor) emit() {
	if e.opts.OnChange != nil {
		e.opts.OnChange(e.content)
	}
	if e.opts.Observer != nil {
		e.opts.Observer.DocumentChanged(e.content)
	}
}
