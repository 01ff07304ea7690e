package app

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"jotter/api/internal/auth"
	"jotter/api/internal/authpw"
	"jotter/api/internal/config"
	"jotter/api/internal/feed"
	"jotter/api/internal/imagetrack"
	"jotter/api/internal/richtext"
	"jotter/api/internal/search"
	"jotter/api/internal/store"
	"jotter/api/internal/util"
)

const draftPlaceholder = "Anything on your mind..."

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	InsertUser(ctx context.Context, displayName, email, passwordHash string) (store.User, error)
	InsertNote(ctx context.Context, content, createdBy string) (store.Note, error)
	ListNotes(ctx context.Context, page, pageSize int, query string) ([]store.Note, error)
	GetNote(ctx context.Context, noteID string) (store.Note, error)
	UpdateNoteContent(ctx context.Context, noteID, content string) error
	DeleteNote(ctx context.Context, noteID string) (store.Note, error)
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens; Redis when configured, the database
// otherwise.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// blobStore is the object storage surface the app needs.
type blobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, keys []string) error
	FileName(url string) string
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	images   blobStore
	search   *search.Service
	authpw   *authpw.Service

	mu      sync.Mutex
	clients map[string]*client
}

// client is one authenticated user's feed view plus their composing
// draft: editor, image tracker, and notice queue.
type client struct {
	view    *feed.View
	editor  *richtext.Editor
	tracker *imagetrack.Tracker
	notices *noticeQueue
}

func New(cfg config.Config, dataStore dataStore, images blobStore, searchService *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		images:   images,
		search:   searchService,
		authpw:   authpw.NewService(dataStore),
		clients:  make(map[string]*client),
	}
}

func NewWithSessionStore(cfg config.Config, dataStore dataStore, sessions sessionStore, images blobStore, searchService *search.Service) *Service {
	service := New(cfg, dataStore, images, searchService)
	service.sessions = sessions
	return service
}

// Bootstrap pushes the existing notes into the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.search == nil {
		return nil
	}
	var all []store.Note
	for page := 1; page <= 50; page++ {
		notes, err := s.store.ListNotes(ctx, page, s.cfg.PageSize, "")
		if err != nil {
			return err
		}
		all = append(all, notes...)
		if len(notes) < s.cfg.PageSize {
			break
		}
	}
	s.search.ReindexAll(all)
	return nil
}

// notesGateway adapts the data store and the search service into the
// feed's remote gateway: blank queries hit the table directly, searches go
// through the facade, and writes keep the index in step.
type notesGateway struct {
	store  dataStore
	search *search.Service
}

func (g *notesGateway) ListNotes(ctx context.Context, page, pageSize int, query string) ([]store.Note, error) {
	if query == "" || g.search == nil {
		return g.store.ListNotes(ctx, page, pageSize, query)
	}
	return g.search.SearchNotes(ctx, query, page, pageSize)
}

func (g *notesGateway) InsertNote(ctx context.Context, content, createdBy string) (store.Note, error) {
	note, err := g.store.InsertNote(ctx, content, createdBy)
	if err != nil {
		return store.Note{}, err
	}
	if g.search != nil {
		g.search.IndexNote(note)
	}
	return note, nil
}

func (g *notesGateway) UpdateNoteContent(ctx context.Context, noteID, content string) error {
	if err := g.store.UpdateNoteContent(ctx, noteID, content); err != nil {
		return err
	}
	if g.search != nil {
		if note, err := g.store.GetNote(ctx, noteID); err == nil {
			g.search.IndexNote(note)
		}
	}
	return nil
}

func (g *notesGateway) DeleteNote(ctx context.Context, noteID string) (store.Note, error) {
	note, err := g.store.DeleteNote(ctx, noteID)
	if err != nil {
		return store.Note{}, err
	}
	if g.search != nil {
		g.search.DeleteNote(noteID)
	}
	return note, nil
}

func (s *Service) clientFor(userID string) *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[userID]; ok {
		return c
	}

	c := &client{notices: &noticeQueue{}}
	c.tracker = imagetrack.New(s.images.FileName)
	c.editor = richtext.NewEditor(richtext.Options{
		Placeholder: draftPlaceholder,
		Observer:    c.tracker,
	})
	c.view = feed.NewView(&notesGateway{store: s.store, search: s.search}, feed.Options{
		PageSize:              s.cfg.PageSize,
		UndoWindow:            s.cfg.UndoWindow,
		ExitDebounce:          s.cfg.ExitDebounce,
		RollbackFailedDeletes: s.cfg.RollbackFailedDeletes,
		Owner:                 userID,
		Notifier:              c.notices,
		Images:                s.images,
		FileName:              s.images.FileName,
		OnCreateError: func(content string) {
			c.editor.SetContent(content)
		},
	})
	s.clients[userID] = c
	return c
}

// Feed loads the first page for the given query (a no-op when unchanged)
// and renders the grouped view.
func (s *Service) Feed(ctx context.Context, userID, query string) (feed.Feed, error) {
	c := s.clientFor(userID)
	if err := c.view.Load(ctx, query); err != nil {
		return feed.Feed{}, err
	}
	return c.view.Render(), nil
}

// FeedMore fetches the next page; the client calls this when the scroll
// sentinel becomes visible.
func (s *Service) FeedMore(ctx context.Context, userID string) (feed.Feed, error) {
	c := s.clientFor(userID)
	if err := c.view.LoadNextPage(ctx); err != nil {
		return feed.Feed{}, err
	}
	return c.view.Render(), nil
}

// CreateNote submits the draft (or the given content) as a new note. The
// returned note is the synthetic pending row; the gateway insert finishes
// in the background.
func (s *Service) CreateNote(ctx context.Context, userID, content string) (store.Note, error) {
	c := s.clientFor(userID)

	fromDraft := content == ""
	if fromDraft {
		content = c.editor.HTML()
	}
	if feed.EmptyContent(content) {
		return store.Note{}, domainError(422, "EMPTY_NOTE", "Note content is empty", nil)
	}

	if fromDraft {
		// Submit clears the composing surface before the insert starts,
		// so a fast-failing insert's draft restore always lands after the
		// reset. Flush first so the images removed during composition are
		// deleted and the tracker baseline is empty when the cleared
		// document is observed.
		if err := c.tracker.Flush(ctx, s.images); err != nil {
			log.Printf("app: flush draft images: %v", err)
		}
		c.editor.Reset()
	}

	note, err := c.view.Create(ctx, content)
	if err != nil {
		return store.Note{}, domainError(422, "EMPTY_NOTE", "Note content is empty", nil)
	}
	return note, nil
}

func (s *Service) UpdateNote(ctx context.Context, userID, noteID, content string) error {
	if feed.EmptyContent(content) {
		return domainError(422, "EMPTY_NOTE", "Note content is empty", nil)
	}
	return s.clientFor(userID).view.Update(ctx, noteID, content)
}

// DeleteNote hides the note and returns the undo deadline.
func (s *Service) DeleteNote(userID, noteID string) time.Time {
	return s.clientFor(userID).view.Delete(noteID)
}

func (s *Service) UndoDelete(userID, noteID string) bool {
	return s.clientFor(userID).view.Undo(noteID)
}

func (s *Service) SetEditing(userID, noteID string) {
	c := s.clientFor(userID)
	if noteID == "" {
		c.view.ClearEditing()
		return
	}
	c.view.SetEditing(noteID)
}

// Draft state

type Draft struct {
	Content     string   `json:"content"`
	Placeholder string   `json:"placeholder,omitempty"`
	IsEmpty     bool     `json:"isEmpty"`
	Editable    bool     `json:"editable"`
	Formats     []string `json:"activeFormats,omitempty"`
}

func (s *Service) Draft(userID string) Draft {
	c := s.clientFor(userID)
	return Draft{
		Content:     c.editor.HTML(),
		Placeholder: c.editor.Placeholder(),
		IsEmpty:     c.editor.IsEmpty(),
		Editable:    c.editor.Editable(),
		Formats:     c.editor.ActiveFormats(),
	}
}

func (s *Service) SetDraft(userID, content string) Draft {
	c := s.clientFor(userID)
	c.editor.SetContent(content)
	return s.Draft(userID)
}

func (s *Service) SetDraftDoc(userID string, doc richtext.Node) Draft {
	c := s.clientFor(userID)
	c.editor.SetDoc(doc)
	return s.Draft(userID)
}

// DiscardDraft throws the draft away: orphaned uploads are bulk-removed
// and the editor starts over under a fresh id.
func (s *Service) DiscardDraft(ctx context.Context, userID string) error {
	c := s.clientFor(userID)
	if err := c.tracker.Flush(ctx, s.images); err != nil {
		return err
	}
	c.editor.Reset()
	return nil
}

func (s *Service) DraftUndo(userID string) Draft {
	c := s.clientFor(userID)
	c.editor.Undo()
	return s.Draft(userID)
}

func (s *Service) DraftRedo(userID string) Draft {
	c := s.clientFor(userID)
	c.editor.Redo()
	return s.Draft(userID)
}

// UploadImage stores an image under a key namespaced by the editor
// instance, embeds it into the draft, and returns its public URL. The
// editor is locked for the duration of the upload.
func (s *Service) UploadImage(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	c := s.clientFor(userID)
	key := c.editor.ID() + "-" + filename

	c.editor.SetEditable(false)
	defer c.editor.SetEditable(true)

	url, err := s.images.Upload(ctx, key, r, size, contentType)
	if err != nil {
		c.notices.Error("Failed to upload image, something went wrong")
		return "", err
	}
	c.editor.InsertImage(url)
	c.notices.Info("Image is uploaded")
	return url, nil
}

func (s *Service) Notices(userID string) []Notice {
	return s.clientFor(userID).notices.Drain()
}

// Sessions

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	user, err := s.authpw.SignUp(ctx, authpw.SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewToken()
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Ping verifies the gateway connection is alive.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
