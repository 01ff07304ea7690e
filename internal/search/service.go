package search

import (
	"context"
	"log"
	"time"

	"jotter/api/internal/richtext"
	"jotter/api/internal/store"
)

// Lister is the gateway fallback: the notes table's own substring filter.
type Lister interface {
	ListNotes(ctx context.Context, page, pageSize int, query string) ([]store.Note, error)
}

// Service is the facade that tries Meilisearch first and falls back to
// the gateway filter.
type Service struct {
	meili    *Meili
	fallback Lister
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, fallback Lister) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// SearchNotes returns one page of matching notes, newest first.
func (s *Service) SearchNotes(ctx context.Context, query string, page, pageSize int) ([]store.Note, error) {
	if s.meili != nil && s.meili.Healthy() {
		records, err := s.meili.Search(query, page, pageSize)
		if err == nil {
			notes := make([]store.Note, 0, len(records))
			for _, record := range records {
				notes = append(notes, store.Note{
					ID:        record.ID,
					Content:   record.Content,
					CreatedAt: time.Unix(record.CreatedAt, 0),
					CreatedBy: record.CreatedBy,
				})
			}
			return notes, nil
		}
		log.Printf("search: meilisearch error, falling back to gateway filter: %v", err)
	}
	return s.fallback.ListNotes(ctx, page, pageSize, query)
}

// IndexNote indexes a note (fire-and-forget to Meilisearch).
func (s *Service) IndexNote(note store.Note) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexNote(recordFor(note)); err != nil {
			log.Printf("search: index note %s: %v", note.ID, err)
		}
	}()
}

// DeleteNote removes a note from the search index (fire-and-forget).
func (s *Service) DeleteNote(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteNote(id); err != nil {
			log.Printf("search: delete note %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes every note into Meilisearch, used at bootstrap when
// the index is empty or stale.
func (s *Service) ReindexAll(notes []store.Note) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	records := make([]NoteRecord, 0, len(notes))
	for _, note := range notes {
		records = append(records, recordFor(note))
	}
	if err := s.meili.IndexNotes(records); err != nil {
		log.Printf("search: reindex notes: %v", err)
	}
}

func recordFor(note store.Note) NoteRecord {
	return NoteRecord{
		ID:        note.ID,
		Content:   note.Content,
		Text:      richtext.StripTags(note.Content),
		CreatedAt: note.CreatedAt.Unix(),
		CreatedBy: note.CreatedBy,
	}
}
