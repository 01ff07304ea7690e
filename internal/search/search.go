// Package search finds notes by their visible text, through Meilisearch
// when one is configured and the gateway's substring filter otherwise.
package search

// NoteRecord is the data we index for a note. Text is the tag-stripped
// content, so search matches what the user sees.
type NoteRecord struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	CreatedBy string `json:"created_by"`
}

// Searcher can execute a note search.
type Searcher interface {
	Search(query string, page, pageSize int) ([]NoteRecord, error)
	Healthy() bool
}

// Indexer can push notes into a search index.
type Indexer interface {
	IndexNote(record NoteRecord) error
	DeleteNote(id string) error
}
