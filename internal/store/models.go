package store

import "time"

type User struct {
	ID              string
	DisplayName     string
	Email           string
	PasswordHash    string
	IsEmailVerified bool
	CreatedAt       time.Time
}

// Note is the persisted entity. Content is rich-text HTML and may embed
// <img> tags pointing at object-storage URLs.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}
