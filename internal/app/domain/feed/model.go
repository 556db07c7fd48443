// Package feed defines the post and comment domain model.
package feed

import "time"

// Post is a user-authored feed entry with engagement metrics and attached
// comments. Comments are ordered newest-first.
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Comments  []Comment `json:"comments"`
}

// Comment is a reply attached to a post, either user-authored or generated.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
}

// ByCreatedAtDesc sorts comments newest-first.
type ByCreatedAtDesc []Comment

func (o ByCreatedAtDesc) Len() int           { return len(o) }
func (o ByCreatedAtDesc) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o ByCreatedAtDesc) Less(i, j int) bool { return o[i].CreatedAt.After(o[j].CreatedAt) }
