package storage

import (
	"context"
	"errors"

	"github.com/glazehub/glazehub/internal/app/domain/feed"
)

// Sentinel errors shared by store implementations so callers can map them to
// transport-level responses with errors.Is.
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// PostStore persists posts and their comments for one process session.
type PostStore interface {
	CreatePost(ctx context.Context, post feed.Post) (feed.Post, error)
	GetPost(ctx context.Context, id string) (feed.Post, error)
	ListPosts(ctx context.Context) ([]feed.Post, error)
	LikePost(ctx context.Context, id string) (feed.Post, error)
	LikeComment(ctx context.Context, postID, commentID string) (feed.Post, error)
	AddComment(ctx context.Context, postID string, comment feed.Comment) (feed.Post, error)
	DeletePost(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// CredentialStore persists the remote generator credential across sessions.
type CredentialStore interface {
	Load() (string, error)
	Save(credential string) error
}
