// Package memory provides the in-memory post store. It is the only store the
// application ships: feed state is deliberately scoped to one process session.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/glazehub/glazehub/internal/app/domain/feed"
	"github.com/glazehub/glazehub/internal/app/storage"
)

// Store is an in-memory implementation of storage.PostStore. It is safe for
// concurrent use. Posts are cloned on the way in and out so callers can never
// alias internal state.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[string]feed.Post
	order  []string // insertion order, newest first
}

var _ storage.PostStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID: 1,
		posts:  make(map[string]feed.Post),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func (s *Store) CreatePost(_ context.Context, post feed.Post) (feed.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = s.nextIDLocked()
	} else if _, exists := s.posts[post.ID]; exists {
		return feed.Post{}, fmt.Errorf("post %s already exists", post.ID)
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	post.Comments = cloneComments(post.Comments)

	s.posts[post.ID] = post
	s.order = append([]string{post.ID}, s.order...)
	return clonePost(post), nil
}

func (s *Store) GetPost(_ context.Context, id string) (feed.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return feed.Post{}, fmt.Errorf("%w: %s", storage.ErrPostNotFound, id)
	}
	return clonePost(post), nil
}

// ListPosts returns a snapshot of all posts sorted by CreatedAt descending.
func (s *Store) ListPosts(_ context.Context) ([]feed.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]feed.Post, 0, len(s.posts))
	for _, id := range s.order {
		result = append(result, clonePost(s.posts[id]))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) LikePost(_ context.Context, id string) (feed.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return feed.Post{}, fmt.Errorf("%w: %s", storage.ErrPostNotFound, id)
	}
	post.Likes++
	s.posts[id] = post
	return clonePost(post), nil
}

func (s *Store) LikeComment(_ context.Context, postID, commentID string) (feed.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return feed.Post{}, fmt.Errorf("%w: %s", storage.ErrPostNotFound, postID)
	}
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			post.Comments[i].Likes++
			s.posts[postID] = post
			return clonePost(post), nil
		}
	}
	return feed.Post{}, fmt.Errorf("%w: %s", storage.ErrCommentNotFound, commentID)
}

// AddComment prepends the comment to the post's sequence.
func (s *Store) AddComment(_ context.Context, postID string, comment feed.Comment) (feed.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return feed.Post{}, fmt.Errorf("%w: %s", storage.ErrPostNotFound, postID)
	}
	comment.PostID = postID
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	post.Comments = append([]feed.Comment{comment}, post.Comments...)
	s.posts[postID] = post
	return clonePost(post), nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrPostNotFound, id)
	}
	delete(s.posts, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear empties the store, guaranteeing a fresh session.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = make(map[string]feed.Post)
	s.order = nil
	return nil
}

func clonePost(post feed.Post) feed.Post {
	post.Comments = cloneComments(post.Comments)
	return post
}

func cloneComments(comments []feed.Comment) []feed.Comment {
	if comments == nil {
		return nil
	}
	return append([]feed.Comment(nil), comments...)
}
