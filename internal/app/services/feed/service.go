// Package feed implements the post store service: the central authority for
// post and comment state within one process session.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/glazehub/glazehub/internal/app/domain/feed"
	"github.com/glazehub/glazehub/internal/app/metrics"
	"github.com/glazehub/glazehub/internal/app/services/praise"
	"github.com/glazehub/glazehub/internal/app/storage"
	"github.com/glazehub/glazehub/pkg/logger"
)

// MaxContentLength is the post content cap enforced by the producing
// interface (the HTTP handler), mirrored here for callers embedding the
// service directly.
const MaxContentLength = 280

// Config bounds the randomised values assigned at post creation.
type Config struct {
	Author       string
	MinComments  int
	MaxComments  int
	MinSeedLikes int
	MaxSeedLikes int
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Author) == "" {
		c.Author = "RealUser"
	}
	if c.MinComments <= 0 {
		c.MinComments = 3
	}
	if c.MaxComments < c.MinComments {
		c.MaxComments = c.MinComments + 4
	}
	if c.MinSeedLikes <= 0 {
		c.MinSeedLikes = 5
	}
	if c.MaxSeedLikes < c.MinSeedLikes {
		c.MaxSeedLikes = c.MinSeedLikes + 25
	}
}

// Service orchestrates post creation and comment generation over an injected
// post store.
type Service struct {
	store  storage.PostStore
	remote praise.Generator
	local  *praise.Engine
	creds  *praise.Credentials
	cfg    Config
	log    *logger.Logger

	mu            sync.RWMutex
	remoteEnabled bool
}

// New constructs a feed service. remote may be nil, in which case generation
// is always local regardless of the remote flag.
func New(store storage.PostStore, remote praise.Generator, local *praise.Engine, creds *praise.Credentials, cfg Config, log *logger.Logger) *Service {
	if local == nil {
		local = praise.NewEngine()
	}
	if log == nil {
		log = logger.NewDefault("feed")
	}
	cfg.normalize()
	return &Service{
		store:  store,
		remote: remote,
		local:  local,
		creds:  creds,
		cfg:    cfg,
		log:    log,
	}
}

// SetRemoteEnabled toggles remote comment generation for subsequent posts.
func (s *Service) SetRemoteEnabled(enabled bool) {
	s.mu.Lock()
	s.remoteEnabled = enabled
	s.mu.Unlock()
	s.log.WithField("enabled", enabled).Info("remote generation flag updated")
}

// RemoteEnabled reports whether remote generation is currently requested.
func (s *Service) RemoteEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteEnabled
}

// SetCredential stores the remote API credential. An empty value clears it.
func (s *Service) SetCredential(key string) error {
	if s.creds == nil {
		return fmt.Errorf("credential storage not configured")
	}
	return s.creds.Set(key)
}

// CredentialConfigured reports whether a remote credential is present.
func (s *Service) CredentialConfigured() bool {
	return s.creds != nil && s.creds.Configured()
}

// CredentialMasked returns a redacted form of the stored credential for
// display, or "" when none is configured.
func (s *Service) CredentialMasked() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.Masked()
}

// CreatePost creates a post from user content and immediately populates it
// with a generated comment batch. The post always comes back fully populated;
// generation failures degrade to template comments, never to an error.
func (s *Service) CreatePost(ctx context.Context, content string) (domain.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Post{}, fmt.Errorf("content is required")
	}

	post := domain.Post{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    s.cfg.Author,
		CreatedAt: time.Now().UTC(),
		Likes:     s.local.IntBetween(s.cfg.MinSeedLikes, s.cfg.MaxSeedLikes),
	}

	count := s.local.IntBetween(s.cfg.MinComments, s.cfg.MaxComments)
	batch := s.generate(ctx, post.ID, content, count)
	post.Comments = batch.Comments

	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}

	metrics.RecordPostCreated()
	metrics.RecordCommentGeneration(string(batch.Source), len(batch.Comments))
	s.log.WithField("post_id", created.ID).
		WithField("comments", len(created.Comments)).
		WithField("source", string(batch.Source)).
		Info("post created")
	return created, nil
}

// generate resolves the comment batch for a new post. The remote generator
// already guarantees a local fallback; the error guard here is defence in
// depth so post creation survives even a misbehaving generator.
func (s *Service) generate(ctx context.Context, postID, content string, count int) praise.Batch {
	if s.RemoteEnabled() && s.remote != nil {
		batch, err := s.remote.GenerateBatch(ctx, postID, content, count)
		if err == nil {
			return batch
		}
		s.log.WithError(err).WithField("post_id", postID).
			Warn("comment generation errored; using template engine")
	}
	return praise.Batch{Comments: s.local.CommentBatch(postID, count), Source: praise.SourceLocal}
}

// ListPosts returns all posts sorted by creation time descending.
func (s *Service) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.store.ListPosts(ctx)
}

// GetPost returns a single post by id.
func (s *Service) GetPost(ctx context.Context, id string) (domain.Post, error) {
	return s.store.GetPost(ctx, id)
}

// LikePost increments a post's like count by one. Like counts only increase;
// there is no unlike operation.
func (s *Service) LikePost(ctx context.Context, id string) (domain.Post, error) {
	return s.store.LikePost(ctx, id)
}

// LikeComment increments one comment's like count, leaving siblings untouched.
func (s *Service) LikeComment(ctx context.Context, postID, commentID string) (domain.Post, error) {
	return s.store.LikeComment(ctx, postID, commentID)
}

// AddComment prepends a user-authored comment to the post.
func (s *Service) AddComment(ctx context.Context, postID, content, author string) (domain.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Post{}, fmt.Errorf("content is required")
	}
	if strings.TrimSpace(author) == "" {
		author = s.cfg.Author
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Content:   content,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}
	return s.store.AddComment(ctx, postID, comment)
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	return s.store.DeletePost(ctx, id)
}

// Clear empties the store for a fresh session.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.log.Info("post store cleared")
	return nil
}
