// Package engagement animates a post's displayed metrics after creation so a
// feed item appears to gather likes and comments organically. Simulators work
// on a display-state copy and never write to the post store.
package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/glazehub/glazehub/internal/app/domain/feed"
	"github.com/glazehub/glazehub/internal/app/services/praise"
	"github.com/glazehub/glazehub/pkg/logger"
)

// State describes the simulator lifecycle: Idle until started, Running while
// either ramp is active, Settled once both ramps have finished.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSettled State = "settled"
)

// Config controls ramp pacing and ceilings.
type Config struct {
	LikeInterval    time.Duration
	CommentInterval time.Duration
	LikeTarget      int
	CommentTarget   int
}

func (c *Config) normalize() {
	if c.LikeInterval <= 0 {
		c.LikeInterval = time.Second
	}
	if c.CommentInterval <= 0 {
		c.CommentInterval = 2 * time.Second
	}
	if c.LikeTarget <= 0 {
		c.LikeTarget = 200
	}
	if c.CommentTarget <= 0 {
		c.CommentTarget = 15
	}
}

// Snapshot is the polled display state of one simulator.
type Snapshot struct {
	PostID     string         `json:"post_id"`
	State      State          `json:"state"`
	Likes      int            `json:"likes"`
	LikeTarget int            `json:"like_target"`
	Comments   []feed.Comment `json:"comments"`
}

// Simulator ramps one post's displayed like count and progressively reveals
// pre-generated comments over a bounded window.
type Simulator struct {
	postID string
	gen    *praise.Engine
	cfg    Config
	log    *logger.Logger

	mu           sync.Mutex
	state        State
	likes        int
	likeTarget   int
	comments     []feed.Comment
	backlog      []feed.Comment
	likesDone    bool
	commentsDone bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewSimulator seeds a simulator from the post's current state. The like
// ceiling is max(cfg.LikeTarget, post likes); the comment ceiling is
// max(cfg.CommentTarget, current comment count).
func NewSimulator(post feed.Post, gen *praise.Engine, cfg Config, log *logger.Logger) *Simulator {
	if gen == nil {
		gen = praise.NewEngine()
	}
	if log == nil {
		log = logger.NewDefault("engagement")
	}
	cfg.normalize()

	likeTarget := cfg.LikeTarget
	if post.Likes > likeTarget {
		likeTarget = post.Likes
	}

	return &Simulator{
		postID:     post.ID,
		gen:        gen,
		cfg:        cfg,
		log:        log.WithField("post_id", post.ID),
		state:      StateIdle,
		likes:      post.Likes,
		likeTarget: likeTarget,
		comments:   append([]feed.Comment(nil), post.Comments...),
	}
}

// Start begins both ramp processes. Starting an already running or settled
// simulator is a no-op.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil
	}

	// Pre-generate the full comment backlog up front; the ticker only
	// reveals items from it.
	remaining := s.cfg.CommentTarget - len(s.comments)
	if remaining > 0 {
		s.backlog = s.gen.CommentBatch(s.postID, remaining)
	}

	s.likesDone = s.likes >= s.likeTarget
	s.commentsDone = len(s.backlog) == 0
	if s.likesDone && s.commentsDone {
		s.state = StateSettled
		s.mu.Unlock()
		return nil
	}
	s.state = StateRunning

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if !s.likesDone {
		s.wg.Add(1)
		go s.likeRamp(runCtx)
	}
	if !s.commentsDone {
		s.wg.Add(1)
		go s.commentRamp(runCtx)
	}
	s.mu.Unlock()

	s.log.Debug("engagement simulation started")
	return nil
}

// Stop cancels both ramp processes immediately and waits for them to exit, so
// no timer can mutate state after teardown. A stopped simulator reports the
// settled state even when its ramps never reached their targets.
func (s *Simulator) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	if s.state == StateRunning {
		s.state = StateSettled
	}
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current display state. Settled is observable only by
// polling; there is no completion callback.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		PostID:     s.postID,
		State:      s.state,
		Likes:      s.likes,
		LikeTarget: s.likeTarget,
		Comments:   append([]feed.Comment(nil), s.comments...),
	}
}

func (s *Simulator) likeRamp(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.LikeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.likes < s.likeTarget {
				s.likes += s.gen.IntBetween(1, 3)
				if s.likes > s.likeTarget {
					s.likes = s.likeTarget
				}
			}
			finished := s.likes >= s.likeTarget
			if finished {
				s.likesDone = true
				s.settleLocked()
			}
			s.mu.Unlock()
			if finished {
				return
			}
		}
	}
}

func (s *Simulator) commentRamp(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.CommentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if len(s.backlog) > 0 {
				next := s.backlog[0]
				s.backlog = s.backlog[1:]
				s.comments = append(s.comments, next)
			}
			finished := len(s.backlog) == 0
			if finished {
				s.commentsDone = true
				s.settleLocked()
			}
			s.mu.Unlock()
			if finished {
				return
			}
		}
	}
}

func (s *Simulator) settleLocked() {
	if s.likesDone && s.commentsDone {
		s.state = StateSettled
		s.log.Debug("engagement simulation settled")
	}
}
