// Package praise generates exaggerated praise comments for posts, either
// locally from sentence templates or through a hosted language model with the
// local engine as guaranteed fallback.
package praise

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glazehub/glazehub/internal/app/domain/feed"
)

// Source tags where a comment batch came from, so callers and tests can
// distinguish actual remote generation from fallback.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Batch is a generated comment sequence together with its origin.
type Batch struct {
	Comments []feed.Comment
	Source   Source
}

// Generator produces a comment batch for a post. Implementations must never
// fail outward: any internal failure resolves to a usable local batch.
type Generator interface {
	GenerateBatch(ctx context.Context, postID, postContent string, count int) (Batch, error)
}

// Generated-comment policy. The original demo used a 24h backdate window with
// 0-50 likes in one code path and 1h with 1-15 in another; this implementation
// standardises on the latter for every generated comment.
const (
	backdateWindow = time.Hour
	minLikes       = 1
	maxLikes       = 15
	emojiChance    = 0.6
)

var generatedAuthors = []string{
	"PixelPraiser",
	"JoyfulFan",
	"PositiveVibes",
	"SupportSquad",
	"KindCommenter",
	"EnthusiasticAI",
	"AIFan123",
	"AlgoEnthusiast",
	"DigitalCheerleader",
	"TechOptimist",
	"CodeAdmirer",
	"DataDreamer",
}

var emojis = []string{
	"👏", "🙌", "💯", "🔥", "✨", "❤️", "👍", "🤩", "😍", "🚀", "💪", "🌟",
}

// IsGeneratedAuthor reports whether name belongs to the fixed vocabulary used
// for locally generated comments.
func IsGeneratedAuthor(name string) bool {
	for _, author := range generatedAuthors {
		if author == name {
			return true
		}
	}
	return false
}

// Engine synthesises praise comments from fixed vocabularies and sentence
// patterns with no external I/O.
type Engine struct {
	mu   sync.Mutex
	rand *rand.Rand
}

var _ Generator = (*Engine)(nil)

// NewEngine creates a template engine with a time-seeded random source.
func NewEngine() *Engine {
	return &Engine{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Comment generates a single praise comment for the post. Every field is
// populated; duplicate texts across calls are acceptable.
func (e *Engine) Comment(postID string) feed.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commentLocked(postID)
}

// CommentBatch generates count comments sorted newest-first. Negative counts
// clamp to zero.
func (e *Engine) CommentBatch(postID string, count int) []feed.Comment {
	if count < 0 {
		count = 0
	}

	e.mu.Lock()
	comments := make([]feed.Comment, 0, count)
	for i := 0; i < count; i++ {
		comments = append(comments, e.commentLocked(postID))
	}
	e.mu.Unlock()

	sort.Sort(feed.ByCreatedAtDesc(comments))
	return comments
}

// GenerateBatch implements Generator with a purely local batch. The post
// content is ignored; templates are not context-aware.
func (e *Engine) GenerateBatch(_ context.Context, postID, _ string, count int) (Batch, error) {
	return Batch{Comments: e.CommentBatch(postID, count), Source: SourceLocal}, nil
}

func (e *Engine) commentLocked(postID string) feed.Comment {
	patterns := []func() string{
		e.exclamationLocked,
		e.personalImpactLocked,
		e.superlativeLocked,
		e.gratitudeLocked,
		e.intensifierLocked,
	}
	content := patterns[e.rand.Intn(len(patterns))]()
	if e.rand.Float64() < emojiChance {
		content += " " + emojis[e.rand.Intn(len(emojis))]
	}

	return feed.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Content:   content,
		Author:    generatedAuthors[e.rand.Intn(len(generatedAuthors))],
		CreatedAt: e.backdatedLocked(),
		Likes:     e.likeSeedLocked(),
	}
}

func (e *Engine) exclamationLocked() string {
	exclamations := []string{"Wow!", "OMG!", "Incredible!", "Yes!", "This!", "So true!"}
	adjectives := []string{"amazing", "incredible", "brilliant", "fantastic", "outstanding", "exceptional", "phenomenal"}
	return e.pickLocked(exclamations) + " This is " + e.pickLocked(adjectives) + "!"
}

func (e *Engine) personalImpactLocked() string {
	impacts := []string{"made my day", "changed my perspective", "blew my mind", "inspired me", "moved me to tears"}
	return "This just " + e.pickLocked(impacts) + "!"
}

func (e *Engine) superlativeLocked() string {
	superlatives := []string{"best", "most insightful", "most profound", "most creative", "most thought-provoking"}
	things := []string{"post", "content", "perspective", "take", "insight"}
	return "This is the " + e.pickLocked(superlatives) + " " + e.pickLocked(things) + " I've seen!"
}

func (e *Engine) gratitudeLocked() string {
	openers := []string{"Thank you", "So grateful", "Appreciate you", "Blessed"}
	reasons := []string{"sharing this", "your wisdom", "your insight", "your brilliance", "your creativity"}
	return e.pickLocked(openers) + " for " + e.pickLocked(reasons) + "!"
}

func (e *Engine) intensifierLocked() string {
	intensifiers := []string{"LITERALLY", "ABSOLUTELY", "COMPLETELY", "TOTALLY", "UTTERLY"}
	states := []string{"OBSESSED", "SPEECHLESS", "SHOOK", "FLOORED", "MESMERIZED", "TRANSFORMED"}
	return "I am " + e.pickLocked(intensifiers) + " " + e.pickLocked(states) + " by this!!!"
}

func (e *Engine) pickLocked(options []string) string {
	return options[e.rand.Intn(len(options))]
}

func (e *Engine) backdatedLocked() time.Time {
	offset := time.Duration(e.rand.Int63n(int64(backdateWindow)))
	return time.Now().UTC().Add(-offset)
}

func (e *Engine) likeSeedLocked() int {
	return minLikes + e.rand.Intn(maxLikes-minLikes+1)
}

// IntBetween returns a uniform random value in [min,max]. The feed service
// uses it for seed like counts and comment counts so all randomness in the
// system flows through one seeded source.
func (e *Engine) IntBetween(min, max int) int {
	if max < min {
		min, max = max, min
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return min + e.rand.Intn(max-min+1)
}
