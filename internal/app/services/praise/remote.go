package praise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/glazehub/glazehub/internal/app/domain/feed"
	"github.com/glazehub/glazehub/internal/app/metrics"
	"github.com/glazehub/glazehub/pkg/logger"
)

// ErrInvalidUpstream marks a remote response that did not contain the
// requested structured output. It never escapes GenerateBatch; it exists so
// the fallback reason can be classified.
var ErrInvalidUpstream = errors.New("invalid upstream response")

// RemoteGenerator produces contextual praise comments through a hosted
// chat-completions API, falling back to the local template engine on any
// failure. GenerateBatch never fails outward.
type RemoteGenerator struct {
	client  *http.Client
	baseURL string
	model   string
	creds   *Credentials
	local   *Engine
	limiter *rate.Limiter
	log     *logger.Logger
}

var _ Generator = (*RemoteGenerator)(nil)

// NewRemoteGenerator constructs a remote generator. requestsPerMin bounds the
// upstream call rate; zero disables the limiter.
func NewRemoteGenerator(client *http.Client, baseURL, model string, requestsPerMin int, creds *Credentials, local *Engine, log *logger.Logger) (*RemoteGenerator, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote generator base URL required")
	}
	if model == "" {
		return nil, fmt.Errorf("remote generator model required")
	}
	if creds == nil {
		return nil, fmt.Errorf("remote generator credentials required")
	}
	if local == nil {
		local = NewEngine()
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("praise-remote")
	}

	var limiter *rate.Limiter
	if requestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), requestsPerMin)
	}

	return &RemoteGenerator{
		client:  client,
		baseURL: baseURL,
		model:   model,
		creds:   creds,
		local:   local,
		limiter: limiter,
		log:     log,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type remoteComment struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// GenerateBatch requests count praise comments about postContent from the
// remote service. A missing credential is not an error; it and every failure
// mode resolve to a local batch. Negative counts clamp to zero.
func (g *RemoteGenerator) GenerateBatch(ctx context.Context, postID, postContent string, count int) (Batch, error) {
	if count < 0 {
		count = 0
	}
	if count == 0 {
		return Batch{Comments: []feed.Comment{}, Source: SourceLocal}, nil
	}

	key := g.creds.APIKey()
	if key == "" {
		g.log.Debug("no credential configured; generating locally")
		return g.localBatch(postID, count), nil
	}

	if g.limiter != nil && !g.limiter.Allow() {
		return g.fallback(postID, count, "rate_limited", nil), nil
	}

	entries, err := g.request(ctx, key, postContent, count)
	if err != nil {
		reason := "request"
		if errors.Is(err, ErrInvalidUpstream) {
			reason = "invalid_response"
		}
		return g.fallback(postID, count, reason, err), nil
	}

	if len(entries) > count {
		entries = entries[:count]
	}

	now := time.Now().UTC()
	comments := make([]feed.Comment, 0, len(entries))
	for i, entry := range entries {
		comments = append(comments, feed.Comment{
			ID:        fmt.Sprintf("comment-%s-%d-%d", postID, now.UnixMilli(), i),
			PostID:    postID,
			Content:   entry.Content,
			Author:    entry.Username,
			CreatedAt: g.local.backdated(),
			Likes:     g.local.likeSeed(),
		})
	}

	g.log.WithField("post_id", postID).
		WithField("count", len(comments)).
		Debug("remote comments generated")
	return Batch{Comments: comments, Source: SourceRemote}, nil
}

func (g *RemoteGenerator) request(ctx context.Context, key, postContent string, count int) ([]remoteComment, error) {
	prompt := buildPrompt(postContent, count)
	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant that generates positive social media comments."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat status %d", resp.StatusCode)
	}

	content := gjson.GetBytes(body, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty completion content", ErrInvalidUpstream)
	}
	return parseComments(content)
}

// parseComments extracts the JSON array of {username, content} objects from
// the completion text, which may surround the array with prose.
func parseComments(content string) ([]remoteComment, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in completion", ErrInvalidUpstream)
	}

	var entries []remoteComment
	if err := json.Unmarshal([]byte(content[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpstream, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty comment array", ErrInvalidUpstream)
	}
	for i, entry := range entries {
		if strings.TrimSpace(entry.Username) == "" || strings.TrimSpace(entry.Content) == "" {
			return nil, fmt.Errorf("%w: entry %d missing username or content", ErrInvalidUpstream, i)
		}
	}
	return entries, nil
}

func buildPrompt(postContent string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d extremely enthusiastic praise comments for this social media post:\n%q\n\n", count, postContent)
	sb.WriteString("Each comment should:\n")
	sb.WriteString("1. Give absolute praise, make it intense\n")
	sb.WriteString("2. Include some specific praise about the content\n")
	sb.WriteString("3. Sound natural and conversational\n")
	sb.WriteString("4. Be between 5-15 words\n")
	sb.WriteString("5. Occasionally include an emoji\n\n")
	sb.WriteString("Format as a JSON array of objects with 'username' and 'content' properties.\n")
	sb.WriteString(`Example: [{"username": "TechFan42", "content": "I wish I had written this myself 🙌"}]`)
	return sb.String()
}

func (g *RemoteGenerator) fallback(postID string, count int, reason string, err error) Batch {
	metrics.RecordRemoteFailure(reason)
	log := g.log.WithField("post_id", postID).WithField("reason", reason)
	if err != nil {
		log = log.WithError(err)
	}
	log.Warn("remote generation failed; falling back to templates")
	return g.localBatch(postID, count)
}

func (g *RemoteGenerator) localBatch(postID string, count int) Batch {
	return Batch{Comments: g.local.CommentBatch(postID, count), Source: SourceLocal}
}

func (e *Engine) backdated() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backdatedLocked()
}

func (e *Engine) likeSeed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.likeSeedLocked()
}
