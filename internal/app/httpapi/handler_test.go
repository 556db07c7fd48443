package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/glazehub/glazehub/internal/app"
	domain "github.com/glazehub/glazehub/internal/app/domain/feed"
	"github.com/glazehub/glazehub/internal/app/services/engagement"
	"github.com/glazehub/glazehub/internal/config"
	"github.com/glazehub/glazehub/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, ShutdownTimeout: time.Second},
		Remote: config.RemoteConfig{
			BaseURL:        "http://127.0.0.1:0", // never dialled: no credential is configured
			Model:          "gpt-4",
			CredentialFile: filepath.Join(t.TempDir(), "credential"),
			RequestTimeout: time.Second,
			RequestsPerMin: 20,
		},
		Feed: config.FeedConfig{
			Author:       "RealUser",
			MinComments:  3,
			MaxComments:  7,
			MinSeedLikes: 5,
			MaxSeedLikes: 30,
		},
		Engagement: config.EngagementConfig{
			LikeInterval:    time.Millisecond,
			CommentInterval: time.Millisecond,
			LikeTarget:      10,
			CommentTarget:   5,
		},
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewDefault("httpapi-test")
	log.SetOutput(io.Discard)

	application, err := app.New(testConfig(t), app.Stores{}, log)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start application: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = application.Stop(ctx)
	})
	return NewHandler(application)
}

func do(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHandlerPostLifecycle(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(t, handler, http.MethodPost, "/posts", map[string]string{"content": "hello feed"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status %d, body %s", rec.Code, rec.Body.String())
	}
	var post domain.Post
	decode(t, rec, &post)
	if post.ID == "" || post.Content != "hello feed" {
		t.Fatalf("unexpected post: %+v", post)
	}
	if len(post.Comments) < 3 {
		t.Fatalf("post created with %d comments, want at least 3", len(post.Comments))
	}

	rec = do(t, handler, http.MethodGet, "/posts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list posts: status %d", rec.Code)
	}
	var posts []domain.Post
	decode(t, rec, &posts)
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Fatalf("unexpected feed: %+v", posts)
	}

	rec = do(t, handler, http.MethodGet, "/posts/"+post.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post: status %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/posts/"+post.ID+"/like", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like post: status %d", rec.Code)
	}
	var liked domain.Post
	decode(t, rec, &liked)
	if liked.Likes != post.Likes+1 {
		t.Fatalf("likes = %d, want %d", liked.Likes, post.Likes+1)
	}

	target := post.Comments[0]
	rec = do(t, handler, http.MethodPost, fmt.Sprintf("/posts/%s/comments/%s/like", post.ID, target.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like comment: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodPost, "/posts/"+post.ID+"/comments", map[string]string{"content": "love this", "author": "Visitor"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add comment: status %d, body %s", rec.Code, rec.Body.String())
	}
	var commented domain.Post
	decode(t, rec, &commented)
	if commented.Comments[0].Content != "love this" || commented.Comments[0].Author != "Visitor" {
		t.Fatalf("comment not prepended: %+v", commented.Comments[0])
	}

	rec = do(t, handler, http.MethodDelete, "/posts/"+post.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete post: status %d", rec.Code)
	}
	rec = do(t, handler, http.MethodGet, "/posts/"+post.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted post: status %d, want 404", rec.Code)
	}
}

func TestHandlerValidation(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(t, handler, http.MethodPost, "/posts", map[string]string{"content": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank content: status %d, want 400", rec.Code)
	}

	long := strings.Repeat("x", 281)
	rec = do(t, handler, http.MethodPost, "/posts", map[string]string{"content": long})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized content: status %d, want 400", rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/posts", map[string]string{"content": "ok", "extra": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status %d, want 400", rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/posts/does-not-exist/like", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("like missing post: status %d, want 404", rec.Code)
	}

	rec = do(t, handler, http.MethodPatch, "/posts", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("bad method: status %d, want 405", rec.Code)
	}
}

func TestHandlerClearFeed(t *testing.T) {
	handler := newTestHandler(t)

	for i := 0; i < 2; i++ {
		rec := do(t, handler, http.MethodPost, "/posts", map[string]string{"content": fmt.Sprintf("post %d", i)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create post: status %d", rec.Code)
		}
	}

	rec := do(t, handler, http.MethodDelete, "/posts", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear feed: status %d", rec.Code)
	}

	rec = do(t, handler, http.MethodGet, "/posts", nil)
	var posts []domain.Post
	decode(t, rec, &posts)
	if len(posts) != 0 {
		t.Fatalf("feed not empty after clear: %d posts", len(posts))
	}
}

func TestHandlerEngagement(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(t, handler, http.MethodPost, "/posts", map[string]string{"content": "engage me"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status %d", rec.Code)
	}
	var post domain.Post
	decode(t, rec, &post)

	rec = do(t, handler, http.MethodGet, "/posts/"+post.ID+"/engagement", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unmounted engagement: status %d, want 404", rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/posts/"+post.ID+"/engagement", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mount engagement: status %d, body %s", rec.Code, rec.Body.String())
	}
	var snap engagement.Snapshot
	decode(t, rec, &snap)
	if snap.PostID != post.ID {
		t.Fatalf("snapshot for %q, want %q", snap.PostID, post.ID)
	}
	if snap.State == engagement.StateIdle {
		t.Fatalf("snapshot state = %s after mount", snap.State)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = do(t, handler, http.MethodGet, "/posts/"+post.ID+"/engagement", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("poll engagement: status %d", rec.Code)
		}
		decode(t, rec, &snap)
		if snap.State == engagement.StateSettled {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("engagement never settled: %+v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Likes != snap.LikeTarget {
		t.Fatalf("settled at %d likes, want target %d", snap.Likes, snap.LikeTarget)
	}

	rec = do(t, handler, http.MethodDelete, "/posts/"+post.ID+"/engagement", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unmount engagement: status %d", rec.Code)
	}
	rec = do(t, handler, http.MethodGet, "/posts/"+post.ID+"/engagement", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("engagement after unmount: status %d, want 404", rec.Code)
	}
}

func TestHandlerRemoteSettings(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(t, handler, http.MethodGet, "/settings/remote", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings: status %d", rec.Code)
	}
	var settings struct {
		Enabled              bool   `json:"enabled"`
		CredentialConfigured bool   `json:"credential_configured"`
		APIKeyMasked         string `json:"api_key_masked"`
	}
	decode(t, rec, &settings)
	if settings.Enabled || settings.CredentialConfigured || settings.APIKeyMasked != "" {
		t.Fatalf("unexpected initial settings: %+v", settings)
	}

	enabled := true
	key := "sk-test-key"
	rec = do(t, handler, http.MethodPut, "/settings/remote", map[string]interface{}{"enabled": enabled, "api_key": key})
	if rec.Code != http.StatusOK {
		t.Fatalf("put settings: status %d, body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &settings)
	if !settings.Enabled || !settings.CredentialConfigured {
		t.Fatalf("settings not applied: %+v", settings)
	}
	if settings.APIKeyMasked != "sk-...-key" {
		t.Fatalf("masked key = %q, want %q", settings.APIKeyMasked, "sk-...-key")
	}
	if strings.Contains(settings.APIKeyMasked, key) {
		t.Fatal("settings response leaks the full credential")
	}

	// Clearing the key leaves the flag alone.
	rec = do(t, handler, http.MethodPut, "/settings/remote", map[string]interface{}{"api_key": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear key: status %d", rec.Code)
	}
	decode(t, rec, &settings)
	if !settings.Enabled || settings.CredentialConfigured || settings.APIKeyMasked != "" {
		t.Fatalf("unexpected settings after clearing key: %+v", settings)
	}
}

func TestHandlerHealth(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	var status map[string]string
	decode(t, rec, &status)
	if status["status"] != "ok" {
		t.Fatalf("health body: %v", status)
	}
}
