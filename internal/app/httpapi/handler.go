// Package httpapi exposes the feed services as a JSON REST API. It is the
// producing interface of the system: user content is validated and capped
// here before it reaches the feed service.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	app "github.com/glazehub/glazehub/internal/app"
	"github.com/glazehub/glazehub/internal/app/services/feed"
	"github.com/glazehub/glazehub/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the feed REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/posts", h.posts)
	mux.HandleFunc("/posts/", h.postResources)
	mux.HandleFunc("/settings/remote", h.remoteSettings)
	mux.HandleFunc("/healthz", h.health)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) posts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		content := strings.TrimSpace(payload.Content)
		if content == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("content is required"))
			return
		}
		if utf8.RuneCountInString(content) > feed.MaxContentLength {
			writeError(w, http.StatusBadRequest, fmt.Errorf("content exceeds %d characters", feed.MaxContentLength))
			return
		}

		post, err := h.app.Feed.CreatePost(r.Context(), content)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, post)

	case http.MethodGet:
		posts, err := h.app.Feed.ListPosts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)

	case http.MethodDelete:
		if err := h.app.Feed.Clear(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) postResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/posts"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	postID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			post, err := h.app.Feed.GetPost(r.Context(), postID)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, post)
		case http.MethodDelete:
			if err := h.app.Feed.DeletePost(r.Context(), postID); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "like":
		h.likePost(w, r, postID)
	case "comments":
		h.postComments(w, r, postID, parts[2:])
	case "engagement":
		h.postEngagement(w, r, postID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) likePost(w http.ResponseWriter, r *http.Request, postID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	post, err := h.app.Feed.LikePost(r.Context(), postID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *handler) postComments(w http.ResponseWriter, r *http.Request, postID string, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Content string `json:"content"`
			Author  string `json:"author"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(payload.Content) == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("content is required"))
			return
		}

		post, err := h.app.Feed.AddComment(r.Context(), postID, payload.Content, payload.Author)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
		return
	}

	if len(rest) == 2 && rest[1] == "like" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		post, err := h.app.Feed.LikeComment(r.Context(), postID, rest[0])
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, post)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) postEngagement(w http.ResponseWriter, r *http.Request, postID string) {
	switch r.Method {
	case http.MethodPost:
		post, err := h.app.Feed.GetPost(r.Context(), postID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		sim, err := h.app.Engagement.Mount(post)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, sim.Snapshot())

	case http.MethodGet:
		sim, ok := h.app.Engagement.Get(postID)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no engagement simulation for post %s", postID))
			return
		}
		writeJSON(w, http.StatusOK, sim.Snapshot())

	case http.MethodDelete:
		if err := h.app.Engagement.Unmount(r.Context(), postID); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) remoteSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeRemoteSettings(w)

	case http.MethodPut:
		var payload struct {
			Enabled *bool   `json:"enabled"`
			APIKey  *string `json:"api_key"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.APIKey != nil {
			if err := h.app.Feed.SetCredential(*payload.APIKey); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
		if payload.Enabled != nil {
			h.app.Feed.SetRemoteEnabled(*payload.Enabled)
		}
		h.writeRemoteSettings(w)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) writeRemoteSettings(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":               h.app.Feed.RemoteEnabled(),
		"credential_configured": h.app.Feed.CredentialConfigured(),
		"api_key_masked":        h.app.Feed.CredentialMasked(),
	})
}

func statusFor(err error) int {
	if errors.Is(err, storage.ErrPostNotFound) || errors.Is(err, storage.ErrCommentNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
