// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flexreviews/internal/app"
)

// The only registered review provider. The path keeps a {provider}
// segment so further integrations slot in without an API change.
const providerHostaway = "hostaway"

type Handlers struct {
	Reviews      *app.ReviewService
	Auth         *app.AuthService
	AuthRequired bool
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/reviews/{provider}", h.getReviews)
		if h.AuthRequired {
			r.With(RequireAuth(h.Auth)).Post("/reviews/{provider}", h.updateApprovals)
		} else {
			r.Post("/reviews/{provider}", h.updateApprovals)
		}
		r.Get("/properties", h.listProperties)
		r.Get("/properties/{listing}/reviews", h.propertyReviews)
		r.Get("/stats/trend", h.ratingTrend)
		r.Post("/auth/login", h.login)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func knownProvider(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "provider") != providerHostaway {
		writeProblem(w, http.StatusNotFound, "Unknown Provider", "no such review provider")
		return false
	}
	return true
}

// GET /api/reviews/{provider}
// Never fails for the registered provider: upstream errors are absorbed
// into the fallback dataset and reported via the source tag.
func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	if !knownProvider(w, r) {
		return
	}
	data, source := h.Reviews.GetReviews(r.Context())
	writeWithETag(w, r, map[string]any{"success": true, "data": data, "source": source})
}

// POST /api/reviews/{provider}
// Body is either {id, approved} or [{id, approved}, ...]. A body that is
// not JSON at all is rejected with 400; inside a parsed batch, entries
// that fail the id/approved type check are skipped, each valid entry is
// applied independently.
func (h *Handlers) updateApprovals(w http.ResponseWriter, r *http.Request) {
	if !knownProvider(w, r) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "unreadable request body"})
		return
	}

	entries, err := parseApprovalBody(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	h.Reviews.SetApprovals(r.Context(), entries)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": h.Reviews.Overrides()})
}

func parseApprovalBody(body []byte) ([]app.Approval, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty request body")
	}

	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.New("body must be valid JSON")
		}
	} else {
		if !json.Valid(trimmed) {
			return nil, errors.New("body must be valid JSON")
		}
		items = []json.RawMessage{trimmed}
	}

	out := make([]app.Approval, 0, len(items))
	for _, item := range items {
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil {
			continue // non-object entry: skip, don't reject the batch
		}
		id, ok := m["id"].(float64)
		if !ok || id != math.Trunc(id) {
			continue
		}
		approved, ok := m["approved"].(bool)
		if !ok {
			continue
		}
		out = append(out, app.Approval{ID: int64(id), Approved: approved})
	}
	return out, nil
}

// GET /api/properties returns per-listing aggregates for the dashboard.
func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	data, source := h.Reviews.GetReviews(r.Context())
	writeWithETag(w, r, map[string]any{"success": true, "data": app.Summarize(data), "source": source})
}

// GET /api/properties/{listing}/reviews is the public property page
// feed, approved reviews only.
func (h *Handlers) propertyReviews(w http.ResponseWriter, r *http.Request) {
	listing := chi.URLParam(r, "listing")
	data, source := h.Reviews.GetReviews(r.Context())
	writeWithETag(w, r, map[string]any{
		"success": true,
		"data":    app.ApprovedForListing(data, listing),
		"source":  source,
	})
}

// GET /api/stats/trend returns monthly approved-rating averages.
func (h *Handlers) ratingTrend(w http.ResponseWriter, r *http.Request) {
	data, source := h.Reviews.GetReviews(r.Context())
	writeWithETag(w, r, map[string]any{"success": true, "data": app.MonthlyTrend(data), "source": source})
}

// POST /api/auth/login
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "body must be valid JSON"})
		return
	}
	tok, expires, err := h.Auth.Login(creds.Username, creds.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     tok,
		"expiresAt": expires.UnixMilli(),
	})
}
