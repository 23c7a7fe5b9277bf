package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plst/internal/formatter"
	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/services"
	"github.com/desertthunder/plst/internal/shared"
)

// HealthCheck is one dependency probed by [HealthHandler].
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports whether the service and its dependencies respond.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a health endpoint running checks on every request.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Routes implements [Handler].
func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, code := map[string]string{"status": "ok"}, http.StatusOK
	for _, c := range h.checks {
		if err := c.Check(r.Context()); err != nil {
			status[c.Name] = err.Error()
			status["status"], code = "degraded", http.StatusServiceUnavailable
			continue
		}
		status[c.Name] = "ok"
	}
	writeJSON(w, code, status)
}

// PlaylistHandler serves the playlist API.
type PlaylistHandler struct {
	svc    *services.PlaylistService
	logger *log.Logger
	mux    *http.ServeMux
	routes []string
}

// NewPlaylistHandler creates the handler for all /api/playlists routes.
func NewPlaylistHandler(svc *services.PlaylistService, logger *log.Logger) *PlaylistHandler {
	h := &PlaylistHandler{svc: svc, logger: logger, mux: http.NewServeMux()}

	h.route("GET /api/playlists", h.list)
	h.route("POST /api/playlists", h.create)
	h.route("GET /api/playlists/{id}", h.get)
	h.route("PUT /api/playlists/{id}", h.update)
	h.route("DELETE /api/playlists/{id}", h.delete)
	h.route("GET /api/playlists/{id}/songs", h.songs)
	h.route("POST /api/playlists/{id}/songs", h.appendSong)
	h.route("DELETE /api/playlists/{id}/songs/{nodeId}", h.removeNode)
	h.route("POST /api/playlists/{id}/reorder", h.moveNode)
	h.route("GET /api/playlists/{id}/export", h.export)

	return h
}

func (h *PlaylistHandler) route(pattern string, fn http.HandlerFunc) {
	h.mux.HandleFunc(pattern, fn)
	h.routes = append(h.routes, pattern)
}

// Routes implements [Handler].
func (h *PlaylistHandler) Routes() []string {
	return h.routes
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// fail logs server faults with the underlying error before writing the response.
func (h *PlaylistHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) >= 500 {
		h.logger.Error("request error", "request_id", RequestID(r.Context()), "path", r.URL.Path, "err", err)
	}
	writeError(w, r, err)
}

func (h *PlaylistHandler) list(w http.ResponseWriter, r *http.Request) {
	q := services.ListQuery{Tag: r.URL.Query().Get("tag")}
	if public := r.URL.Query().Get("public"); public != "" {
		v, err := strconv.ParseBool(public)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: public must be a boolean", shared.ErrInvalidArgument))
			return
		}
		q.Public = v
	}

	playlists, err := h.svc.ListPlaylists(r.Context(), UserID(r.Context()), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var attrs models.PlaylistAttrs
	if err := decodeJSON(r, &attrs); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.svc.CreatePlaylist(r.Context(), userID, attrs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetPlaylist(r.Context(), r.PathValue("id"), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PlaylistHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var attrs models.PlaylistAttrs
	if err := decodeJSON(r, &attrs); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.svc.UpdatePlaylist(r.Context(), r.PathValue("id"), userID, attrs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.DeletePlaylist(r.Context(), r.PathValue("id"), userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistHandler) songs(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.GetOrderedSongs(r.Context(), r.PathValue("id"), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": refs})
}

type appendRequest struct {
	SongID string `json:"song_id"`
}

func (h *PlaylistHandler) appendSong(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req appendRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.svc.AppendSong(r.Context(), r.PathValue("id"), userID, req.SongID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PlaylistHandler) removeNode(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.svc.RemoveNode(r.Context(), r.PathValue("id"), userID, r.PathValue("nodeId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type reorderRequest struct {
	NodeID   string `json:"node_id"`
	NewIndex *int   `json:"new_index"`
}

func (h *PlaylistHandler) moveNode(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.NodeID == "" || req.NewIndex == nil {
		h.fail(w, r, fmt.Errorf("%w: node_id and new_index are required", shared.ErrMissingArgument))
		return
	}

	p, err := h.svc.MoveNode(r.Context(), r.PathValue("id"), userID, req.NodeID, *req.NewIndex)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlaylistHandler) export(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.svc.GetPlaylist(r.Context(), r.PathValue("id"), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := formatter.Render(format, view.Playlist, view.Songs)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, view.Playlist.ID, format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// NewAPI assembles the router with logging, recovery, rate limiting and authentication in front of every route.
func NewAPI(cfg shared.ServerConfig, verifier *TokenVerifier, svc *services.PlaylistService, logger *log.Logger, checks ...HealthCheck) *BasicRouter {
	router := NewBasicRouter()
	router.Use(
		RequestLogging(logger),
		Recovery(logger),
		RateLimit(cfg.RateLimit, cfg.RateBurst),
		Authenticate(verifier),
	)
	router.Handler(NewHealthHandler(checks...))
	router.Handler(NewPlaylistHandler(svc, logger))
	return router
}
