package playback

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/languages"
	"github.com/thomasarchive/archive/internal/session"
	"github.com/thomasarchive/archive/internal/validate"
)

type CatalogProvider interface {
	Snapshot(ctx context.Context, region string) *catalog.Snapshot
}

type Handler struct {
	catalog  CatalogProvider
	sessions *Sessions
}

func NewHandler(c CatalogProvider, sessions *Sessions) *Handler {
	return &Handler{catalog: c, sessions: sessions}
}

// frameResponse adds the path the browser should show via history
// replacement: the episode deep link while open, the region home when closed.
type frameResponse struct {
	Frame
	Path string `json:"path"`
}

type pointerRequest struct {
	Over bool `json:"over"`
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	player, ok := h.existing(w, r)
	if !ok {
		return
	}
	h.writeFrame(w, r, player.Current())
}

func (h *Handler) ActivateCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validate.CollectionID(id); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	region := languages.RegionFromContext(r.Context())
	snap := h.catalog.Snapshot(r.Context(), region)
	collection, found := snap.Collection(id)
	if !found {
		httputil.WriteError(w, http.StatusNotFound, "collection not found")
		return
	}
	player, ok := h.player(w, r)
	if !ok {
		return
	}
	h.activate(w, r, player, collection)
}

func (h *Handler) ActivateEpisode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	if msg := validate.EpisodeID(raw); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	id, err := deeplink.ParseID(raw)
	if err != nil {
		if id, err = deeplink.ParseCode(raw); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid episode id")
			return
		}
	}
	region := languages.RegionFromContext(r.Context())
	snap := h.catalog.Snapshot(r.Context(), region)
	collection, found := snap.EpisodeCollection(id)
	if !found {
		httputil.WriteError(w, http.StatusNotFound, "episode not found")
		return
	}
	player, ok := h.player(w, r)
	if !ok {
		return
	}
	h.activate(w, r, player, collection)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	player, ok := h.existing(w, r)
	if !ok {
		return
	}
	h.writeFrame(w, r, player.Next())
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	player, ok := h.existing(w, r)
	if !ok {
		return
	}
	h.writeFrame(w, r, player.Prev())
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	player, ok := h.existing(w, r)
	if !ok {
		return
	}
	h.writeFrame(w, r, player.Close())
}

func (h *Handler) Pointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	player, ok := h.existing(w, r)
	if !ok {
		return
	}
	h.writeFrame(w, r, player.Pointer(req.Over))
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request, player *Player, c catalog.Collection) {
	region := languages.RegionFromContext(r.Context())
	frame, err := player.Activate(r.Context(), region, c)
	switch {
	case errors.Is(err, ErrNothingPlayable):
		slog.Warn("playback: nothing playable", "collection", c.ID, "region", region)
		httputil.WriteError(w, http.StatusUnprocessableEntity, "none of this collection's episodes are available")
		return
	case errors.Is(err, ErrSuperseded):
		httputil.WriteError(w, http.StatusConflict, "playback changed while loading")
		return
	case err != nil:
		slog.Error("playback: activation failed", "collection", c.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to start playback")
		return
	}
	h.writeFrame(w, r, frame)
}

func (h *Handler) player(w http.ResponseWriter, r *http.Request) (*Player, bool) {
	sessionID := session.IDFromContext(r.Context())
	if sessionID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "missing session")
		return nil, false
	}
	return h.sessions.Player(sessionID), true
}

// existing returns the session's player for transitions that need no
// queue. A visitor who never activated anything gets a closed frame and no
// player is created.
func (h *Handler) existing(w http.ResponseWriter, r *http.Request) (*Player, bool) {
	sessionID := session.IDFromContext(r.Context())
	if sessionID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "missing session")
		return nil, false
	}
	player, ok := h.sessions.Lookup(sessionID)
	if !ok {
		h.writeFrame(w, r, Frame{State: StateClosed})
		return nil, false
	}
	return player, true
}

func (h *Handler) writeFrame(w http.ResponseWriter, r *http.Request, frame Frame) {
	region := languages.RegionFromContext(r.Context())
	resp := frameResponse{Frame: frame, Path: deeplink.Home(region)}
	if frame.State == StateOpen && frame.EpisodeID != "" {
		if id, err := deeplink.ParseID(frame.EpisodeID); err == nil {
			resp.Path = deeplink.Encode(region, id)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
