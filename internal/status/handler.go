package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thomasarchive/archive/internal/httputil"
)

const unavailableMessage = "Failed to fetch data from UptimeRobot"

type MonitorFetcher interface {
	Monitors(ctx context.Context) ([]byte, error)
}

type Handler struct {
	monitors MonitorFetcher
}

func NewHandler(monitors MonitorFetcher) *Handler {
	return &Handler{monitors: monitors}
}

// Get serves GET /api/status. Every failure is a 500 with an error body.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	body, err := h.monitors.Monitors(r.Context())
	if err != nil {
		var providerErr *ProviderError
		switch {
		case errors.Is(err, ErrNoAPIKey):
			httputil.WriteError(w, http.StatusInternalServerError, ErrNoAPIKey.Error())
		case errors.As(err, &providerErr):
			slog.Warn("status: provider returned failure", "message", providerErr.Message)
			httputil.WriteError(w, http.StatusInternalServerError, providerErr.Message)
		default:
			slog.Error("status: fetch monitors", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, unavailableMessage)
		}
		return
	}

	if r.URL.Query().Get("labels") == "1" {
		labelled, err := WithLabels(body)
		if err != nil {
			slog.Error("status: label monitors", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, unavailableMessage)
			return
		}
		body = labelled
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteRawJSON(w, http.StatusOK, body)
}
