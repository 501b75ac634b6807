package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musij/internal/cache"
	"github.com/desertthunder/musij/internal/services"
	"github.com/desertthunder/musij/internal/shared"
)

// EventsHandler serves concert listings and Bandsintown artist profiles.
//
// An artist unknown to the upstream is a valid outcome here, so not-found
// maps to an empty successful listing rather than an error.
type EventsHandler struct {
	Service     *services.BandsintownService
	ReadThrough *cache.ReadThrough
	Logger      *log.Logger
}

func (h *EventsHandler) Mount(r Router) {
	r.Handle(http.MethodGet, "/events/artist/{name}", http.HandlerFunc(h.Events))
	r.Handle(http.MethodGet, "/events/artist/{name}/info", http.HandlerFunc(h.Info))
}

// Events handles GET /events/artist/{name}.
func (h *EventsHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Bandsintown")
		return
	}

	name := r.PathValue("name")
	key := cache.Key(cache.KindEvents, name)

	v, fromCache, err := h.ReadThrough.Fetch(r.Context(), key, cache.TTLEvents, func(ctx context.Context) (any, error) {
		return h.Service.ArtistEvents(ctx, name)
	})
	if errors.Is(err, shared.ErrNotFound) {
		respondEmpty(w, "No events found for this artist")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get events", err)
		return
	}

	events := v.([]services.Event)
	if len(events) == 0 {
		respondEmpty(w, "No upcoming events found")
		return
	}

	respondCached(w, events, fromCache)
}

// Info handles GET /events/artist/{name}/info.
func (h *EventsHandler) Info(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Bandsintown")
		return
	}

	artist, err := h.Service.ArtistInfo(r.Context(), r.PathValue("name"))
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get artist info", err)
		return
	}

	respondData(w, artist)
}
