package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musij/internal/cache"
	"github.com/desertthunder/musij/internal/services"
	"github.com/desertthunder/musij/internal/shared"
)

// LyricsHandler serves Genius song search, song detail and artist lookups.
type LyricsHandler struct {
	Service     *services.GeniusService
	ReadThrough *cache.ReadThrough
	Logger      *log.Logger
}

func (h *LyricsHandler) Mount(r Router) {
	r.Handle(http.MethodGet, "/lyrics/search", http.HandlerFunc(h.Search))
	r.Handle(http.MethodGet, "/lyrics/song/{id}", http.HandlerFunc(h.Song))
	r.Handle(http.MethodGet, "/lyrics/artist/{id}", http.HandlerFunc(h.Artist))
}

// Search handles GET /lyrics/search?q=...
func (h *LyricsHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Genius")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, `Query parameter "q" is required`, shared.ErrInvalidInput)
		return
	}

	songs, err := h.Service.Search(r.Context(), q)
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to search songs", err)
		return
	}
	if len(songs) == 0 {
		respondEmpty(w, "No songs found")
		return
	}

	respondData(w, songs)
}

// Song handles GET /lyrics/song/{id}.
func (h *LyricsHandler) Song(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Genius")
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Song ID must be numeric", shared.ErrInvalidInput)
		return
	}

	key := cache.Key(cache.KindSong, strconv.Itoa(id))
	v, fromCache, err := h.ReadThrough.Fetch(r.Context(), key, cache.TTLSong, func(ctx context.Context) (any, error) {
		return h.Service.Song(ctx, id)
	})
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Song not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get song details", err)
		return
	}

	respondCached(w, v, fromCache)
}

// Artist handles GET /lyrics/artist/{id}.
func (h *LyricsHandler) Artist(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Genius")
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Artist ID must be numeric", shared.ErrInvalidInput)
		return
	}

	artist, err := h.Service.Artist(r.Context(), id)
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Artist not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get artist details", err)
		return
	}

	respondData(w, artist)
}
