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

// MusicHandler serves the Spotify catalog routes.
type MusicHandler struct {
	Service     *services.SpotifyService
	ReadThrough *cache.ReadThrough
	Logger      *log.Logger
}

func (h *MusicHandler) Mount(r Router) {
	r.Handle(http.MethodGet, "/music/search", http.HandlerFunc(h.Search))
	r.Handle(http.MethodGet, "/music/track/{id}", http.HandlerFunc(h.Track))
	r.Handle(http.MethodGet, "/music/recommendations", http.HandlerFunc(h.Recommendations))
	r.Handle(http.MethodGet, "/music/artist/{id}", http.HandlerFunc(h.Artist))
	r.Handle(http.MethodGet, "/music/artist/{id}/top-tracks", http.HandlerFunc(h.ArtistTopTracks))
}

// Search handles GET /music/search?q=...
func (h *MusicHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Spotify")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, `Query parameter "q" is required`, shared.ErrInvalidInput)
		return
	}

	tracks, err := h.Service.SearchTracks(r.Context(), q, limitParam(r))
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to search tracks", err)
		return
	}
	if len(tracks) == 0 {
		respondEmpty(w, "No tracks found")
		return
	}

	respondData(w, tracks)
}

// Track handles GET /music/track/{id}.
func (h *MusicHandler) Track(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Spotify")
		return
	}

	id := r.PathValue("id")
	key := cache.Key(cache.KindTrack, id)

	v, fromCache, err := h.ReadThrough.Fetch(r.Context(), key, cache.TTLTrack, func(ctx context.Context) (any, error) {
		return h.Service.Track(ctx, id)
	})
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Track not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get track details", err)
		return
	}

	respondCached(w, v, fromCache)
}

// Recommendations handles GET /music/recommendations?seed_tracks=...&seed_artists=...
func (h *MusicHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Spotify")
		return
	}

	seedTracks := r.URL.Query().Get("seed_tracks")
	seedArtists := r.URL.Query().Get("seed_artists")
	if seedTracks == "" && seedArtists == "" {
		respondError(w, http.StatusBadRequest, "At least one of seed_tracks or seed_artists is required", shared.ErrInvalidInput)
		return
	}

	tracks, err := h.Service.Recommendations(r.Context(), seedTracks, seedArtists, limitParam(r))
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get recommendations", err)
		return
	}

	respondData(w, tracks)
}

// Artist handles GET /music/artist/{id}.
func (h *MusicHandler) Artist(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Spotify")
		return
	}

	artist, err := h.Service.Artist(r.Context(), r.PathValue("id"))
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

// ArtistTopTracks handles GET /music/artist/{id}/top-tracks.
func (h *MusicHandler) ArtistTopTracks(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Spotify")
		return
	}

	tracks, err := h.Service.ArtistTopTracks(r.Context(), r.PathValue("id"))
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Artist not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get artist top tracks", err)
		return
	}

	respondData(w, tracks)
}
