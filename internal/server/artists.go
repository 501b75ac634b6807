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

// ArtistsHandler serves Last.fm scrobble statistics.
type ArtistsHandler struct {
	Service     *services.LastFMService
	ReadThrough *cache.ReadThrough
	Logger      *log.Logger
}

func (h *ArtistsHandler) Mount(r Router) {
	r.Handle(http.MethodGet, "/artists/info/{name}", http.HandlerFunc(h.Info))
	r.Handle(http.MethodGet, "/artists/top-tracks/{name}", http.HandlerFunc(h.TopTracks))
	r.Handle(http.MethodGet, "/artists/similar/{name}", http.HandlerFunc(h.Similar))
	r.Handle(http.MethodGet, "/artists/search", http.HandlerFunc(h.Search))
	r.Handle(http.MethodGet, "/artists/track-info", http.HandlerFunc(h.TrackInfo))
}

// limitParam reads an optional positive integer limit query parameter.
// Absent or unparsable values fall back to zero, which the service treats
// as the default page size.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Info handles GET /artists/info/{name}.
func (h *ArtistsHandler) Info(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Last.fm")
		return
	}

	name := r.PathValue("name")
	key := cache.Key(cache.KindArtistInfo, name)

	v, fromCache, err := h.ReadThrough.Fetch(r.Context(), key, cache.TTLArtist, func(ctx context.Context) (any, error) {
		return h.Service.ArtistInfo(ctx, name)
	})
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Artist not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get artist info", err)
		return
	}

	respondCached(w, v, fromCache)
}

// TopTracks handles GET /artists/top-tracks/{name}.
func (h *ArtistsHandler) TopTracks(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Last.fm")
		return
	}

	name := r.PathValue("name")
	limit := limitParam(r)
	key := cache.Key(cache.KindTopTracks, name)

	v, fromCache, err := h.ReadThrough.Fetch(r.Context(), key, cache.TTLArtist, func(ctx context.Context) (any, error) {
		return h.Service.TopTracks(ctx, name, limit)
	})
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Artist not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get top tracks", err)
		return
	}

	respondCached(w, v, fromCache)
}

// Similar handles GET /artists/similar/{name}.
func (h *ArtistsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Last.fm")
		return
	}

	name := r.PathValue("name")
	limit := limitParam(r)
	key := cache.Key(cache.KindSimilar, name)

	v, fromCache, err := h.ReadThrough.Fetch(r.Context(), key, cache.TTLArtist, func(ctx context.Context) (any, error) {
		return h.Service.SimilarArtists(ctx, name, limit)
	})
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Artist not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get similar artists", err)
		return
	}

	respondCached(w, v, fromCache)
}

// Search handles GET /artists/search?q=...
func (h *ArtistsHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Last.fm")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, `Query parameter "q" is required`, shared.ErrInvalidInput)
		return
	}

	matches, err := h.Service.SearchArtists(r.Context(), q, limitParam(r))
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to search artists", err)
		return
	}
	if len(matches) == 0 {
		respondEmpty(w, "No artists found")
		return
	}

	respondData(w, matches)
}

// TrackInfo handles GET /artists/track-info?artist=...&track=...
func (h *ArtistsHandler) TrackInfo(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Last.fm")
		return
	}

	artist := r.URL.Query().Get("artist")
	track := r.URL.Query().Get("track")
	if artist == "" || track == "" {
		respondError(w, http.StatusBadRequest, "Both artist and track parameters are required", shared.ErrInvalidInput)
		return
	}

	info, err := h.Service.TrackInfo(r.Context(), artist, track)
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Track not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to get track info", err)
		return
	}

	respondData(w, info)
}
