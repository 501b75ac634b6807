// Spotify API client behind a client-credentials bearer token
//
// API reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/musij/internal/cache"
	"github.com/desertthunder/musij/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// spotifyMarket pins catalog availability to one market so results are
	// stable across requests.
	spotifyMarket = "ID"

	// tokenCacheKey is the single process-wide token slot.
	tokenCacheKey = "spotify_token"

	// tokenExpiryMargin keeps us from handing out a token that expires
	// mid-flight.
	tokenExpiryMargin = 60 * time.Second
)

// SpotifyTrack is the normalized track shape returned by the music routes.
type SpotifyTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms"`
	PreviewURL string `json:"preview_url"`
	Image      string `json:"image"`
	Popularity int    `json:"popularity,omitempty"`
	SpotifyURL string `json:"spotify_url"`
}

// SpotifyTrackDetail extends [SpotifyTrack] with release metadata for the
// single-track route.
type SpotifyTrackDetail struct {
	SpotifyTrack
	ReleaseDate string `json:"release_date"`
}

// SpotifyArtist is the normalized artist profile from Spotify.
type SpotifyArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	Image      string   `json:"image"`
	SpotifyURL string   `json:"spotify_url"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyArtistRef struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	DurationMS   int                 `json:"duration_ms"`
	PreviewURL   string              `json:"preview_url"`
	Popularity   int                 `json:"popularity"`
	Artists      []spotifyArtistRef  `json:"artists"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	Album        struct {
		Name        string         `json:"name"`
		ReleaseDate string         `json:"release_date"`
		Images      []spotifyImage `json:"images"`
	} `json:"album"`
}

type spotifyArtist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Genres       []string            `json:"genres"`
	Popularity   int                 `json:"popularity"`
	Images       []spotifyImage      `json:"images"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	Followers    struct {
		Total int `json:"total"`
	} `json:"followers"`
}

// SpotifyService implements catalog lookups behind the client-credentials
// token lifecycle.
//
// The token lives in one cache slot shared by every caller; concurrent
// callers that find the slot empty coalesce into a single refresh via
// [singleflight.Group].
type SpotifyService struct {
	creds   clientcredentials.Config
	cache   cache.Cache
	fetcher Fetcher
	group   singleflight.Group
}

// NewSpotifyService creates a [SpotifyService].
//
// The credentials are validated here so a misconfiguration fails at startup
// rather than on the first request.
func NewSpotifyService(fetcher Fetcher, c cache.Cache, clientID, clientSecret string) (*SpotifyService, error) {
	if clientID == "" {
		return nil, fmt.Errorf("missing spotify client_id: %w", shared.ErrMissingCredentials)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("missing spotify client_secret: %w", shared.ErrMissingCredentials)
	}

	return &SpotifyService{
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		},
		cache:   c,
		fetcher: fetcher,
	}, nil
}

// Token returns a valid bearer token, refreshing it when the cached one has
// expired.
//
// All callers observe either an unexpired cached token or the result of
// exactly one refresh; a failed refresh surfaces as [shared.ErrAuthFailed].
func (s *SpotifyService) Token(ctx context.Context) (string, error) {
	if cached, ok := s.cache.Get(tokenCacheKey); ok {
		if token, ok := cached.(string); ok {
			return token, nil
		}
	}

	v, err, _ := s.group.Do(tokenCacheKey, func() (any, error) {
		if cached, ok := s.cache.Get(tokenCacheKey); ok {
			if token, ok := cached.(string); ok {
				return token, nil
			}
		}

		tok, err := s.creds.Token(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}

		ttl := cache.TTLToken
		if !tok.Expiry.IsZero() {
			if remaining := time.Until(tok.Expiry) - tokenExpiryMargin; remaining > 0 {
				ttl = remaining
			}
		}

		s.cache.Set(tokenCacheKey, tok.AccessToken, ttl)
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// get performs an authenticated GET against the Spotify API and decodes the
// response into result.
func (s *SpotifyService) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := s.fetcher.Fetch(ctx, Request{
		Method: http.MethodGet,
		URL:    spotifyBaseURL + endpoint,
		Params: params,
		Header: http.Header{"Authorization": {"Bearer " + token}},
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("failed to decode spotify response: %w", err)
	}

	return nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	var raw struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	params := url.Values{
		"q":      {query},
		"type":   {"track"},
		"limit":  {strconv.Itoa(normalizeLimit(limit))},
		"market": {spotifyMarket},
	}
	if err := s.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	tracks := make([]SpotifyTrack, 0, len(raw.Tracks.Items))
	for _, item := range raw.Tracks.Items {
		tracks = append(tracks, normalizeSpotifyTrack(item, false))
	}

	return tracks, nil
}

// Track retrieves a single track by ID with release metadata.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrackDetail, error) {
	var raw spotifyTrack

	params := url.Values{"market": {spotifyMarket}}
	if err := s.get(ctx, "/tracks/"+url.PathEscape(trackID), params, &raw); err != nil {
		return nil, err
	}

	track := normalizeSpotifyTrack(raw, true)
	return &SpotifyTrackDetail{
		SpotifyTrack: track,
		ReleaseDate:  raw.Album.ReleaseDate,
	}, nil
}

// Recommendations retrieves recommended tracks from seed tracks and artists.
//
// At least one seed must be non-empty; the route layer validates that before
// calling here.
func (s *SpotifyService) Recommendations(ctx context.Context, seedTracks, seedArtists string, limit int) ([]SpotifyTrack, error) {
	var raw struct {
		Tracks []spotifyTrack `json:"tracks"`
	}

	params := url.Values{
		"limit":  {strconv.Itoa(normalizeLimit(limit))},
		"market": {spotifyMarket},
	}
	if seedTracks != "" {
		params.Set("seed_tracks", seedTracks)
	}
	if seedArtists != "" {
		params.Set("seed_artists", seedArtists)
	}

	if err := s.get(ctx, "/recommendations", params, &raw); err != nil {
		return nil, err
	}

	tracks := make([]SpotifyTrack, 0, len(raw.Tracks))
	for _, item := range raw.Tracks {
		tracks = append(tracks, normalizeSpotifyTrack(item, false))
	}

	return tracks, nil
}

// Artist retrieves the normalized artist profile by ID.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	var raw spotifyArtist

	if err := s.get(ctx, "/artists/"+url.PathEscape(artistID), nil, &raw); err != nil {
		return nil, err
	}

	image := ""
	if len(raw.Images) > 0 {
		image = raw.Images[0].URL
	}

	return &SpotifyArtist{
		ID:         raw.ID,
		Name:       raw.Name,
		Genres:     raw.Genres,
		Popularity: raw.Popularity,
		Followers:  raw.Followers.Total,
		Image:      image,
		SpotifyURL: raw.ExternalURLs.Spotify,
	}, nil
}

// ArtistTopTracks retrieves the artist's top tracks in the pinned market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]SpotifyTrack, error) {
	var raw struct {
		Tracks []spotifyTrack `json:"tracks"`
	}

	endpoint := "/artists/" + url.PathEscape(artistID) + "/top-tracks"
	params := url.Values{"market": {spotifyMarket}}
	if err := s.get(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}

	tracks := make([]SpotifyTrack, 0, len(raw.Tracks))
	for _, item := range raw.Tracks {
		tracks = append(tracks, normalizeSpotifyTrack(item, true))
	}

	return tracks, nil
}

// normalizeSpotifyTrack maps an upstream track onto the normalized shape.
// Popularity is only meaningful on detail and top-track responses.
func normalizeSpotifyTrack(raw spotifyTrack, withPopularity bool) SpotifyTrack {
	artist := ""
	if len(raw.Artists) > 0 {
		artist = raw.Artists[0].Name
	}

	image := ""
	if len(raw.Album.Images) > 0 {
		image = raw.Album.Images[0].URL
	}

	track := SpotifyTrack{
		ID:         raw.ID,
		Name:       raw.Name,
		Artist:     artist,
		Album:      raw.Album.Name,
		DurationMS: raw.DurationMS,
		PreviewURL: raw.PreviewURL,
		Image:      image,
		SpotifyURL: raw.ExternalURLs.Spotify,
	}
	if withPopularity {
		track.Popularity = raw.Popularity
	}

	return track
}
