// Last.fm API client for scrobble statistics
//
// Last.fm reports failures inside a 200 body as {error, message}; this client
// maps those onto the shared sentinel errors so routes can dispatch on them.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

const lastFMBaseURL = "http://ws.audioscrobbler.com/2.0/"

// Last.fm error code for unknown artists and tracks.
const lastFMErrNotFound = 6

// LastFMArtist is the normalized artist profile from Last.fm.
type LastFMArtist struct {
	Name      string              `json:"name"`
	Listeners int                 `json:"listeners"`
	Playcount int                 `json:"playcount"`
	Bio       string              `json:"bio"`
	Image     string              `json:"image"`
	Tags      []string            `json:"tags"`
	URL       string              `json:"url"`
	Similar   []LastFMSimilarRef `json:"similar"`
}

// LastFMSimilarRef is a compact reference to a related artist.
type LastFMSimilarRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LastFMTopTrack is a normalized top-track entry.
type LastFMTopTrack struct {
	Name      string `json:"name"`
	Playcount int    `json:"playcount"`
	Listeners int    `json:"listeners"`
	Artist    string `json:"artist"`
	URL       string `json:"url"`
	Image     string `json:"image"`
}

// LastFMSimilarArtist is a normalized similar-artist entry.
type LastFMSimilarArtist struct {
	Name  string  `json:"name"`
	Match float64 `json:"match"`
	URL   string  `json:"url"`
	Image string  `json:"image"`
}

// LastFMArtistMatch is a normalized artist search hit.
type LastFMArtistMatch struct {
	Name      string `json:"name"`
	Listeners int    `json:"listeners"`
	URL       string `json:"url"`
	Image     string `json:"image"`
}

// LastFMTrackInfo is the normalized track metadata shape.
type LastFMTrackInfo struct {
	Name      string   `json:"name"`
	Artist    string   `json:"artist"`
	Album     string   `json:"album"`
	Duration  *int     `json:"duration"`
	Listeners int      `json:"listeners"`
	Playcount int      `json:"playcount"`
	Tags      []string `json:"tags"`
	URL       string   `json:"url"`
	Image     string   `json:"image"`
}

type lastFMImage struct {
	Text string `json:"#text"`
	Size string `json:"size"`
}

type lastFMTag struct {
	Name string `json:"name"`
}

type lastFMEnvelope struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

var lastFMLinkPattern = regexp.MustCompile(`<a[^>]*>.*?</a>`)

// LastFMService retrieves artist and track statistics from Last.fm.
type LastFMService struct {
	fetcher Fetcher
	apiKey  string
}

// NewLastFMService creates a [LastFMService] with the given API key.
func NewLastFMService(fetcher Fetcher, apiKey string) *LastFMService {
	return &LastFMService{fetcher: fetcher, apiKey: apiKey}
}

// call performs one Last.fm method call and decodes the body into result
// after checking the in-band error envelope.
func (s *LastFMService) call(ctx context.Context, method string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("method", method)
	params.Set("api_key", s.apiKey)
	params.Set("format", "json")

	resp, err := s.fetcher.Fetch(ctx, Request{
		Method: http.MethodGet,
		URL:    lastFMBaseURL,
		Params: params,
	})
	if err != nil {
		return err
	}

	var envelope lastFMEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Error != 0 {
		if envelope.Error == lastFMErrNotFound {
			return &UpstreamError{
				StatusCode: http.StatusNotFound,
				Payload:    resp.Body,
				Message:    envelope.Message,
			}
		}
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Payload:    resp.Body,
			Message:    envelope.Message,
		}
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	return nil
}

// ArtistInfo retrieves the normalized artist profile.
func (s *LastFMService) ArtistInfo(ctx context.Context, artistName string) (*LastFMArtist, error) {
	var raw struct {
		Artist struct {
			Name  string `json:"name"`
			URL   string `json:"url"`
			Stats struct {
				Listeners string `json:"listeners"`
				Playcount string `json:"playcount"`
			} `json:"stats"`
			Bio struct {
				Summary string `json:"summary"`
			} `json:"bio"`
			Image []lastFMImage `json:"image"`
			Tags  struct {
				Tag []lastFMTag `json:"tag"`
			} `json:"tags"`
			Similar struct {
				Artist []struct {
					Name string `json:"name"`
					URL  string `json:"url"`
				} `json:"artist"`
			} `json:"similar"`
		} `json:"artist"`
	}

	if err := s.call(ctx, "artist.getinfo", url.Values{"artist": {artistName}}, &raw); err != nil {
		return nil, err
	}

	artist := raw.Artist

	tags := make([]string, 0, len(artist.Tags.Tag))
	for _, tag := range artist.Tags.Tag {
		tags = append(tags, tag.Name)
	}

	similar := make([]LastFMSimilarRef, 0, 5)
	for _, a := range artist.Similar.Artist {
		if len(similar) == 5 {
			break
		}
		similar = append(similar, LastFMSimilarRef{Name: a.Name, URL: a.URL})
	}

	return &LastFMArtist{
		Name:      artist.Name,
		Listeners: atoiOrZero(artist.Stats.Listeners),
		Playcount: atoiOrZero(artist.Stats.Playcount),
		Bio:       lastFMLinkPattern.ReplaceAllString(artist.Bio.Summary, ""),
		Image:     pickImage(artist.Image, "extralarge"),
		Tags:      tags,
		URL:       artist.URL,
		Similar:   similar,
	}, nil
}

// TopTracks retrieves the artist's most played tracks.
func (s *LastFMService) TopTracks(ctx context.Context, artistName string, limit int) ([]LastFMTopTrack, error) {
	var raw struct {
		TopTracks struct {
			Track []struct {
				Name      string `json:"name"`
				Playcount string `json:"playcount"`
				Listeners string `json:"listeners"`
				URL       string `json:"url"`
				Artist    struct {
					Name string `json:"name"`
				} `json:"artist"`
				Image []lastFMImage `json:"image"`
			} `json:"track"`
		} `json:"toptracks"`
	}

	params := url.Values{"artist": {artistName}, "limit": {strconv.Itoa(normalizeLimit(limit))}}
	if err := s.call(ctx, "artist.gettoptracks", params, &raw); err != nil {
		return nil, err
	}

	tracks := make([]LastFMTopTrack, 0, len(raw.TopTracks.Track))
	for _, track := range raw.TopTracks.Track {
		tracks = append(tracks, LastFMTopTrack{
			Name:      track.Name,
			Playcount: atoiOrZero(track.Playcount),
			Listeners: atoiOrZero(track.Listeners),
			Artist:    track.Artist.Name,
			URL:       track.URL,
			Image:     pickImage(track.Image, "large"),
		})
	}

	return tracks, nil
}

// SimilarArtists retrieves artists similar to the named one.
func (s *LastFMService) SimilarArtists(ctx context.Context, artistName string, limit int) ([]LastFMSimilarArtist, error) {
	var raw struct {
		SimilarArtists struct {
			Artist []struct {
				Name  string        `json:"name"`
				Match string        `json:"match"`
				URL   string        `json:"url"`
				Image []lastFMImage `json:"image"`
			} `json:"artist"`
		} `json:"similarartists"`
	}

	params := url.Values{"artist": {artistName}, "limit": {strconv.Itoa(normalizeLimit(limit))}}
	if err := s.call(ctx, "artist.getsimilar", params, &raw); err != nil {
		return nil, err
	}

	artists := make([]LastFMSimilarArtist, 0, len(raw.SimilarArtists.Artist))
	for _, artist := range raw.SimilarArtists.Artist {
		match, _ := strconv.ParseFloat(artist.Match, 64)
		artists = append(artists, LastFMSimilarArtist{
			Name:  artist.Name,
			Match: match,
			URL:   artist.URL,
			Image: pickImage(artist.Image, "large"),
		})
	}

	return artists, nil
}

// SearchArtists searches Last.fm for artists matching the query.
func (s *LastFMService) SearchArtists(ctx context.Context, query string, limit int) ([]LastFMArtistMatch, error) {
	var raw struct {
		Results struct {
			ArtistMatches struct {
				Artist []struct {
					Name      string        `json:"name"`
					Listeners string        `json:"listeners"`
					URL       string        `json:"url"`
					Image     []lastFMImage `json:"image"`
				} `json:"artist"`
			} `json:"artistmatches"`
		} `json:"results"`
	}

	params := url.Values{"artist": {query}, "limit": {strconv.Itoa(normalizeLimit(limit))}}
	if err := s.call(ctx, "artist.search", params, &raw); err != nil {
		return nil, err
	}

	matches := make([]LastFMArtistMatch, 0, len(raw.Results.ArtistMatches.Artist))
	for _, artist := range raw.Results.ArtistMatches.Artist {
		matches = append(matches, LastFMArtistMatch{
			Name:      artist.Name,
			Listeners: atoiOrZero(artist.Listeners),
			URL:       artist.URL,
			Image:     pickImage(artist.Image, "large"),
		})
	}

	return matches, nil
}

// TrackInfo retrieves normalized metadata for one track.
func (s *LastFMService) TrackInfo(ctx context.Context, artistName, trackName string) (*LastFMTrackInfo, error) {
	var raw struct {
		Track struct {
			Name     string `json:"name"`
			Duration string `json:"duration"`
			URL      string `json:"url"`
			Artist   struct {
				Name string `json:"name"`
			} `json:"artist"`
			Album *struct {
				Title string        `json:"title"`
				Image []lastFMImage `json:"image"`
			} `json:"album"`
			Listeners string `json:"listeners"`
			Playcount string `json:"playcount"`
			TopTags   struct {
				Tag []lastFMTag `json:"tag"`
			} `json:"toptags"`
		} `json:"track"`
	}

	params := url.Values{"artist": {artistName}, "track": {trackName}}
	if err := s.call(ctx, "track.getInfo", params, &raw); err != nil {
		return nil, err
	}

	track := raw.Track

	album := "Unknown"
	image := ""
	if track.Album != nil {
		if track.Album.Title != "" {
			album = track.Album.Title
		}
		image = pickImage(track.Album.Image, "large")
	}

	var duration *int
	if track.Duration != "" {
		if d, err := strconv.Atoi(track.Duration); err == nil {
			duration = &d
		}
	}

	tags := make([]string, 0, len(track.TopTags.Tag))
	for _, tag := range track.TopTags.Tag {
		tags = append(tags, tag.Name)
	}

	return &LastFMTrackInfo{
		Name:      track.Name,
		Artist:    track.Artist.Name,
		Album:     album,
		Duration:  duration,
		Listeners: atoiOrZero(track.Listeners),
		Playcount: atoiOrZero(track.Playcount),
		Tags:      tags,
		URL:       track.URL,
		Image:     image,
	}, nil
}

// pickImage returns the URL of the image with the requested size, or empty.
func pickImage(images []lastFMImage, size string) string {
	for _, img := range images {
		if img.Size == size {
			return img.Text
		}
	}
	return ""
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// normalizeLimit clamps a requested page size to the default when unset.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}
