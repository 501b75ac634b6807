// Genius API client for song and lyrics metadata
//
// The Genius API does not expose lyrics text in JSON; responses link to the
// lyrics page instead, which is why the normalized shapes carry genius_url.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const geniusBaseURL = "https://api.genius.com"

// GeniusSong is a search hit from Genius.
type GeniusSong struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	ArtistID        int    `json:"artist_id"`
	URL             string `json:"url"`
	SongArtImageURL string `json:"song_art_image_url"`
	HeaderImageURL  string `json:"header_image_url"`
}

// GeniusSongDetail is the normalized song metadata for a single song.
type GeniusSongDetail struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	ArtistID        int    `json:"artist_id"`
	Album           string `json:"album"`
	ReleaseDate     string `json:"release_date"`
	SongArtImageURL string `json:"song_art_image_url"`
	HeaderImageURL  string `json:"header_image_url"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	LyricsState     string `json:"lyrics_state"`
	GeniusURL       string `json:"genius_url"`
}

// GeniusArtist is the normalized artist profile from Genius.
type GeniusArtist struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	ImageURL       string `json:"image_url"`
	HeaderImageURL string `json:"header_image_url"`
	URL            string `json:"url"`
	FollowersCount int    `json:"followers_count"`
	Description    string `json:"description"`
}

type geniusDescription struct {
	Plain string `json:"plain"`
}

type geniusArtistRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type geniusHit struct {
	Result struct {
		ID                       int             `json:"id"`
		Title                    string          `json:"title"`
		URL                      string          `json:"url"`
		SongArtImageURL          string          `json:"song_art_image_url"`
		HeaderImageThumbnailURL  string          `json:"header_image_thumbnail_url"`
		PrimaryArtist            geniusArtistRef `json:"primary_artist"`
	} `json:"result"`
}

type geniusSearchResponse struct {
	Response struct {
		Hits []geniusHit `json:"hits"`
	} `json:"response"`
}

type geniusSongResponse struct {
	Response struct {
		Song struct {
			ID                    int               `json:"id"`
			Title                 string            `json:"title"`
			URL                   string            `json:"url"`
			ReleaseDateForDisplay string            `json:"release_date_for_display"`
			SongArtImageURL       string            `json:"song_art_image_url"`
			HeaderImageURL        string            `json:"header_image_url"`
			LyricsState           string            `json:"lyrics_state"`
			PrimaryArtist         geniusArtistRef   `json:"primary_artist"`
			Description           geniusDescription `json:"description"`
			Album                 *struct {
				Name string `json:"name"`
			} `json:"album"`
		} `json:"song"`
	} `json:"response"`
}

type geniusArtistResponse struct {
	Response struct {
		Artist struct {
			ID             int               `json:"id"`
			Name           string            `json:"name"`
			ImageURL       string            `json:"image_url"`
			HeaderImageURL string            `json:"header_image_url"`
			URL            string            `json:"url"`
			FollowersCount int               `json:"followers_count"`
			Description    geniusDescription `json:"description"`
		} `json:"artist"`
	} `json:"response"`
}

// GeniusService retrieves song and artist metadata from Genius.
type GeniusService struct {
	fetcher     Fetcher
	accessToken string
}

// NewGeniusService creates a [GeniusService] with the given static access token.
func NewGeniusService(fetcher Fetcher, accessToken string) *GeniusService {
	return &GeniusService{fetcher: fetcher, accessToken: accessToken}
}

func (s *GeniusService) get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	return s.fetcher.Fetch(ctx, Request{
		Method: http.MethodGet,
		URL:    geniusBaseURL + endpoint,
		Params: params,
		Header: http.Header{"Authorization": {"Bearer " + s.accessToken}},
	})
}

// Search searches Genius for songs matching the query.
func (s *GeniusService) Search(ctx context.Context, query string) ([]GeniusSong, error) {
	resp, err := s.get(ctx, "/search", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}

	var raw geniusSearchResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	songs := make([]GeniusSong, 0, len(raw.Response.Hits))
	for _, hit := range raw.Response.Hits {
		songs = append(songs, GeniusSong{
			ID:              hit.Result.ID,
			Title:           hit.Result.Title,
			Artist:          hit.Result.PrimaryArtist.Name,
			ArtistID:        hit.Result.PrimaryArtist.ID,
			URL:             hit.Result.URL,
			SongArtImageURL: hit.Result.SongArtImageURL,
			HeaderImageURL:  hit.Result.HeaderImageThumbnailURL,
		})
	}

	return songs, nil
}

// Song retrieves normalized metadata for a single song by Genius ID.
func (s *GeniusService) Song(ctx context.Context, songID int) (*GeniusSongDetail, error) {
	resp, err := s.get(ctx, "/songs/"+strconv.Itoa(songID), nil)
	if err != nil {
		return nil, err
	}

	var raw geniusSongResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode song response: %w", err)
	}

	song := raw.Response.Song

	album := "Unknown"
	if song.Album != nil && song.Album.Name != "" {
		album = song.Album.Name
	}

	return &GeniusSongDetail{
		ID:              song.ID,
		Title:           song.Title,
		Artist:          song.PrimaryArtist.Name,
		ArtistID:        song.PrimaryArtist.ID,
		Album:           album,
		ReleaseDate:     song.ReleaseDateForDisplay,
		SongArtImageURL: song.SongArtImageURL,
		HeaderImageURL:  song.HeaderImageURL,
		URL:             song.URL,
		Description:     song.Description.Plain,
		LyricsState:     song.LyricsState,
		GeniusURL:       song.URL,
	}, nil
}

// Artist retrieves the normalized artist profile by Genius ID.
func (s *GeniusService) Artist(ctx context.Context, artistID int) (*GeniusArtist, error) {
	resp, err := s.get(ctx, "/artists/"+strconv.Itoa(artistID), nil)
	if err != nil {
		return nil, err
	}

	var raw geniusArtistResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode artist response: %w", err)
	}

	artist := raw.Response.Artist

	return &GeniusArtist{
		ID:             artist.ID,
		Name:           artist.Name,
		ImageURL:       artist.ImageURL,
		HeaderImageURL: artist.HeaderImageURL,
		URL:            artist.URL,
		FollowersCount: artist.FollowersCount,
		Description:    artist.Description.Plain,
	}, nil
}
