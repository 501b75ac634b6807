// Bandsintown API client for concert and event listings
//
// API reference: https://artists.bandsintown.com/support/public-api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const bandsintownBaseURL = "https://rest.bandsintown.com"

// DefaultBandsintownAppID identifies this service to Bandsintown when no
// app_id is configured.
const DefaultBandsintownAppID = "musij_platform"

// EventVenue is the normalized venue shape returned by the events routes.
type EventVenue struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Location string `json:"location"`
}

// EventOffer is a ticket offer attached to an event.
type EventOffer struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Event is the normalized event shape returned by the events routes.
type Event struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Datetime    string       `json:"datetime"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Venue       EventVenue   `json:"venue"`
	Lineup      []string     `json:"lineup"`
	Offers      []EventOffer `json:"offers"`
	TicketURL   string       `json:"ticket_url"`
	Description string       `json:"description"`
}

// BandsintownArtist is the normalized artist profile from Bandsintown.
type BandsintownArtist struct {
	Name               string `json:"name"`
	ImageURL           string `json:"image_url"`
	TrackerCount       int    `json:"tracker_count"`
	UpcomingEventCount int    `json:"upcoming_event_count"`
	URL                string `json:"url"`
	FacebookPageURL    string `json:"facebook_page_url"`
}

type bandsintownVenue struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type bandsintownEvent struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Datetime    string           `json:"datetime"`
	URL         string           `json:"url"`
	Description string           `json:"description"`
	Venue       bandsintownVenue `json:"venue"`
	Lineup      []string         `json:"lineup"`
	Offers      []EventOffer     `json:"offers"`
}

type bandsintownArtist struct {
	Name               string `json:"name"`
	ImageURL           string `json:"image_url"`
	ThumbURL           string `json:"thumb_url"`
	TrackerCount       int    `json:"tracker_count"`
	UpcomingEventCount int    `json:"upcoming_event_count"`
	URL                string `json:"url"`
	FacebookPageURL    string `json:"facebook_page_url"`
}

// BandsintownService retrieves event listings and artist profiles.
type BandsintownService struct {
	fetcher Fetcher
	appID   string
}

// NewBandsintownService creates a [BandsintownService] with the given app
// identifier, falling back to [DefaultBandsintownAppID].
func NewBandsintownService(fetcher Fetcher, appID string) *BandsintownService {
	if appID == "" {
		appID = DefaultBandsintownAppID
	}
	return &BandsintownService{fetcher: fetcher, appID: appID}
}

// ArtistEvents retrieves upcoming events for the named artist, normalized.
//
// An unknown artist surfaces as a not-found [*UpstreamError]; the route layer
// decides how to present it.
func (s *BandsintownService) ArtistEvents(ctx context.Context, artistName string) ([]Event, error) {
	endpoint := fmt.Sprintf("%s/artists/%s/events", bandsintownBaseURL, url.PathEscape(artistName))

	resp, err := s.fetcher.Fetch(ctx, Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Params: url.Values{"app_id": {s.appID}},
	})
	if err != nil {
		return nil, err
	}

	var raw []bandsintownEvent
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for _, ev := range raw {
		events = append(events, normalizeEvent(ev, artistName))
	}

	return events, nil
}

// ArtistInfo retrieves the Bandsintown artist profile.
func (s *BandsintownService) ArtistInfo(ctx context.Context, artistName string) (*BandsintownArtist, error) {
	endpoint := fmt.Sprintf("%s/artists/%s", bandsintownBaseURL, url.PathEscape(artistName))

	resp, err := s.fetcher.Fetch(ctx, Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Params: url.Values{"app_id": {s.appID}},
	})
	if err != nil {
		return nil, err
	}

	var raw bandsintownArtist
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode artist response: %w", err)
	}

	image := raw.ImageURL
	if image == "" {
		image = raw.ThumbURL
	}

	return &BandsintownArtist{
		Name:               raw.Name,
		ImageURL:           image,
		TrackerCount:       raw.TrackerCount,
		UpcomingEventCount: raw.UpcomingEventCount,
		URL:                raw.URL,
		FacebookPageURL:    raw.FacebookPageURL,
	}, nil
}

// normalizeEvent maps an upstream event onto the normalized shape, filling
// the fallbacks the frontend depends on.
func normalizeEvent(ev bandsintownEvent, artistName string) Event {
	title := ev.Title
	if title == "" {
		title = artistName + " Live"
	}

	date, clock := splitDatetime(ev.Datetime)

	lineup := ev.Lineup
	if len(lineup) == 0 {
		lineup = []string{artistName}
	}

	offers := ev.Offers
	if offers == nil {
		offers = []EventOffer{}
	}

	ticketURL := ev.URL
	if ticketURL == "" && len(offers) > 0 {
		ticketURL = offers[0].URL
	}
	if ticketURL == "" {
		ticketURL = "#"
	}

	description := ev.Description
	if description == "" {
		description = "Live concert at " + ev.Venue.Name
	}

	return Event{
		ID:          ev.ID,
		Title:       title,
		Datetime:    ev.Datetime,
		Date:        date,
		Time:        clock,
		Venue: EventVenue{
			Name:     ev.Venue.Name,
			City:     ev.Venue.City,
			Region:   ev.Venue.Region,
			Country:  ev.Venue.Country,
			Location: ev.Venue.City + ", " + ev.Venue.Country,
		},
		Lineup:      lineup,
		Offers:      offers,
		TicketURL:   ticketURL,
		Description: description,
	}
}

// splitDatetime breaks an ISO-8601 datetime into date and HH:MM parts,
// defaulting the time to 19:00 when the upstream omits it.
func splitDatetime(datetime string) (date, clock string) {
	date, rest, found := strings.Cut(datetime, "T")
	if !found || len(rest) < 5 {
		return date, "19:00"
	}
	return date, rest[:5]
}
