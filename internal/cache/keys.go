package cache

import (
	"strings"
	"time"
)

// Per-domain TTLs. These values encode how quickly each upstream's data goes
// stale and must not drift between deployments.
const (
	TTLEvents = 6 * time.Hour       // concert and event listings
	TTLSong   = 7 * 24 * time.Hour  // lyrics and song metadata
	TTLArtist = 24 * time.Hour      // artist profiles
	TTLTrack  = 24 * time.Hour      // track metadata

	// TTLToken is the fallback lifetime for the Spotify bearer token when the
	// auth endpoint omits expires_in. Slightly under the documented 3600s so
	// a token is never used right at its upstream expiry.
	TTLToken = 3500 * time.Second
)

// Resource kinds used as cache key prefixes.
const (
	KindEvents       = "events"
	KindArtistInfo   = "artist_info"
	KindTopTracks    = "artist_top_tracks"
	KindSimilar      = "artist_similar"
	KindSong         = "song"
	KindTrack        = "track"
	KindSpotifyToken = "spotify_token"
)

// Case-insensitive kinds: the upstream resolves these identifiers ignoring
// case, so differently-cased requests must share a cache entry. Opaque IDs
// (numeric Genius IDs, Spotify base62 IDs) are case-sensitive and used
// verbatim.
var foldedKinds = map[string]bool{
	KindEvents:     true,
	KindArtistInfo: true,
	KindTopTracks:  true,
	KindSimilar:    true,
}

// Key builds the deterministic cache key for a logical resource.
//
// Two requests for the same resource always produce the same key regardless
// of incidental formatting differences in the identifier's case.
func Key(kind, id string) string {
	if foldedKinds[kind] {
		id = strings.ToLower(id)
	}
	return kind + "_" + id
}
