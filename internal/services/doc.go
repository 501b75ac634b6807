// Package services implements the upstream API clients behind the aggregator.
//
// # Fetcher
//
// All outbound traffic goes through the [Fetcher] interface. [HTTPFetcher] is
// the production implementation: a thin transport shim with a bounded timeout
// and an optional outbound rate limiter. It performs no retries; retry
// policy, if any, belongs to callers.
//
// Upstream failures surface as [*UpstreamError], which keeps the HTTP status
// distinct from transport-level failures so callers can dispatch on it
// (404 means "no such resource", 5xx means "provider trouble").
//
// # Provider Clients
//
// One client per upstream, each consuming a [Fetcher]:
//   - [BandsintownService]: concert and event listings
//   - [GeniusService]: song and lyrics metadata (no full lyrics text; the
//     Genius API only links to the lyrics page)
//   - [LastFMService]: scrobble statistics; Last.fm reports errors inside a
//     200 body, which the client maps onto typed errors
//   - [SpotifyService]: catalog data behind a client-credentials bearer
//     token; the token lives in one cache slot and is refreshed with a
//     safety margin before upstream expiry
//   - [StripeService]: hosted checkout sessions; local amounts are converted
//     to the smallest currency unit at this boundary
//
// Each client converts provider-specific JSON into the normalized shapes the
// HTTP surface returns, so field mapping lives in exactly one place per
// resource kind.
//
// # Error Handling
//
// Clients use typed errors from the shared package:
//   - [shared.ErrNotFound] : upstream has no such resource
//   - [shared.ErrAPIRequest] : upstream returned an error payload
//   - [shared.ErrServiceUnavailable] : transport failure, no HTTP status
//   - [shared.ErrAuthFailed] : token acquisition failed
package services
