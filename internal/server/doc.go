// Package server provides HTTP routing, middleware, and the route handlers
// for the aggregator's JSON surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method filtering, so handlers read path parameters with
// [http.Request.PathValue].
//
// # Response Envelope
//
// Every route wraps its payload in {success, data?, message?, error?}, with
// from_cache marking responses served by the read-through cache. Validation
// failures return 400 before any upstream call; upstream failures are caught
// at the route boundary and converted to the envelope, so no request ever
// escapes as an unhandled failure. Unmatched routes return the 404 envelope.
//
// # Not-Found Policy
//
// Routes differ deliberately in how they present an upstream "no such
// resource": the events routes return an empty successful listing, while the
// artist-statistics and catalog routes return an explicit 404 envelope. The
// policy is fixed per route and part of each route's contract.
package server
