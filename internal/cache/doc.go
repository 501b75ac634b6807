// Package cache provides the in-memory TTL cache and the read-through
// orchestration used by every metadata route.
//
// # Expiring Cache
//
// [Memory] implements [Cache]: a mutex-guarded map from string keys to
// arbitrary values with per-entry expiry. Expired entries are logically
// absent the moment their TTL elapses; physical removal happens lazily on
// access and via a periodic janitor sweep.
//
// # Read-Through Orchestration
//
// [ReadThrough] composes a [Cache] with a fetch function. A hit returns the
// cached value; a miss invokes the fetch, stores the result under the key's
// TTL, and returns it. Concurrent misses on the same key are coalesced into
// a single upstream call with [singleflight.Group].
//
// # Keys and TTLs
//
// [Key] builds deterministic cache keys per logical resource kind.
// Identifiers are case-folded where the upstream treats them
// case-insensitively (artist and track names) and used verbatim for opaque
// IDs. The per-domain TTL constants encode upstream data volatility and are
// part of the service's behavioral contract.
package cache
