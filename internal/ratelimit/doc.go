// Package ratelimit provides per-IP rate limiting with background eviction
// of idle entries.
//
// This is a single-instance, in-memory limiter meant to keep one scraper or
// stuck client from monopolizing an anonymous public mirror. It does not
// protect against distributed abuse or bandwidth-bill attacks (bytes are
// already accepted by the time it runs); put a CDN or WAF in front for those.
//
// The tracked-visitor table is capped so an attacker cycling through source
// addresses cannot grow the map without bound. At capacity, addresses already
// in the table keep their buckets and new ones are rejected until eviction
// frees a slot.
package ratelimit
