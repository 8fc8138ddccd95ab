// Package middleware provides HTTP middleware for the RPC endpoint.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for browser clients
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - GlobalRateLimit: A single bucket shared by every client
package middleware
