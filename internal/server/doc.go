// Package server exposes the playlist service over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// The [BasicRouter] implementation registers "METHOD /path" patterns on an [http.ServeMux].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [PlaylistHandler] serves every /api/playlists route; [HealthHandler] serves /health.
//
// # Middleware
//
//   - [RequestLogging] : request ids and one structured log line per request
//   - [Recovery] : panics become 500 responses
//   - [RateLimit] : per-client token buckets
//   - [Authenticate] : bearer tokens from the identity service, verified with [TokenVerifier]
//
// # Errors
//
// Domain errors map to status codes: not found 404, forbidden 403, invalid operation or input 400,
// version conflict 409, unauthorized 401. Invariant violations and unknown errors are logged and
// answered with a generic 500.
package server
