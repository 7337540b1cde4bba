// Package server exposes the resolver over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Resolution Endpoints
//
// [ResolveHandler] serves catalog lookups backed by a [Resolver]:
//
//	GET /tracks/{id}
//	GET /albums/{id}/tracks
//	GET /playlists/{id}/tracks
//
// The id may be a bare catalog ID, a URI, or a share URL (escaped). Conversion is opt-in with
// ?convert=true; ?same_duration=true enables the exact-duration fast path.
//
// # Operations
//
// [Metrics] implements the resolver's observer with Prometheus collectors and is served at /metrics.
// /healthz reports liveness. [Logging] records one line per request.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
