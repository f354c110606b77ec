// Package server provides HTTP routing, middleware and the discovery handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method patterns.
//
// # Routes
//
//	GET  /tracks?q=<query> → server-sent events, one "song" event per hit, then "finish" (q defaults to "pink floyd")
//	POST /broken-track     → form fields youtube_id and name
//	GET  /stats            → {"artistCount", "trackCount", "tagCount"}
//	GET  /playlist         → playlist items, newest first (shuffle=true keeps the newest first and shuffles the rest)
//	POST /playlist         → JSON {"name", "youtubeId", "thumbnailUrl"}
//	GET  /health           → liveness
//	GET  /metrics          → Prometheus exposition
//
// # Streaming
//
// [TracksHandler] resolves the query, iterates the discovery stream and flushes each hit as it arrives.
// A client disconnect cancels the request context, which ends the stream and cancels outstanding lookups.
// Whatever was delivered is saved to the saved-hits set and the playlist after the stream ends.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
