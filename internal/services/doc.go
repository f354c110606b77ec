// Package services defines the [MetadataService] and [VideoService] collaborators and implements them
// for Last.fm and the YouTube Data API.
//
// # Last.fm
//
// [LastFMService] wraps the lastfm-go client. Every call waits on a token bucket limiter, retries
// transient Last.fm error codes with a short delay, and runs inside a circuit breaker. The
// "invalid parameters" error Last.fm returns for unknown artists and tags is reported as an empty
// result so the catalog can record a negative marker.
//
// # YouTube
//
// [YouTubeService] issues search.list requests limited to embeddable videos and returns the first
// item with its default thumbnail, or nil when nothing matches.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : HTTP request or API call failed
//   - [shared.ErrCircuitOpen] : the breaker is rejecting calls
//   - [shared.ErrMissingCredentials] : no API key configured
package services
