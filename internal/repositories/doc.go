// Package repositories persists discovery output in the shared key space.
//
// Key Implementations:
//   - [PlaylistRepository] : bounded, most-recent-first list of accepted hits per playlist name
//   - [HitRepository] : the saved-hits set and the broken-track reports from clients
//
// Playlist items are stored as "youtubeId|thumbnailUrl|name". Decoding splits on the first two
// separators only, so track names may contain "|".
package repositories
