// Package catalog holds the live Artist, Tag and Track entities and resolves their attributes.
//
// Every entity is created once per logical key through the catalog's registries and kept for the
// life of the process. Expensive attributes (similar artists, top tracks, tag top artists, track
// videos) resolve through the two-tier protocol in package cache: the entity's own cell first,
// then the persistent store, then the metadata or video service with write-through.
//
// # Store keys
//
//   - similar:<artist> : list of similar artist names
//   - toptracks:<artist> : sorted set of track name scored by play count
//   - topartists:<tag> : list of artist names
//   - track:<artist> - <track> : hash with youtubeId and thumbnail fields
//   - artists, tags : sets of known lower-cased names
//   - hasnosimilarartist, hasnotoptracks, isnottag, novideo : negative markers
//
// [PickHit] is the pure one-hit heuristic over an artist's ranked top tracks.
package catalog
