// Package models defines the records that cross package boundaries.
//
//   - [Hit] : a discovered one-hit track, as streamed to clients and stored in playlists
//   - [Video] : a resolved video id with its default thumbnail
//   - [Stats] : registry sizes reported by the stats endpoint
//   - [BrokenTrack] : a client report of an unplayable video
//
// The live Artist, Tag and Track entities live in package catalog, since they carry cache state.
package models
