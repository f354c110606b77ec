// Package tasks implements the discovery pipeline behind every query.
//
// [DiscoveryEngine] resolves a query into candidate artists through the catalog and starts a
// [Discovery]: one task per candidate on a bounded worker pool, each resolving the artist's hit track
// and its video. Hits are published on a buffered channel and consumed through [Discovery.Hits], which
// waits up to the poll interval for each result. When every task has finished the stream ends; after
// too many consecutive empty polls the outstanding tasks are cancelled and the stream ends with what
// it has.
//
// Progress is reported through [ProgressUpdate] values sent without blocking, so a slow or absent
// reader never stalls discovery.
package tasks
