// Package tasks resolves Spotify catalog references into audio node candidates with real-time progress reporting.
//
// # Core Operations
//
// [Resolver] exposes one operation per catalog entity:
//
//  1. [Resolver.GetTrack] : one track, optionally converted
//  2. [Resolver.GetAlbumTracks] : the first page of an album's tracks
//  3. [Resolver.GetPlaylistTracks] : every page of a playlist, fetched concurrently and concatenated in page order
//
// [Resolver.FetchTrack] converts metadata the caller already holds.
//
// References are parsed before any network call, so a missing or wrong-kind reference fails fast.
//
// # Bulk Conversion
//
// When converting, each track is matched in its own goroutine (optionally bounded by
// [ResolverOpts.Concurrency]) and written back by index. A failed or empty match leaves
// [Resolution.Match] nil and never cancels its siblings.
//
// # Progress Reporting
//
// Bulk operations accept an optional channel of [ProgressUpdate]. Updates use select with default so a slow
// consumer never blocks resolution.
//
// # Match History
//
// The optional [MatchRecorder] persists every conversion outcome. Recording is best effort: failures are logged
// and ignored.
//
// # Credentials
//
// The resolver owns the lifecycle of its catalog credentials: [Resolver.Start] obtains the first token and
// [Resolver.Close] stops background renewal.
package tasks
