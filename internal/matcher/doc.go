// Package matcher turns one catalog track into at most one audio node candidate.
//
// [Matcher.FetchTrack] validates the track, builds a search query from its name and first
// artist, issues a single search and hands the ranked candidates to [Select].
//
// # Selection
//
// [Select] is pure. With [Policy.PrioritizeSameDuration] set, the first candidate (in node
// order) whose length is within [DurationTolerance] of the catalog duration wins outright and
// the filter and sort are never called. Otherwise candidates pass through [Policy.Filter],
// are stably sorted with [Policy.Sort] and the first survivor is returned. An empty result is
// a nil candidate, not an error.
//
// The built-in filters and comparators ([ExcludeVariants], [RequireArtist],
// [PreferClosestDuration]) can be combined with [AllOf] or assembled from configuration with
// [PolicyFromConfig].
package matcher
