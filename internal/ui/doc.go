// Package ui styles CLI status output with lipgloss.
//
// A [Palette] colors titles, hits, misses and failures. [Report] drains a resolver progress
// channel and prints one styled line per update, and [Summary] renders the final counts.
package ui
