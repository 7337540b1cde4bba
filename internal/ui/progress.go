package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/spotlink/internal/tasks"
)

// Line styles a single progress update. Match updates are colored by outcome.
func (p *Palette) Line(u tasks.ProgressUpdate) string {
	if u.Phase != tasks.MatchTracks {
		return p.Help(u.Message)
	}

	res, ok := u.Data.(*tasks.Resolution)
	switch {
	case !ok:
		return u.Message
	case res.Err != nil:
		return p.Err(u.Message)
	case res.Match == nil:
		return p.Warn(u.Message)
	default:
		return p.OK(u.Message)
	}
}

// Report writes every update from updates to w until the channel is closed.
func Report(w io.Writer, p *Palette, updates <-chan tasks.ProgressUpdate) {
	for u := range updates {
		fmt.Fprintln(w, p.Line(u))
	}
}

// Summary renders final counts for a bulk conversion.
func (p *Palette) Summary(results []tasks.Resolution) string {
	matched, failed := tasks.Summarize(results)
	missed := len(results) - matched - failed

	line := p.OK(fmt.Sprintf("%d matched", matched))
	if missed > 0 {
		line += ", " + p.Warn(fmt.Sprintf("%d without match", missed))
	}
	if failed > 0 {
		line += ", " + p.Err(fmt.Sprintf("%d failed", failed))
	}
	return fmt.Sprintf("%d tracks: %s", len(results), line)
}
