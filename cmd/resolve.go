package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotlink/internal/formatter"
	"github.com/desertthunder/spotlink/internal/matcher"
	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/desertthunder/spotlink/internal/tasks"
	"github.com/desertthunder/spotlink/internal/ui"
	"github.com/urfave/cli/v3"
)

// listingFunc fetches (and optionally converts) a multi-track entity.
type listingFunc func(ctx context.Context, res Resolver, ref string, convert bool, policy *matcher.Policy, progress chan<- tasks.ProgressUpdate) ([]tasks.Resolution, error)

// ResolveTrack fetches one track and optionally selects its node candidate.
func (r *Runner) ResolveTrack(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("ref")
	if ref == "" {
		return fmt.Errorf("%w: track reference is required", shared.ErrMissingArgument)
	}

	resolver, err := r.requireResolver()
	if err != nil {
		return err
	}
	policy, err := r.policyFor(cmd)
	if err != nil {
		return err
	}

	if err := resolver.Start(ctx); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	defer resolver.Close()

	res, err := resolver.GetTrack(ctx, ref, cmd.Bool("convert"), &policy)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}
	return r.emit(cmd, &formatter.Export{Kind: "track", ID: ref, Results: []tasks.Resolution{*res}})
}

// ResolveAlbum fetches an album's tracks.
func (r *Runner) ResolveAlbum(ctx context.Context, cmd *cli.Command) error {
	return r.resolveListing(ctx, cmd, "album", func(ctx context.Context, res Resolver, ref string, convert bool, policy *matcher.Policy, progress chan<- tasks.ProgressUpdate) ([]tasks.Resolution, error) {
		return res.GetAlbumTracks(ctx, ref, convert, policy, progress)
	})
}

// ResolvePlaylist fetches every page of a playlist.
func (r *Runner) ResolvePlaylist(ctx context.Context, cmd *cli.Command) error {
	return r.resolveListing(ctx, cmd, "playlist", func(ctx context.Context, res Resolver, ref string, convert bool, policy *matcher.Policy, progress chan<- tasks.ProgressUpdate) ([]tasks.Resolution, error) {
		return res.GetPlaylistTracks(ctx, ref, convert, policy, progress)
	})
}

func (r *Runner) resolveListing(ctx context.Context, cmd *cli.Command, kind string, fetch listingFunc) error {
	ref := cmd.StringArg("ref")
	if ref == "" {
		return fmt.Errorf("%w: %s reference is required", shared.ErrMissingArgument, kind)
	}

	resolver, err := r.requireResolver()
	if err != nil {
		return err
	}
	policy, err := r.policyFor(cmd)
	if err != nil {
		return err
	}

	if err := resolver.Start(ctx); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	defer resolver.Close()

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ui.Report(r.status, r.palette, progress)
	}()

	results, err := fetch(ctx, resolver, ref, cmd.Bool("convert"), &policy, progress)
	close(progress)
	<-done
	if err != nil && results == nil {
		return err
	}

	if cmd.Bool("convert") {
		r.writeStatus(r.palette.Summary(results))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}
	return r.emit(cmd, &formatter.Export{Kind: kind, ID: ref, Results: results})
}

// emit renders export with --format, to --output when set.
func (r *Runner) emit(cmd *cli.Command, export *formatter.Export) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(export, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("export written", "path", written, "format", format)
		return nil
	}

	return formatter.Write(r.output, export, format, cmd.Bool("pretty"))
}

// policyFor starts from the configured matching policy and applies flags the user set.
func (r *Runner) policyFor(cmd *cli.Command) (matcher.Policy, error) {
	m := r.config.Matching
	opts := matcher.PolicyOptions{
		PrioritizeSameDuration: m.PrioritizeSameDuration,
		ExcludeVariants:        m.ExcludeVariants,
		RequireArtist:          m.RequireArtist,
		Sort:                   m.Sort,
	}
	if cmd.IsSet("same-duration") {
		opts.PrioritizeSameDuration = cmd.Bool("same-duration")
	}
	if cmd.IsSet("exclude-variants") {
		opts.ExcludeVariants = cmd.Bool("exclude-variants")
	}
	if cmd.IsSet("require-artist") {
		opts.RequireArtist = cmd.Bool("require-artist")
	}
	if cmd.IsSet("sort") {
		opts.Sort = cmd.String("sort")
	}
	return matcher.PolicyFromConfig(opts)
}

func resolveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "convert",
			Aliases: []string{"x"},
			Usage:   "Search the audio node and select a candidate for each track",
		},
		&cli.BoolFlag{
			Name:  "same-duration",
			Usage: "Prefer a candidate within 1.5s of the catalog duration",
		},
		&cli.BoolFlag{
			Name:  "exclude-variants",
			Usage: "Reject live, remix, cover and similar uploads unless the title asks for them",
		},
		&cli.BoolFlag{
			Name:  "require-artist",
			Usage: "Require the catalog artist in the candidate author or title",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Candidate ordering: none or duration",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, markdown or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the export to a file instead of stdout",
		},
	}
}
