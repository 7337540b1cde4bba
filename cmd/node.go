package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/spotlink/internal/services"
	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/urfave/cli/v3"
)

// NodeSearch runs a raw search on the audio node and lists every candidate in node order.
func (r *Runner) NodeSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	if r.node == nil {
		return fmt.Errorf("%w: audio node not configured", shared.ErrServiceUnavailable)
	}

	r.logger.Debug("searching node", "query", query)

	candidates, err := r.node.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, cmd.Bool("pretty"))
	}

	if len(candidates) == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	for i, c := range candidates {
		if err := r.writePlain("%d. %s - %s [%s] %s\n", i+1, c.Info.Author, c.Info.Title, shared.FormatDuration(int(c.Info.Length)), c.Info.URI); err != nil {
			return err
		}
	}
	return nil
}

// NodeGet makes a direct GET request to the node
func (r *Runner) NodeGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if r.api == nil {
		return fmt.Errorf("%w: audio node not configured", shared.ErrServiceUnavailable)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// NodePost makes a direct POST request to the node
func (r *Runner) NodePost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if r.api == nil {
		return fmt.Errorf("%w: audio node not configured", shared.ErrServiceUnavailable)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// NodeStatus reports the node's version, which doubles as an authentication check.
func (r *Runner) NodeStatus(ctx context.Context, cmd *cli.Command) error {
	if r.node == nil {
		return fmt.Errorf("%w: audio node not configured", shared.ErrServiceUnavailable)
	}

	version, err := r.node.Version(ctx)
	if err != nil {
		r.writeStatus(r.palette.Err("✗ node unreachable: " + err.Error()))
		return err
	}

	r.writeStatus(r.palette.OK("✓ node reachable"))
	return r.writePlain("%s version %s\n", r.config.Lavalink.BaseURL(), version)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, err := r.output.Write([]byte("\n"))
	return err
}
