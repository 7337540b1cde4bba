package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/repositories"
	"github.com/desertthunder/spotlink/internal/server"
	"github.com/desertthunder/spotlink/internal/services"
	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/desertthunder/spotlink/internal/ui"
	"github.com/urfave/cli/v3"
)

// Resolver is the lifecycle-managed resolver used by the resolve and serve commands.
type Resolver interface {
	server.Resolver
	Start(ctx context.Context) error
	Close()
}

// NodeClient searches the audio node and reports its version.
type NodeClient interface {
	Search(ctx context.Context, query string) ([]models.Candidate, error)
	Version(ctx context.Context) (string, error)
}

// RawClient makes raw authenticated requests against the audio node.
type RawClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
	Post(ctx context.Context, path string, data []byte) (*services.APIResponse, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	resolver    Resolver
	resolverErr error
	node        NodeClient
	api         RawClient
	matches     *repositories.MatchRepository
	metrics     *server.Metrics
	logger      *log.Logger
	output      io.Writer
	status      io.Writer
	palette     *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Resolver    Resolver
	ResolverErr error // why Resolver is nil, reported by commands that need it
	Node        NodeClient
	API         RawClient
	Matches     *repositories.MatchRepository
	Metrics     *server.Metrics
	Logger      *log.Logger
	Output      io.Writer // results
	Status      io.Writer // progress lines
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		resolver:    opts.Resolver,
		resolverErr: opts.ResolverErr,
		node:        opts.Node,
		api:         opts.API,
		matches:     opts.Matches,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		output:      opts.Output,
		status:      opts.Status,
		palette:     ui.Styles,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, resolveCommand, nodeCommand, historyCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireResolver returns the configured resolver or the reason there is none.
func (r *Runner) requireResolver() (Resolver, error) {
	if r.resolver != nil {
		return r.resolver, nil
	}
	if r.resolverErr != nil {
		return nil, r.resolverErr
	}
	return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrServiceUnavailable)
}

func (r *Runner) requireHistory() (*repositories.MatchRepository, error) {
	if r.matches == nil {
		return nil, fmt.Errorf("%w: match history database not available (run 'spotlink setup database')", shared.ErrServiceUnavailable)
	}
	return r.matches, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeStatus(line string) {
	fmt.Fprintln(r.status, line)
}
