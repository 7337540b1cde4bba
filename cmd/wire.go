package main

import (
	"database/sql"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlink/internal/matcher"
	"github.com/desertthunder/spotlink/internal/repositories"
	"github.com/desertthunder/spotlink/internal/server"
	"github.com/desertthunder/spotlink/internal/services"
	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/desertthunder/spotlink/internal/tasks"
)

// wire builds the runner's dependencies from config.
//
// Missing credentials leave the resolver unset so node and history commands still work.
// An unopenable database disables match history. The returned func closes what was opened.
func wire(config *shared.Config, logger *log.Logger) (RunnerOpts, func()) {
	httpClient := &http.Client{Timeout: config.HTTP.Timeout()}
	node := nodeFromConfig(config.Lavalink)
	lavalink := services.NewLavalinkService(node, httpClient, config.Lavalink.RequestsPerSecond)
	metrics := server.NewMetrics(nil)

	opts := RunnerOpts{
		Config:  config,
		Node:    lavalink,
		API:     services.NewAPIService(node, httpClient),
		Metrics: metrics,
		Logger:  logger,
	}

	var db *sql.DB
	cleanup := func() {
		if db != nil {
			db.Close()
			db = nil
		}
	}

	var recorder tasks.MatchRecorder
	if d, err := shared.OpenDatabase(config.Database); err != nil {
		logger.Warn("match history disabled", "path", config.Database.Path, "error", err)
	} else {
		db = d
		repo := repositories.NewMatchRepository(db)
		opts.Matches = repo
		recorder = repositories.NewMatchRecorder(repo)
	}

	if err := config.Validate(); err != nil {
		logger.Debug("resolver disabled", "error", err)
		opts.ResolverErr = err
		return opts, cleanup
	}

	spotifyConf := config.Credentials.Spotify
	creds, err := services.NewCredentialManager(services.CredentialOpts{
		ClientID:     spotifyConf.ClientID,
		ClientSecret: spotifyConf.ClientSecret,
		TokenURL:     spotifyConf.TokenURL,
		HTTPClient:   httpClient,
		RetryDelay:   spotifyConf.RetryDelay(),
		Logger:       logger,
	})
	if err != nil {
		opts.ResolverErr = err
		return opts, cleanup
	}

	spotify := services.NewSpotifyService(creds, spotifyConf.APIURL, httpClient)
	var catalog tasks.Catalog = spotify
	if size := config.Cache.CatalogSize; size > 0 {
		cached, err := services.NewCachedCatalog(spotify, size)
		if err != nil {
			logger.Warn("catalog cache disabled", "error", err)
		} else {
			catalog = cached
		}
	}

	resolver, err := tasks.NewResolver(tasks.ResolverOpts{
		Catalog:     catalog,
		Matcher:     matcher.New(lavalink, logger),
		Credentials: creds,
		Recorder:    recorder,
		Observer:    metrics,
		Concurrency: config.Matching.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		opts.ResolverErr = err
		return opts, cleanup
	}
	opts.Resolver = resolver

	return opts, cleanup
}

func nodeFromConfig(c shared.LavalinkConfig) services.Node {
	return services.Node{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		Secure:   c.Secure,
	}
}
