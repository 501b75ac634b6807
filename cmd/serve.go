package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/musij/internal/cache"
	"github.com/desertthunder/musij/internal/payments"
	"github.com/desertthunder/musij/internal/repositories"
	"github.com/desertthunder/musij/internal/server"
	"github.com/desertthunder/musij/internal/services"
	"github.com/desertthunder/musij/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// providerFetcher builds the outbound transport for one provider with its
// own rate limit, so one hot provider cannot starve the others.
func providerFetcher(rps float64) *services.HTTPFetcher {
	return services.NewHTTPFetcher(services.FetcherOpts{
		Limiter: rate.NewLimiter(rate.Limit(rps), int(rps)*2),
	})
}

// Serve starts the aggregator HTTP server and blocks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}

	memory := cache.NewMemory(cache.MemoryOpts{})
	defer memory.Close()

	creds := config.Credentials

	var spotify *services.SpotifyService
	if creds.Spotify.ClientID != "" && creds.Spotify.ClientSecret != "" {
		svc, err := services.NewSpotifyService(providerFetcher(10), memory, creds.Spotify.ClientID, creds.Spotify.ClientSecret)
		if err != nil {
			return fmt.Errorf("failed to create spotify service: %w", err)
		}
		spotify = svc
	} else {
		r.logger.Warn("spotify credentials missing, music routes disabled")
	}

	var genius *services.GeniusService
	if creds.Genius.AccessToken != "" {
		genius = services.NewGeniusService(providerFetcher(10), creds.Genius.AccessToken)
	} else {
		r.logger.Warn("genius access token missing, lyrics routes disabled")
	}

	var lastfm *services.LastFMService
	if creds.LastFM.APIKey != "" {
		lastfm = services.NewLastFMService(providerFetcher(5), creds.LastFM.APIKey)
	} else {
		r.logger.Warn("last.fm api key missing, artists routes disabled")
	}

	bandsintown := services.NewBandsintownService(providerFetcher(5), creds.Bandsintown.AppID)

	var stripe *services.StripeService
	var verifier *payments.Verifier
	if creds.Stripe.SecretKey != "" {
		svc, err := services.NewStripeService(providerFetcher(10), creds.Stripe.SecretKey, creds.Stripe.PublishableKey, config.Frontend.URL)
		if err != nil {
			return fmt.Errorf("failed to create stripe service: %w", err)
		}
		stripe = svc

		if creds.Stripe.WebhookSecret != "" {
			verifier = payments.NewVerifier(creds.Stripe.WebhookSecret)
		} else {
			r.logger.Warn("stripe webhook secret missing, webhook route disabled")
		}
	} else {
		r.logger.Warn("stripe secret key missing, payment routes disabled")
	}

	var sessions payments.SessionStore = payments.NewMemoryStore()
	if config.Database.Path != "" {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := repositories.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		sessions = repositories.NewSQLiteSessionStore(db)
		r.logger.Info("using sqlite session store", "path", config.Database.Path)
	}

	srv := server.New(server.Deps{
		Config:      config,
		Logger:      r.logger,
		ReadThrough: cache.NewReadThrough(memory),
		Bandsintown: bandsintown,
		Genius:      genius,
		LastFM:      lastfm,
		Spotify:     spotify,
		Stripe:      stripe,
		Sessions:    sessions,
		Verifier:    verifier,
	})

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(serveCtx)
}
