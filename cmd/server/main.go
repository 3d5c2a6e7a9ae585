package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohits-web03/blogapi/internal/api"
	"github.com/rohits-web03/blogapi/internal/api/handlers"
	"github.com/rohits-web03/blogapi/internal/api/services"
	"github.com/rohits-web03/blogapi/internal/auth"
	"github.com/rohits-web03/blogapi/internal/config"
	"github.com/rohits-web03/blogapi/internal/mailer"
	"github.com/rohits-web03/blogapi/internal/markdown"
	"github.com/rohits-web03/blogapi/internal/repositories"
	"github.com/rohits-web03/blogapi/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// @title Blog API
// @version 1.0
// @description Blogging API with email-verified accounts, bearer tokens and owner-scoped articles.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.SecretKey == "" {
		log.Warn().Msg("SECRET_KEY is empty, token issuance will fail")
	}

	shutdownTracing, err := telemetry.Init(ctx, api.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown tracing")
		}
	}()

	db, err := repositories.ConnectDatabase(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := repositories.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	codec, err := auth.NewTokenCodec(cfg.SecretKey, cfg.Algorithm)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}
	revoked := auth.NewRevocationSet()

	identity := services.NewIdentity(db, auth.DefaultHasher, codec, revoked, mailer.New(cfg.Mail), services.IdentityConfig{
		RequireVerification: cfg.EnableVerification,
		AccessTTL:           cfg.AccessTokenTTL,
		VerificationTTL:     cfg.VerificationTTL,
		Policy:              services.NewDomainPolicy(cfg.EnableDomainRestriction, cfg.AllowedEmailDomains),
	})
	articles := services.NewArticles(db, markdown.New())

	mux := api.SetupRouter(api.RouterOptions{
		Handler:  handlers.New(identity, articles),
		Resolver: identity,
		CORS:     cfg.CorsOptions(),
		DB:       db,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: mux,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("starting blog api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		return revoked.Run(gctx, cfg.RevocationSweep)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
