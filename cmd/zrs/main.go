// Command zrs runs the media request portal: the HTTP API used by the web
// frontend and the Discord bot used by administrators, both backed by the
// same flat-record stores and upstream clients.
//
// Startup order: env → config → logging → tracing → stores → upstream
// clients → services → Discord bot → HTTP server. Shutdown reverses it on
// SIGINT/SIGTERM with a bounded grace period.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zerodown/zrs-backend/internal/config"
	"github.com/zerodown/zrs-backend/internal/discord"
	httpapi "github.com/zerodown/zrs-backend/internal/http"
	"github.com/zerodown/zrs-backend/internal/jellyfin"
	"github.com/zerodown/zrs-backend/internal/observability"
	"github.com/zerodown/zrs-backend/internal/services"
	"github.com/zerodown/zrs-backend/internal/staging"
	"github.com/zerodown/zrs-backend/internal/store"
	"github.com/zerodown/zrs-backend/internal/sysutil"
	"github.com/zerodown/zrs-backend/internal/tmdb"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	// Local development convenience; a missing .env is not an error.
	if !sysutil.IsTruthy(os.Getenv("SKIP_DOTENV")) {
		_ = godotenv.Load()
	}

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("gin_mode", cfg.GinMode).Msg("starting zrs-backend")

	// Tracing
	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Stores
	requests, err := store.OpenRequestStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("opening request store")
	}
	subscriptions, err := store.OpenSubscriptionStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("opening subscription store")
	}

	// Upstream clients
	jf := jellyfin.New(cfg.Jellyfin.ServerURL, cfg.Jellyfin.APIKey, nil)
	catalog := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.Language, nil)

	// Services. The request notifier needs the bot session, so the bot is
	// built first and the notifier attached after.
	subSvc := &services.SubscriptionService{Store: subscriptions, Directory: jf}
	workflow := &services.SubscriptionWorkflow{
		Staging:   staging.New(cfg.StagingTTL),
		Subs:      subSvc,
		Directory: jf,
	}
	reqSvc := &services.RequestService{
		Store:   requests,
		Catalog: catalog,
		Library: jf,
	}

	bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.AppID, cfg.Discord.GuildID, reqSvc, workflow)
	if err != nil {
		log.Fatal().Err(err).Msg("building discord bot")
	}
	reqSvc.Notifier = discord.NewNotifier(bot.Session(), cfg.Discord.ChannelID)

	if err := bot.Start(); err != nil {
		log.Fatal().Err(err).Msg("starting discord bot")
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		Auth:     jf,
		Catalog:  catalog,
		Requests: reqSvc,
		Subs:     subSvc,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := bot.Close(); err != nil {
		log.Error().Err(err).Msg("discord shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
