package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Huddle/internal/adapters/http"
	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	var store core.Store
	if cfg.Storage.Driver == "sqlite" {
		db, err := storage.Open(cfg.Storage.DSN)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", cfg.Storage.DSN).Msg("failed to open storage")
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("storage close")
			}
		}()
		store = db
	}

	rooms := app.NewDirectory(store)
	if err := rooms.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to restore rooms")
	}

	o := orch.New(rooms, app.NewRegistry(), app.NewBindings(store))
	o.AutoCreateRooms = cfg.Signal.AutoCreateRooms
	o.LeaveOnDisconnect = cfg.Signal.LeaveOnDisconnect

	ice, err := rtc.NewWebRTCConfig(cfg.ICE)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ice configuration")
	}

	r := router.SetupRouter(ctx, cfg, o, ice)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("storage", cfg.Storage.Driver).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
