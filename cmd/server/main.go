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

	router "github.com/ghostline/relay/internal/adapters/http"
	wssignal "github.com/ghostline/relay/internal/adapters/signal"
	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/config"
	"github.com/ghostline/relay/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	rooms := app.NewRoomRegistry()
	parts := app.NewParticipantRegistry()
	guard := app.NewBruteForceGuard(cfg.BruteForceMax, cfg.BruteForceWindow)
	limiter := app.NewEventRateLimiter(budgets(cfg))
	codes := app.NewCodeGenerator(rooms, cfg.CodeAttempts)
	tiers := app.NewStaticResolver(
		domain.Tier{Name: "free", MaxRooms: cfg.FreeMaxRooms},
		domain.Tier{Name: "pro", MaxRooms: cfg.ProMaxRooms},
		cfg.ProDevices,
	)

	ctl := wssignal.NewController(cfg, rooms, parts, guard, limiter, codes, tiers)

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Ghostline relay started")
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

func budgets(cfg *config.Config) map[string]app.Budget {
	out := make(map[string]app.Budget, len(cfg.RateLimits))
	for event, b := range cfg.RateLimits {
		out[event] = app.Budget{Max: b.Max, Window: b.Window}
	}
	return out
}
