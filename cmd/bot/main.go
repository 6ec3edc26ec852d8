// Command bot runs the booking assistant: the transport webhook, the dialogue
// engine, the admission gate, the booking ledger with periodic SQLite
// persistence, and the operator admin API.
//
// Configuration comes from the environment (a .env file is honored when
// present). The process shuts down gracefully on SIGINT/SIGTERM: the HTTP
// server drains first, then the ledger is flushed to disk one last time.
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

	"github.com/arenalk/bookingbot/internal/booking"
	"github.com/arenalk/bookingbot/internal/bot"
	"github.com/arenalk/bookingbot/internal/clock"
	"github.com/arenalk/bookingbot/internal/config"
	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/engine"
	"github.com/arenalk/bookingbot/internal/gate"
	httpapi "github.com/arenalk/bookingbot/internal/http"
	"github.com/arenalk/bookingbot/internal/notify"
	"github.com/arenalk/bookingbot/internal/observability"
	"github.com/arenalk/bookingbot/internal/repo"
	"github.com/arenalk/bookingbot/internal/session"
	"github.com/arenalk/bookingbot/internal/sysutil"
	"github.com/arenalk/bookingbot/internal/transport"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Msg("starting bookingbot")

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled {
		shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			log.Fatal().Err(err).Msg("opentelemetry setup failed")
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				log.Warn().Err(err).Msg("opentelemetry shutdown failed")
			}
		}()
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	ledger := booking.NewLedger(booking.DefaultPolicies(cfg.RecreioMaxPerSlot, cfg.RecreioSlots))
	if snap, err := repo.LoadSnapshot(ctx, db); err != nil {
		// Starting empty beats refusing to start; the transport keeps
		// delivering either way.
		log.Warn().Err(err).Msg("ledger snapshot load failed; starting empty")
	} else {
		ledger.Restore(snap)
		log.Info().Int("bookings", len(snap)).Msg("ledger restored")
	}

	sessions := session.NewStore()
	counters := &observability.Counters{}

	admission := gate.New(gate.Config{
		MaxMessages:        cfg.RateMaxMessages,
		Window:             cfg.RateWindow,
		PauseDuration:      cfg.PauseDuration,
		ReactivateKeywords: []string{"MENU", "/reativar"},
	}, clock.System{}, log.Logger)

	var notifier engine.Notifier = notify.Noop{}
	targets := telegramTargets(cfg)
	if len(targets) > 0 {
		notifier = notify.NewTelegram(targets)
	}

	eng := engine.New(ledger, sessions, admission, notifier, counters, log.Logger)

	var replier bot.Replier = transport.LogReplier{Log: log.Logger}
	if cfg.OutboundURL != "" {
		replier = transport.NewHTTPReplier(cfg.OutboundURL, cfg.OutboundTimeout)
	}

	router := &bot.Router{
		Gate:     admission,
		Sessions: sessions,
		Engine:   eng,
		Replier:  replier,
		Counters: counters,
		Log:      log.Logger,
	}

	saver := &repo.Saver{DB: db, Source: ledger, Interval: cfg.SaveInterval, Log: log.Logger}
	saverDone := make(chan struct{})
	go func() {
		defer close(saverDone)
		saver.Run(ctx)
	}()

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Bot:      router,
		Ledger:   ledger,
		Gate:     admission,
		Counters: counters,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	// Drain in-flight requests before the final ledger flush so no turn is
	// lost between the webhook and the snapshot.
	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown incomplete")
	}

	stop()
	<-saverDone
	log.Info().Msg("bookingbot stopped")
}

// telegramTargets builds the per-unit notification map from configuration.
// Units missing either the token or chat id are left out.
func telegramTargets(cfg config.Config) map[domain.Unit]notify.UnitTarget {
	targets := make(map[domain.Unit]notify.UnitTarget)
	if cfg.TelegramRecreio.Token != "" && cfg.TelegramRecreio.ChatID != "" {
		targets[domain.UnitRecreio] = notify.UnitTarget{
			Token:  cfg.TelegramRecreio.Token,
			ChatID: cfg.TelegramRecreio.ChatID,
		}
	}
	if cfg.TelegramBangu.Token != "" && cfg.TelegramBangu.ChatID != "" {
		targets[domain.UnitBangu] = notify.UnitTarget{
			Token:  cfg.TelegramBangu.Token,
			ChatID: cfg.TelegramBangu.ChatID,
		}
	}
	return targets
}
