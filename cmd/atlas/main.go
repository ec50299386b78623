package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"atlas/internal/config"
	"atlas/internal/events"
	"atlas/internal/export"
	exportgoogle "atlas/internal/export/google"
	apphttp "atlas/internal/http"
	"atlas/internal/log"
	"atlas/internal/store"
	"atlas/internal/store/firestore"
	"atlas/internal/store/memory"
	"atlas/internal/store/sqlite"
	appsync "atlas/internal/sync"
	"atlas/internal/workflow"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg)
	if err != nil {
		logger.Error("initialize store", log.FieldError, err.Error(), log.FieldBackend, cfg.Backend)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store initialized", log.FieldBackend, cfg.Backend)

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange,
			logger.WithComponent(log.ComponentEvents))
		if err != nil {
			logger.Error("initialize event publisher", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer publisher.Close()
		logger.Info("event publisher connected", "exchange", cfg.AMQPExchange)
	}

	var sheets export.RowWriter
	if cfg.SheetsSpreadsheetID != "" {
		sheets, err = exportgoogle.New(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName, cfg.GoogleCredentialsFile)
		if err != nil {
			logger.Error("initialize sheets export", log.FieldError, err.Error())
			os.Exit(1)
		}
		logger.Info("sheets export configured", "spreadsheet", cfg.SheetsSpreadsheetID)
	}

	identity := store.StaticIdentity(cfg.UserID)
	syncLogger := logger.WithComponent(log.ComponentSync)
	sy := appsync.New(st, identity, appsync.Config{
		Logger: syncLogger,
		OnUpdate: func(state appsync.State) {
			syncLogger.Debug("state updated", log.FieldRevision, state.Revision)
		},
		OnOnboarding: func() {
			syncLogger.Info("new account detected, onboarding pending")
		},
	})
	if err := sy.Start(ctx); err != nil {
		logger.Error("start sync", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer sy.Stop()

	wf := workflow.New(st, identity, publisher, logger.WithComponent(log.ComponentWorkflow))

	srv := apphttp.NewServer(":"+cfg.Port, sy, wf, apphttp.Options{
		Sheets:            sheets,
		HorizonDays:       cfg.ReceivablesHorizonDays,
		DashboardCacheTTL: cfg.DashboardCacheTTL,
		Logger:            logger.WithComponent(log.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, log.FieldBackend, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return sqlite.New(cfg.SQLiteDBPath)
	case "firestore":
		return firestore.New(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentialsFile)
	default:
		return memory.New(), nil
	}
}
