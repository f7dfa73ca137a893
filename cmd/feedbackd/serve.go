package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apihttp "github.com/mind-engage/feedbackbank/internal/api/http"
	authmw "github.com/mind-engage/feedbackbank/internal/auth/middleware"
	"github.com/mind-engage/feedbackbank/internal/changelog"
	"github.com/mind-engage/feedbackbank/internal/db"
	"github.com/mind-engage/feedbackbank/internal/feedback"
	"github.com/mind-engage/feedbackbank/internal/settings"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

// openDB connects with the configured driver and applies the schema.
func openDB(ctx context.Context) (*sql.DB, db.Driver, error) {
	drv, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, "", err
	}
	dbh, err := db.Open(ctx, drv, cfg.DBDSN)
	if err != nil {
		return nil, "", err
	}
	if err := db.Migrate(ctx, dbh, drv); err != nil {
		_ = dbh.Close()
		return nil, "", err
	}
	return dbh, drv, nil
}

func newService(dbh *sql.DB) (*feedback.Service, *changelog.EventRepo) {
	events := changelog.NewEventRepo(dbh, nil)
	return feedback.NewService(feedback.NewSQLStore(dbh, nil), events, logger), events
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbh, drv, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer dbh.Close()
	logger.Info("database ready", zap.String("driver", string(drv)))

	svc, events := newService(dbh)
	deps := apihttp.Deps{
		Feedback:       svc,
		Settings:       settings.NewStore(dbh, nil),
		Events:         events,
		DB:             dbh,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Log:            logger,
	}
	if cfg.EnableEditorAuth {
		if cfg.EditorPasscodeHash == "" {
			logger.Warn("editor auth enabled without EDITOR_PASSCODE_HASH; every passcode will be rejected")
		}
		deps.Auth = authmw.NewAuthService(cfg.AuthHMACSecret, cfg.EditorTokenTTL, cfg.EditorPasscodeHash)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apihttp.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("editor_auth", cfg.EnableEditorAuth))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
