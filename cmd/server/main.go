package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"tms-portal/internal/activity"
	"tms-portal/internal/auth"
	"tms-portal/internal/config"
	"tms-portal/internal/credstore"
	"tms-portal/internal/database"
	"tms-portal/internal/filestore"
	"tms-portal/internal/handlers"
	"tms-portal/internal/logging"
	"tms-portal/internal/middleware"
	"tms-portal/internal/server"
	"tms-portal/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(os.Stdout, cfg.LogLevel, "json")
	if err != nil {
		return err
	}

	var db *gorm.DB
	if cfg.UsesDatabase() {
		db, err = database.Open(ctx, cfg.DBDSN, logger)
		if err != nil {
			return err
		}
		defer database.Close(db)
	}

	store, err := credstore.New(cfg.CredentialBackend, cfg.CredentialPath, db)
	if err != nil {
		return err
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	resolver := auth.NewResolver(store, hasher, logger)

	// журнал действий лежит рядом с пользователями
	var act activity.Log
	if db != nil {
		act = activity.NewDBLog(db)
	} else {
		act, err = activity.NewFileLog(cfg.LogFile)
		if err != nil {
			return err
		}
	}

	files, err := filestore.New(cfg.UploadDir, cfg.ProjectsDir)
	if err != nil {
		return err
	}

	userSvc := users.NewService(store, hasher, act, logger)
	if err := userSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("cannot create bootstrap admin: %w", err)
	}

	tokenKey, err := auth.TokenKey([]byte(cfg.SessionSecret))
	if err != nil {
		return err
	}
	remember := middleware.Remember{Cookie: cfg.RememberCookie, Secret: tokenKey}
	h := handlers.New(resolver, userSvc, files, act, handlers.Options{
		Remember:      remember,
		RememberTTL:   cfg.RememberTTL,
		SecureCookies: cfg.CookieSecure,
	}, logger)

	r := server.NewRouter(server.Deps{
		Handler:       h,
		Users:         resolver,
		Remember:      remember,
		SessionSecret: []byte(cfg.SessionSecret),
		SecureCookies: cfg.CookieSecure,
		Log:           logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", srv.Addr, "credential_backend", cfg.CredentialBackend)
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

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
