package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/backup"
	"github.com/Kauanrodrigues01/academy/internal/config"
	"github.com/Kauanrodrigues01/academy/internal/database"
	"github.com/Kauanrodrigues01/academy/internal/email"
	"github.com/Kauanrodrigues01/academy/internal/jobs"
	"github.com/Kauanrodrigues01/academy/internal/logging"
	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/server"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/validate"
	ws "github.com/Kauanrodrigues01/academy/internal/websocket"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before the environment")
	restoreID := flag.Int64("restore-backup", 0, "restore the backup with this id over the database file and exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, *restoreID, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func backupConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		Endpoint:      cfg.Backup.Endpoint,
		Bucket:        cfg.Backup.Bucket,
		Region:        cfg.Backup.Region,
		AccessKey:     cfg.Backup.AccessKey,
		SecretKey:     cfg.Backup.SecretKey,
		Passphrase:    cfg.Backup.Passphrase,
		Hour:          cfg.Backup.Hour,
		RetentionDays: cfg.Backup.RetentionDays,
		Location:      cfg.Location,
	}
}

func run(cfg *config.Config, restoreID int64, logger *slog.Logger) error {
	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warn("ACADEMY_SECRET_KEY is not set, using the development default")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	backups := backup.NewManager(backupConfig(cfg), db, m, logger)
	if cfg.Backup.S3Configured() && cfg.Backup.Passphrase == "" {
		logger.Warn("ACADEMY_BACKUP_PASSPHRASE is not set, backups are uploaded unencrypted")
	}

	if restoreID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := backups.Restore(ctx, restoreID, cfg.DBPath); err != nil {
			return fmt.Errorf("restore backup %d: %w", restoreID, err)
		}
		logger.Info("restore finished, start the server again to use it", "id", restoreID)
		return nil
	}

	if err := ensureAdmin(cfg, store.NewStaffStore(db), logger); err != nil {
		return err
	}

	hub := ws.NewHub(logger)
	defer hub.Close()

	svc := service.New(db, service.Options{
		Location: cfg.Location,
		Notifier: hub,
		Metrics:  m,
		Logger:   logger,
	})

	mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, email.WithLogger(logger))
	if !mailer.Configured() {
		logger.Warn("ACADEMY_POSTMARK_TOKEN is not set, password reset e-mails will only be logged")
	}

	srv, err := server.New(db, svc, hub, m, backups, mailer, server.Config{
		BaseURL:      cfg.BaseURL,
		SecretKey:    cfg.SecretKey,
		Location:     cfg.Location,
		MetricsToken: cfg.MetricsToken,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := jobs.NewScheduler(svc, srv.SessionStore(), srv.RateLimiter(), m, logger, cfg.StatusRefreshInterval)
	scheduler.Start(ctx)
	backups.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("academy running", "addr", httpServer.Addr, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	scheduler.Stop()
	backups.Stop()
	return nil
}

// ensureAdmin creates the bootstrap administrator from the environment when
// ACADEMY_ADMIN_CPF and ACADEMY_ADMIN_PASSWORD are set.
func ensureAdmin(cfg *config.Config, staff *store.StaffStore, logger *slog.Logger) error {
	if cfg.AdminCPF == "" || cfg.AdminPassword == "" {
		n, err := staff.Count()
		if err != nil {
			return err
		}
		if n == 0 {
			logger.Warn("no staff accounts yet, set ACADEMY_ADMIN_CPF and ACADEMY_ADMIN_PASSWORD to create one")
		}
		return nil
	}

	cpf := validate.NormalizeCPF(cfg.AdminCPF)
	if !validate.IsValidCPF(cpf) {
		return fmt.Errorf("ACADEMY_ADMIN_CPF %q is not a valid CPF", cfg.AdminCPF)
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	st, created, err := staff.EnsureAdmin(cpf, cfg.AdminEmail, "Administrador", hash)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("administrator created", "staff_id", st.ID)
	}
	return nil
}
