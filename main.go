package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"AuditDesk/Config"
	"AuditDesk/CronJobs"
	"AuditDesk/FiberConfig"
	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
	"AuditDesk/Slack"
	"AuditDesk/email"
)

func main() {
	cfg, err := Config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}

func run(cfg Config.Config, logger *zap.Logger) error {
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set, sessions are signed with the default secret")
	}

	store, err := Models.Connect(Models.StorageOptions{
		Driver:       cfg.StorageDriver,
		WorkbookPath: cfg.WorkbookPath,
		SQLitePath:   cfg.SQLitePath,
		MySQLDSN:     cfg.MySQLDSN,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	logger.Info("storage ready", zap.String("driver", cfg.StorageDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seeded, err := Models.SeedAdmin(ctx, Models.NewUserRepository(store), cfg.BootstrapAdminUser, cfg.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		logger.Info("bootstrap admin created", zap.String("username", cfg.BootstrapAdminUser))
	}

	clock := Lifecycle.ZoneClock{Location: cfg.Location}

	scheduler := CronJobs.NewScheduler(cfg.Location, 10*time.Minute, logger)
	backup := &CronJobs.BackupJob{Store: store, Dir: cfg.BackupDir, Clock: clock, Log: logger}
	if err := scheduler.Add(cfg.BackupCron, backup); err != nil {
		return err
	}
	digest := &CronJobs.DigestJob{
		Tasks: Models.NewTaskRepository(store),
		To:    cfg.DigestTo,
		Clock: clock,
		Log:   logger,
	}
	if cfg.MailEnabled() {
		digest.Sender = email.NewSMTPSender(cfg.SMTP)
	}
	if cfg.SlackEnabled() {
		digest.Board = Slack.NewBoard(cfg.SlackToken, cfg.SlackChannel, cfg.SlackAPIURL, logger)
	}
	digestSpec := cfg.DigestCron
	if digestSpec != "" && digest.Sender == nil && digest.Board == nil {
		logger.Warn("DIGEST_CRON is set but neither SMTP nor Slack is configured, digest disabled")
		digestSpec = ""
	}
	if err := scheduler.Add(digestSpec, digest); err != nil {
		return err
	}
	scheduler.Start()

	app, err := FiberConfig.NewApp(FiberConfig.Deps{
		Config: cfg,
		Store:  store,
		Clock:  clock,
		Log:    logger,
	})
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server up", zap.String("addr", cfg.Addr), zap.String("timezone", cfg.Timezone))
		errs <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	return app.Shutdown()
}
