package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"beachrent/internal/api"
	"beachrent/internal/config"
	"beachrent/internal/database"
	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/google"
	"beachrent/internal/layout"
	"beachrent/internal/logging"
	"beachrent/internal/metrics"
	"beachrent/internal/notify"
	"beachrent/internal/pricing"
	"beachrent/internal/repository"
	"beachrent/internal/scheduler"
	"beachrent/internal/service"
	"beachrent/internal/timeutil"
	"beachrent/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	clock, err := timeutil.NewClock(cfg.Beach.Timezone)
	if err != nil {
		return err
	}
	beachLayout, err := buildLayout(cfg.Beach)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	policy, err := pricing.New(cfg.Beach.Pricing.Beach, cfg.Beach.Pricing.Hotel, cfg.Beach.Pricing.IncludeExtraBedsOrDefault())
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, beachLayout, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	userService := service.NewUserService(db, cfg.Staff, logging.Component(logger, "users"))
	if err := userService.SyncStaff(ctx); err != nil {
		return fmt.Errorf("sync staff: %w", err)
	}

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	eventBus := events.NewEventBus(logging.Component(logger, "events"))
	initNotifier(ctx, cfg, clock, eventBus, logger)

	var syncWorker domain.SyncWorker
	if sheet := initReportsSheet(ctx, cfg, logger); sheet != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		reportWorker := worker.NewReportWorker(db, sheet, redisClient, retryPolicy, logging.Component(logger, "report-worker"))
		go reportWorker.Start(ctx)
		syncWorker = reportWorker
	}

	svcLogger := logging.Component(logger, "service")
	reports := service.NewReportService(db, policy, clock, eventBus, syncWorker, svcLogger)
	reset := service.NewResetService(db, beachLayout, clock, eventBus, svcLogger)
	midnight := scheduler.NewMidnight(reports, reset, clock, initLocker(cfg, redisClient, logger), logging.Component(logger, "scheduler"))
	services := api.Services{
		Rentals:  service.NewRentalService(db, beachLayout, policy, clock, eventBus, svcLogger),
		Extra:    service.NewExtraBedService(db, beachLayout, policy, clock, eventBus, svcLogger),
		Earnings: service.NewEarningsService(db, policy, svcLogger),
		Reports:  reports,
		Reset:    reset,
		Midnight: midnight,
	}

	if cfg.Scheduler.Enabled {
		go midnight.Start(ctx)
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	httpLogger := logging.Component(logger, "http")
	handler := api.NewRouter(
		api.NewHandler(services, clock, httpLogger),
		api.NewJWTAuth(cfg.API.Auth, userService),
		cfg.API,
		httpLogger,
	)
	return serve(ctx, api.NewHTTPServer(cfg.API.HTTP, handler, httpLogger), logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "main"), closer, nil
}

func buildLayout(cfg config.BeachConfig) (*layout.Layout, error) {
	disabled := cfg.DisabledUmbrellas
	if disabled == nil {
		disabled = layout.DefaultDisabled(cfg.Columns, cfg.Rows)
	}
	hotel := cfg.HotelUmbrellas
	if hotel == nil {
		hotel = layout.DefaultHotelBlock()
	}
	return layout.New(cfg.Umbrellas, disabled, hotel)
}

func initDatabase(ctx context.Context, cfg *config.Config, l *layout.Layout, logger *zerolog.Logger) (*database.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	if err := db.Provision(ctx, l); err != nil {
		db.Close()
		return nil, fmt.Errorf("provision umbrellas: %w", err)
	}
	logger.Info().Int("umbrellas", l.Total()).Int("hotel_block", len(l.HotelBlock())).Msg("Umbrellas provisioned")
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initLocker(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.Locker {
	if !cfg.Scheduler.UseLock {
		return nil
	}
	if client == nil {
		logger.Warn().Msg("scheduler lock requested without redis, using in-process lock")
		return repository.NewMemoryLocker()
	}
	return repository.NewFailoverLocker(
		repository.NewRedisLocker(client, "beachrent:"),
		repository.NewMemoryLocker(),
		logging.Component(logger, "locker"),
	)
}

func initNotifier(ctx context.Context, cfg *config.Config, clock *timeutil.Clock, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.ReportChatIDs) == 0 {
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	bot.Debug = cfg.Telegram.Debug

	notifier := notify.NewTelegramNotifier(bot, cfg.Telegram.ReportChatIDs, clock, logging.Component(logger, "notify"))
	notifier.Subscribe(bus)
	go notifier.Start(ctx)
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
}

func initReportsSheet(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.ReportsSheet {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.ReportsSpreadsheetID == "" {
		return nil
	}

	sheet, err := google.NewReportsSheet(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.ReportsSpreadsheetID, cfg.Google.ReportsSheetName)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheet.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets header write failed")
	}

	logger.Info().Msg("google sheets connected")
	return sheet
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}
