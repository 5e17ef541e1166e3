package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"empdesk/internal/api"
	"empdesk/internal/config"
	"empdesk/internal/connectivity"
	"empdesk/internal/domain"
	"empdesk/internal/events"
	"empdesk/internal/export"
	"empdesk/internal/logging"
	"empdesk/internal/metrics"
	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/remote"
	"empdesk/internal/repository"
	"empdesk/internal/service"
	"empdesk/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const balanceCacheTTL = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, profile, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	s, err := store.Open(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open local store")
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		startMetricsListener(cfg.Monitoring, &logger)
	}

	redisClient, balances := initBalanceRepository(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func(c *redis.Client) { _ = repository.Close(c) })(redisClient)
	}

	remoteClient := remote.NewClient(cfg.Remote, &logger)
	eventBus := events.NewEventBus()
	registry := outbox.NewRegistry()
	queue := outbox.NewQueue(s, registry, eventBus, cfg.Sync.ActionTimeout(), &logger)

	watcher := connectivity.NewWatcher(remoteClient, queue, eventBus,
		cfg.Sync.ProbeInterval(), cfg.Sync.DrainInterval(), &logger)

	attendance := service.NewAttendanceService(s, queue, registry, remoteClient,
		watcher.Online, profile.UserID, cfg.Attendance, &logger)
	leave := service.NewLeaveService(s, queue, registry, remoteClient, balances,
		watcher.Online, profile.UserID, &logger)
	mood := service.NewMoodService(s, queue, registry, remoteClient,
		watcher.Online, profile.UserID, &logger)
	ticket := service.NewTicketService(s, queue, registry, remoteClient,
		watcher.Online, profile.UserID, &logger)
	payslip := service.NewPayslipService(s, remoteClient, profile.UserID, &logger)

	// Handlers are all registered; start probing and draining.
	watcher.Start(ctx)

	subscribeSyncEvents(eventBus, &logger)

	exporter := export.NewAttendanceExporter(attendance, cfg.Exports, &logger)

	if cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, attendance, leave, mood, ticket, payslip, queue, exporter, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Read API server error")
			}
		}()
		defer func() {
			_ = apiServer.Shutdown(context.Background())
		}()
	}

	if cfg.Backup.Enabled {
		backupService := store.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	logger.Info().
		Str("user_id", profile.UserID).
		Bool("online", watcher.Online()).
		Msg("empdesk started")

	<-ctx.Done()
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, *models.UserProfile, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	profilePath := os.Getenv("PROFILE_PATH")
	if profilePath == "" {
		profilePath = "configs/profile.yaml"
	}
	profile, err := loadProfile(profilePath)
	if err != nil {
		logger.Error().Err(err).Msgf("Failed to load %s", profilePath)
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, profile, logger, closer, nil
}

func loadProfile(path string) (*models.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var profileConfig struct {
		Profile models.UserProfile `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &profileConfig); err != nil {
		return nil, err
	}
	if profileConfig.Profile.UserID == "" {
		return nil, fmt.Errorf("profile user_id is required")
	}
	return &profileConfig.Profile, nil
}

func initBalanceRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.BalanceRepository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisBalanceRepository(redisClient, balanceCacheTTL)
	fallback := repository.NewMemoryBalanceRepository()
	return redisClient, repository.NewFailoverBalanceRepository(primary, fallback, logger)
}

func startMetricsListener(cfg config.MonitoringConfig, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
		logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("Metrics listener error")
		}
	}()
}

func subscribeSyncEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bus.Subscribe(events.EventOffline, func(event *events.Event) error {
		logger.Warn().Msg("Working offline; mutations will queue locally")
		return nil
	})
	bus.Subscribe(events.EventActionStalled, func(event *events.Event) error {
		logger.Warn().RawJSON("payload", event.Payload).Msg("Pending action has no handler")
		return nil
	})
}
