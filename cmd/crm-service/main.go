package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/app"
	"github.com/vladislavdragonenkov/crm/internal/version"
)

const (
	envGRPCAddr            = "CRM_GRPC_ADDR"
	envMetricsAddr         = "CRM_METRICS_ADDR"
	envStorageDriver       = "CRM_STORAGE_DRIVER"
	envPostgresDSN         = "CRM_POSTGRES_DSN"
	envPostgresAutoMigrate = "CRM_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers        = "CRM_KAFKA_BROKERS"
	envKafkaTopic          = "CRM_KAFKA_TOPIC"
	envKafkaDLQTopic       = "CRM_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval  = "CRM_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize     = "CRM_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts   = "CRM_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay    = "CRM_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending    = "CRM_OUTBOX_MAX_PENDING"
	envRedisAddr           = "CRM_REDIS_ADDR"
	envHeartbeatInterval   = "CRM_HEARTBEAT_INTERVAL"
	envHeartbeatTarget     = "CRM_HEARTBEAT_TARGET"
	envRestockInterval     = "CRM_RESTOCK_INTERVAL"
	envReportInterval      = "CRM_REPORT_INTERVAL"
	envReminderInterval    = "CRM_REMINDER_INTERVAL"
	envJobLogFile          = "CRM_JOB_LOG_FILE"
	envLogLevel            = "CRM_LOG_LEVEL"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования; неизвестный уровень даёт info.
func setupLogger(lookup envLookup) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	raw, ok := lookup(envLogLevel)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", envLogLevel, err)
	}
	log.SetLevel(level)
	return nil
}

// readConfigFromEnv собирает конфигурацию; некорректные значения заменяются значениями
// по умолчанию и возвращаются предупреждениями.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, raw, err))
	}

	setString := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	setBool := func(key string, target *bool) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		v, err := parseBool(raw)
		if err != nil {
			warn(key, raw, err)
			return
		}
		*target = v
	}
	setInt := func(key string, target *int, valid func(int) bool, rule string) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		v, err := parseInt(raw, valid, rule)
		if err != nil {
			warn(key, raw, err)
			return
		}
		*target = v
	}
	setDuration := func(key string, target *time.Duration, valid func(time.Duration) bool, rule string) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		v, err := parseDuration(raw, valid, rule)
		if err != nil {
			warn(key, raw, err)
			return
		}
		*target = v
	}

	positiveInt := func(v int) bool { return v > 0 }
	nonNegativeInt := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	setString(envGRPCAddr, &cfg.GRPCAddr)
	setString(envMetricsAddr, &cfg.MetricsAddr)
	setString(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	setString(envPostgresDSN, &cfg.PostgresDSN)
	setBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)

	setString(envKafkaBrokers, &cfg.KafkaBrokers)
	setString(envKafkaTopic, &cfg.KafkaTopic)
	setString(envKafkaDLQTopic, &cfg.KafkaDLQTopic)
	setDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	setInt(envOutboxBatchSize, &cfg.OutboxBatchSize, positiveInt, "must be > 0")
	setInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positiveInt, "must be > 0")
	setDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")
	setInt(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegativeInt, "must be >= 0")

	setString(envRedisAddr, &cfg.RedisAddr)
	setDuration(envHeartbeatInterval, &cfg.HeartbeatInterval, positiveDuration, "must be > 0")
	setString(envHeartbeatTarget, &cfg.HeartbeatTarget)
	setDuration(envRestockInterval, &cfg.RestockInterval, positiveDuration, "must be > 0")
	setDuration(envReportInterval, &cfg.ReportInterval, positiveDuration, "must be > 0")
	setDuration(envReminderInterval, &cfg.ReminderInterval, positiveDuration, "must be > 0")
	setString(envJobLogFile, &cfg.JobLogFile)

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(v) {
		return 0, errors.New(rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(v) {
		return 0, errors.New(rule)
	}
	return v, nil
}

func main() {
	if err := setupLogger(os.LookupEnv); err != nil {
		log.WithError(err).Warn("используем уровень логирования info")
	}
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"kafka":        cfg.KafkaBrokers != "",
		"redis":        cfg.RedisAddr != "",
		"build":        version.String(),
	}).Info("запускаем CRM service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("CRM service остановлен")
}
