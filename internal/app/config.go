package app

import "time"

// Поддерживаемые хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска CRM-сервиса.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers — список брокеров через запятую; пустая строка отключает публикацию outbox.
	KafkaBrokers       string
	KafkaTopic         string
	KafkaDLQTopic      string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, после которого /healthz отдаёт degraded; 0 отключает проверку.
	OutboxMaxPending int

	// RedisAddr включает распределённую блокировку периодических задач.
	RedisAddr string

	HeartbeatInterval time.Duration
	// HeartbeatTarget — адрес CRM API для heartbeat; пустой означает собственный GRPCAddr.
	HeartbeatTarget  string
	RestockInterval  time.Duration
	ReportInterval   time.Duration
	ReminderInterval time.Duration
	// JobLogFile — файл журнала задач; пустой означает общий лог процесса.
	JobLogFile string
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          "crm.events",
		KafkaDLQTopic:       "crm.dlq",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		OutboxMaxPending:    1000,
		HeartbeatInterval:   5 * time.Minute,
		RestockInterval:     12 * time.Hour,
		ReportInterval:      7 * 24 * time.Hour,
		ReminderInterval:    24 * time.Hour,
	}
}

// heartbeatTarget возвращает адрес, по которому heartbeat обращается к API.
func (c Config) heartbeatTarget() string {
	if c.HeartbeatTarget != "" {
		return c.HeartbeatTarget
	}
	if len(c.GRPCAddr) > 0 && c.GRPCAddr[0] == ':' {
		return "localhost" + c.GRPCAddr
	}
	return c.GRPCAddr
}
