package app

import "testing"

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GRPCAddr != ":50051" {
		t.Errorf("expected GRPCAddr :50051, got %s", cfg.GRPCAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverMemory, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if cfg.KafkaBrokers != "" {
		t.Error("expected kafka to be disabled by default")
	}
	if cfg.KafkaTopic != "crm.events" || cfg.KafkaDLQTopic != "crm.dlq" {
		t.Errorf("unexpected topics: %s %s", cfg.KafkaTopic, cfg.KafkaDLQTopic)
	}
	if cfg.OutboxPollInterval <= 0 || cfg.OutboxBatchSize <= 0 || cfg.OutboxMaxAttempts <= 0 {
		t.Error("expected positive outbox settings")
	}
	if cfg.HeartbeatInterval <= 0 || cfg.RestockInterval <= 0 || cfg.ReportInterval <= 0 || cfg.ReminderInterval <= 0 {
		t.Error("expected positive job intervals")
	}
}

func TestConfig_HeartbeatTarget(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{cfg: Config{GRPCAddr: ":50051"}, want: "localhost:50051"},
		{cfg: Config{GRPCAddr: "10.0.0.5:50051"}, want: "10.0.0.5:50051"},
		{cfg: Config{GRPCAddr: ":50051", HeartbeatTarget: "crm:7000"}, want: "crm:7000"},
	}
	for _, tc := range cases {
		if got := tc.cfg.heartbeatTarget(); got != tc.want {
			t.Fatalf("heartbeatTarget(%+v) = %s, want %s", tc.cfg, got, tc.want)
		}
	}
}
