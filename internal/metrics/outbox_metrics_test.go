package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetrics_RecordPublish(t *testing.T) {
	m := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordPublish(PublishSent)
	m.RecordPublish(PublishSent)
	m.RecordPublish(PublishDLQFailed)

	if got := metricValue(t, m.publishAttempts.WithLabelValues(PublishSent)); got != 2 {
		t.Fatalf("expected 2 sent attempts, got %v", got)
	}
	if got := metricValue(t, m.publishAttempts.WithLabelValues(PublishDLQFailed)); got != 1 {
		t.Fatalf("expected 1 dlq failure, got %v", got)
	}
}

func TestOutboxMetrics_SetBacklog(t *testing.T) {
	m := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	m.SetBacklog(3, now.Add(-90*time.Second), now)
	if got := metricValue(t, m.pendingRecords); got != 3 {
		t.Fatalf("expected pending 3, got %v", got)
	}
	if got := metricValue(t, m.oldestPendingAge); got != 90 {
		t.Fatalf("expected age 90s, got %v", got)
	}

	// часы сервиса отстают от времени записи
	m.SetBacklog(1, now.Add(time.Minute), now)
	if got := metricValue(t, m.oldestPendingAge); got != 0 {
		t.Fatalf("negative age must clamp to 0, got %v", got)
	}

	m.SetBacklog(0, time.Time{}, now)
	if got := metricValue(t, m.pendingRecords); got != 0 {
		t.Fatalf("expected empty backlog, got %v", got)
	}
	if got := metricValue(t, m.oldestPendingAge); got != 0 {
		t.Fatalf("expected zero age for empty backlog, got %v", got)
	}
}

func TestOutboxMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewOutboxMetricsWithRegisterer(reg)
	second := NewOutboxMetricsWithRegisterer(reg)

	first.RecordPublish(PublishFailed)
	second.RecordPublish(PublishFailed)

	if got := metricValue(t, second.publishAttempts.WithLabelValues(PublishFailed)); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}

func TestOutboxMetrics_NilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.RecordPublish(PublishSent)
	m.SetBacklog(5, time.Now(), time.Now())
}
