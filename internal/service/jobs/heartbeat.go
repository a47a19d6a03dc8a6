package jobs

import (
	"context"
	"fmt"
	"time"
)

const (
	heartbeatJob      = "heartbeat"
	heartbeatInterval = 5 * time.Minute
	heartbeatLayout   = "02/01/2006-15:04:05"

	probeAttempts     = 3
	probeTimeout      = 5 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

// APIProbe проверяет, что CRM API отвечает.
type APIProbe interface {
	Hello(ctx context.Context) (string, error)
}

// ProbeFunc адаптирует функцию к APIProbe.
type ProbeFunc func(ctx context.Context) (string, error)

func (f ProbeFunc) Hello(ctx context.Context) (string, error) {
	return f(ctx)
}

// HeartbeatWorker пишет в журнал отметку "CRM is alive" и проверяет API вызовом Hello.
type HeartbeatWorker struct {
	probe  APIProbe
	runner runner
}

// NewHeartbeatWorker создаёт задачу; probe может быть nil, тогда API не проверяется.
func NewHeartbeatWorker(probe APIProbe, options ...Option) *HeartbeatWorker {
	options = append([]Option{WithRetryDelay(defaultRetryDelay)}, options...)
	return &HeartbeatWorker{probe: probe, runner: newRunner(heartbeatJob, heartbeatInterval, options)}
}

func (w *HeartbeatWorker) Run(ctx context.Context) {
	w.runner.loop(ctx, w.beat)
}

// RunOnce выполняет одну проверку. Ошибка означает, что API не ответил ни на одну попытку.
func (w *HeartbeatWorker) RunOnce(ctx context.Context) error {
	return w.runner.execute(ctx, w.beat)
}

func (w *HeartbeatWorker) beat(ctx context.Context) error {
	stamp := w.runner.now().Format(heartbeatLayout)
	logger := w.runner.logger()
	logger.Info(stamp + " CRM is alive")

	if w.probe == nil {
		return nil
	}

	value, err := w.hello(ctx)
	if err != nil {
		logger.WithError(err).Error(fmt.Sprintf("%s check error: %v", stamp, err))
		return err
	}
	logger.Info(fmt.Sprintf("%s hello OK: %s", stamp, value))
	return nil
}

func (w *HeartbeatWorker) hello(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= probeAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		value, err := w.probe.Hello(attemptCtx)
		cancel()
		if err == nil {
			return value, nil
		}
		lastErr = err

		if attempt == probeAttempts || w.runner.opts.RetryDelay == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(w.runner.opts.RetryDelay):
		}
	}
	return "", fmt.Errorf("hello failed after %d attempts: %w", probeAttempts, lastErr)
}
