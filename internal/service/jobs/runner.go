// Package jobs содержит периодические задачи CRM: heartbeat, пополнение остатков,
// отчёт и напоминания о заказах.
package jobs

import (
	"context"
	"errors"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

const (
	defaultLockTTL     = time.Minute
	releaseLockTimeout = 2 * time.Second

	resultSkipped = "skipped"
)

// ErrLocked — задачу в этот тик выполняет другая реплика.
var ErrLocked = errors.New("job is locked by another instance")

// Locker захватывает распределённую блокировку задачи.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error)
}

// Options задаёт общие параметры задач.
type Options struct {
	Logger     *log.Entry
	Locker     Locker
	Metrics    *metrics.CRMMetrics
	Interval   time.Duration
	LockTTL    time.Duration
	RetryDelay time.Duration
	Now        func() time.Time
}

// Option настраивает задачу.
type Option func(*Options)

func WithLogger(logger *log.Entry) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithLocker включает распределённую блокировку.
func WithLocker(locker Locker) Option {
	return func(o *Options) { o.Locker = locker }
}

func WithMetrics(m *metrics.CRMMetrics) Option {
	return func(o *Options) { o.Metrics = m }
}

func WithInterval(interval time.Duration) Option {
	return func(o *Options) { o.Interval = interval }
}

// WithLockTTL ограничивает время жизни блокировки, если реплика упала не освободив её.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *Options) { o.LockTTL = ttl }
}

// WithRetryDelay задаёт паузу между попытками heartbeat-проверки.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *Options) { o.RetryDelay = delay }
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// runner — общий цикл задачи: тикер, блокировка, метрики.
type runner struct {
	name string
	opts Options
}

func newRunner(name string, defaultInterval time.Duration, options []Option) runner {
	opts := Options{Interval: defaultInterval, LockTTL: defaultLockTTL, Now: time.Now}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "job")
	}
	opts.Logger = opts.Logger.WithField("job", name)
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return runner{name: name, opts: opts}
}

func (r runner) logger() *log.Entry {
	return r.opts.Logger
}

func (r runner) now() time.Time {
	return r.opts.Now()
}

// loop выполняет задачу сразу и затем по тикеру до отмены ctx.
func (r runner) loop(ctx context.Context, once func(ctx context.Context) error) {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.logger().WithField("interval", r.opts.Interval.String()).Info("job started")
	_ = r.execute(ctx, once)
	for {
		select {
		case <-ctx.Done():
			r.logger().Info("job stopped")
			return
		case <-ticker.C:
			_ = r.execute(ctx, once)
		}
	}
}

func (r runner) execute(ctx context.Context, once func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if r.opts.Locker != nil {
		release, ok, err := r.opts.Locker.TryLock(ctx, r.name, r.opts.LockTTL)
		if err != nil {
			r.logger().WithError(err).Warn("failed to acquire job lock")
			r.opts.Metrics.RecordJobRun(r.name, metrics.ResultError)
			return err
		}
		if !ok {
			r.logger().Debug("job is running on another instance")
			r.opts.Metrics.RecordJobRun(r.name, resultSkipped)
			return ErrLocked
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseLockTimeout)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				r.logger().WithError(err).Warn("failed to release job lock")
			}
		}()
	}

	if err := once(ctx); err != nil {
		r.opts.Metrics.RecordJobRun(r.name, metrics.ResultError)
		return err
	}
	r.opts.Metrics.RecordJobRun(r.name, metrics.ResultSuccess)
	return nil
}

// NewFileLogger открывает файл журнала задач в режиме дописывания.
// Возвращённую функцию нужно вызвать при остановке, чтобы закрыть файл.
func NewFileLogger(path string, level log.Level) (*log.Entry, func() error, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New()
	logger.SetOutput(file)
	logger.SetLevel(level)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	return logger.WithField("component", "jobs"), file.Close, nil
}
