package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/vladislavdragonenkov/crm/internal/metrics"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
	"github.com/vladislavdragonenkov/crm/internal/service/jobs"
	"github.com/vladislavdragonenkov/crm/internal/storage/redislock"
	"github.com/vladislavdragonenkov/crm/internal/version"
)

// jobRunner — периодическая задача с циклом до отмены ctx.
type jobRunner interface {
	Run(ctx context.Context)
}

// backgroundJobs держит ресурсы периодических задач.
type backgroundJobs struct {
	workers []jobRunner
	closers []func() error
	redis   *redis.Client
}

// initJobs собирает периодические задачи. Redis и файл журнала необязательны:
// при ошибке подключения задачи работают без блокировки.
func initJobs(ctx context.Context, cfg Config, svc *crm.Service, m *metrics.CRMMetrics, logger *log.Entry) (*backgroundJobs, error) {
	bg := &backgroundJobs{}

	jobLogger := logger.WithField("component", "jobs")
	if cfg.JobLogFile != "" {
		fileLogger, closeFn, err := jobs.NewFileLogger(cfg.JobLogFile, logger.Logger.GetLevel())
		if err != nil {
			return nil, fmt.Errorf("open job log file %s: %w", cfg.JobLogFile, err)
		}
		jobLogger = fileLogger
		bg.closers = append(bg.closers, closeFn)
	}

	common := []jobs.Option{jobs.WithLogger(jobLogger), jobs.WithMetrics(m)}
	if cfg.RedisAddr != "" {
		client, err := redislock.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			logger.WithError(err).Warn("redis is unavailable, periodic jobs run without distributed lock")
		} else {
			bg.redis = client
			bg.closers = append(bg.closers, client.Close)
			common = append(common, jobs.WithLocker(redislock.New(client)))
		}
	}

	conn, err := grpcsvc.Dial(cfg.heartbeatTarget(), grpc.WithUserAgent(version.ClientID("crm-heartbeat")))
	if err != nil {
		bg.close(logger)
		return nil, err
	}
	bg.closers = append(bg.closers, conn.Close)
	client := grpcsvc.NewClient(conn)
	probe := jobs.ProbeFunc(func(ctx context.Context) (string, error) {
		resp, err := client.Hello(ctx)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	})

	with := func(interval jobs.Option) []jobs.Option {
		return append(append([]jobs.Option{}, common...), interval)
	}
	bg.workers = []jobRunner{
		jobs.NewHeartbeatWorker(probe, with(jobs.WithInterval(cfg.HeartbeatInterval))...),
		jobs.NewRestockWorker(svc, with(jobs.WithInterval(cfg.RestockInterval))...),
		jobs.NewReportWorker(svc, with(jobs.WithInterval(cfg.ReportInterval))...),
		jobs.NewReminderWorker(svc, with(jobs.WithInterval(cfg.ReminderInterval))...),
	}
	return bg, nil
}

// start запускает задачи; возвращённая функция ждёт их завершения после отмены ctx.
func (bg *backgroundJobs) start(ctx context.Context) func() {
	var wg sync.WaitGroup
	for _, w := range bg.workers {
		wg.Add(1)
		go func(w jobRunner) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	return wg.Wait
}

func (bg *backgroundJobs) close(logger *log.Entry) {
	for i := len(bg.closers) - 1; i >= 0; i-- {
		if err := bg.closers[i](); err != nil {
			logger.WithError(err).Warn("failed to release job resource")
		}
	}
	bg.closers = nil
}
