package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const (
	reportJob      = "crm-report"
	reportInterval = 7 * 24 * time.Hour
	reportLayout   = "2006-01-02 15:04:05"
)

// StatsSource отдаёт агрегаты для отчёта.
type StatsSource interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// ReportWorker пишет в журнал сводку по клиентам, заказам и выручке.
type ReportWorker struct {
	source StatsSource
	runner runner
}

func NewReportWorker(source StatsSource, options ...Option) *ReportWorker {
	return &ReportWorker{source: source, runner: newRunner(reportJob, reportInterval, options)}
}

func (w *ReportWorker) Run(ctx context.Context) {
	w.runner.loop(ctx, w.report)
}

func (w *ReportWorker) RunOnce(ctx context.Context) error {
	return w.runner.execute(ctx, w.report)
}

func (w *ReportWorker) report(ctx context.Context) error {
	stamp := w.runner.now().Format(reportLayout)

	stats, err := w.source.Stats(ctx)
	if err != nil {
		w.runner.logger().WithError(err).Error(fmt.Sprintf("%s - ERROR: %v", stamp, err))
		return fmt.Errorf("collect crm stats: %w", err)
	}

	w.runner.logger().Info(formatReport(stamp, stats))
	return nil
}

func formatReport(stamp string, stats domain.Stats) string {
	return fmt.Sprintf("%s - Report: %d customers, %d orders, %s revenue",
		stamp, stats.Customers, stats.Orders, stats.Revenue.String())
}
