package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const (
	restockJob      = "restock"
	restockInterval = 12 * time.Hour
)

// Restocker пополняет заканчивающиеся товары.
type Restocker interface {
	UpdateLowStockProducts(ctx context.Context) (domain.RestockResult, error)
}

// RestockWorker периодически вызывает пополнение и пишет итог в журнал.
type RestockWorker struct {
	crm    Restocker
	runner runner
}

func NewRestockWorker(crm Restocker, options ...Option) *RestockWorker {
	return &RestockWorker{crm: crm, runner: newRunner(restockJob, restockInterval, options)}
}

func (w *RestockWorker) Run(ctx context.Context) {
	w.runner.loop(ctx, w.restock)
}

func (w *RestockWorker) RunOnce(ctx context.Context) error {
	return w.runner.execute(ctx, w.restock)
}

func (w *RestockWorker) restock(ctx context.Context) error {
	logger := w.runner.logger()

	result, err := w.crm.UpdateLowStockProducts(ctx)
	if err != nil {
		logger.WithError(err).Error("restock failed")
		return fmt.Errorf("update low stock products: %w", err)
	}

	stamp := w.runner.now().Format(reportLayout)
	logger.Info(fmt.Sprintf("%s - %s", stamp, result.Message))
	for _, product := range result.Updated {
		logger.Info(fmt.Sprintf("%s - Updated %s: new stock %d", stamp, product.Name, product.Stock))
	}
	return nil
}
