package crm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

// UpdateLowStockProducts пополняет на RestockQuantity каждый товар с остатком ниже
// LowStockThreshold. Весь проход выполняется в одной транзакции.
func (s *Service) UpdateLowStockProducts(ctx context.Context) (domain.RestockResult, error) {
	start := time.Now()
	var result domain.RestockResult

	err := s.store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		filter := domain.LowStock()
		filter.Limit = math.MaxInt32

		low, err := tx.Products().List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list low stock products: %w", err)
		}

		updated := make([]domain.Product, 0, len(low))
		for _, product := range low {
			product.Stock += domain.RestockQuantity
			if err := tx.Products().UpdateStock(ctx, product.ID, product.Stock); err != nil {
				return fmt.Errorf("restock product %s: %w", product.ID, err)
			}
			if err := s.enqueueEvent(ctx, tx, domain.AggregateProduct, product.ID, domain.EventProductRestocked, newProductEvent(product)); err != nil {
				return err
			}
			updated = append(updated, product)
		}

		result = domain.RestockResult{Updated: updated, Message: restockMessage(len(updated))}
		return nil
	})
	if err != nil {
		s.metrics.RecordMutation(opRestock, metrics.ResultError, time.Since(start))
		s.logger.WithError(err).WithField("operation", opRestock).Error("restock failed")
		return domain.RestockResult{}, err
	}

	s.metrics.RecordMutation(opRestock, metrics.ResultSuccess, time.Since(start))
	s.metrics.SetLowStockProducts(len(result.Updated))
	s.logger.WithField("operation", opRestock).Info(result.Message)
	return result, nil
}

func restockMessage(n int) string {
	if n == 0 {
		return msgNoRestock
	}
	return fmt.Sprintf("%d product(s) restocked successfully.", n)
}
