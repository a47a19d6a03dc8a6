package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// CreateProduct проверяет и сохраняет товар. Ошибки цены и остатка копятся независимо.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Outcome[domain.Product], error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)

	return runMutation(ctx, s, opCreateProduct, func(ctx context.Context, tx domain.Tx) (domain.Outcome[domain.Product], error) {
		var report domain.ErrorReport
		report.Append(validateRequired(fieldName, name, msgNameRequired))

		price, fe := parsePrice(in.Price)
		report.Append(fe)
		stock, fe := validateStock(in.Stock)
		report.Append(fe)

		if !report.Empty() {
			return domain.Failed[domain.Product](msgValidationFailed, report), nil
		}

		product := domain.Product{
			ID:          s.newID(),
			Name:        name,
			Description: description,
			Price:       price,
			Stock:       stock,
			CreatedAt:   s.timestamp(),
		}
		if err := tx.Products().Create(ctx, product); err != nil {
			return domain.Outcome[domain.Product]{}, fmt.Errorf("create product: %w", err)
		}
		if err := s.enqueueEvent(ctx, tx, domain.AggregateProduct, product.ID, domain.EventProductCreated, newProductEvent(product)); err != nil {
			return domain.Outcome[domain.Product]{}, err
		}

		return domain.Succeeded(product, msgProductCreated), nil
	})
}
