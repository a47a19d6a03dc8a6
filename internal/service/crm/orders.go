package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// CreateOrder проверяет ссылки на клиента и товары и сохраняет заказ с рассчитанной суммой.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (domain.Outcome[domain.Order], error) {
	customerID := strings.TrimSpace(in.CustomerID)
	productIDs := normalizeProductIDs(in.ProductIDs)

	return runMutation(ctx, s, opCreateOrder, func(ctx context.Context, tx domain.Tx) (domain.Outcome[domain.Order], error) {
		var report domain.ErrorReport

		fe, err := validateCustomerExists(ctx, tx.Customers(), customerID)
		if err != nil {
			return domain.Outcome[domain.Order]{}, err
		}
		report.Append(fe)

		// Без товаров дальше проверять нечего.
		if len(productIDs) == 0 {
			report.Add(fieldProductIDs, msgNoProducts)
			return domain.Failed[domain.Order](msgValidationFailed, report), nil
		}

		products, fe, err := resolveProducts(ctx, tx.Products(), productIDs)
		if err != nil {
			return domain.Outcome[domain.Order]{}, err
		}
		report.Append(fe)

		if !report.Empty() {
			return domain.Failed[domain.Order](msgValidationFailed, report), nil
		}

		now := s.timestamp()
		orderDate := now
		if in.OrderDate != nil {
			orderDate = in.OrderDate.UTC()
		}

		order := domain.Order{
			ID:          s.newID(),
			CustomerID:  customerID,
			ProductIDs:  productIDs,
			OrderDate:   orderDate,
			TotalAmount: OrderTotal(products),
			CreatedAt:   now,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return domain.Outcome[domain.Order]{}, fmt.Errorf("create order: %w", err)
		}
		if err := s.enqueueEvent(ctx, tx, domain.AggregateOrder, order.ID, domain.EventOrderCreated, newOrderEvent(order)); err != nil {
			return domain.Outcome[domain.Order]{}, err
		}

		return domain.Succeeded(order, msgOrderCreated), nil
	})
}
