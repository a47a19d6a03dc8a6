package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository.
type orderRepository struct {
	scope scope
}

// Create сохраняет заказ; клиент и все товары должны существовать.
func (r orderRepository) Create(ctx context.Context, order domain.Order) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.insertOrder(order)
	})
}

// Get возвращает заказ или ErrOrderNotFound.
func (r orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := r.scope.read(ctx, func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		order = cloneOrder(row.order)
		return nil
	})
	return order, err
}

func (r orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit := domain.EffectiveLimit(filter.Limit)
	skip := filter.Offset
	result := make([]domain.Order, 0)

	err := r.scope.read(ctx, func(st *state) error {
		for _, row := range st.sortedOrders() {
			if !matchOrder(st, row.order, filter) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			result = append(result, cloneOrder(row.order))
			if len(result) >= limit {
				break
			}
		}
		return nil
	})
	return result, err
}

func (r orderRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.scope.read(ctx, func(st *state) error {
		count = len(st.orders)
		return nil
	})
	return count, err
}

func (r orderRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.scope.read(ctx, func(st *state) error {
		for _, row := range st.orders {
			total = total.Add(row.order.TotalAmount)
		}
		return nil
	})
	return total, err
}

func (r orderRepository) Delete(ctx context.Context, id string) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.deleteOrder(id)
	})
}

func matchOrder(st *state, o domain.Order, f domain.OrderFilter) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.ProductID != "" && !o.HasProduct(f.ProductID) {
		return false
	}
	if f.TotalMin != nil && o.TotalAmount.LessThan(*f.TotalMin) {
		return false
	}
	if f.TotalMax != nil && o.TotalAmount.GreaterThan(*f.TotalMax) {
		return false
	}
	if f.DateFrom != nil && o.OrderDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && o.OrderDate.After(*f.DateTo) {
		return false
	}
	if f.CustomerNameContains != "" {
		row, ok := st.customers[o.CustomerID]
		if !ok || !containsFold(row.customer.Name, f.CustomerNameContains) {
			return false
		}
	}
	if f.ProductNameContains != "" {
		matched := false
		for _, pid := range o.ProductIDs {
			if row, ok := st.products[pid]; ok && containsFold(row.product.Name, f.ProductNameContains) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.ProductIDs = append([]string(nil), src.ProductIDs...)
	return dst
}

var _ domain.OrderRepository = orderRepository{}
