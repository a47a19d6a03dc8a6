package memory

import (
	"context"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// productRepository — in-memory реализация ProductRepository.
type productRepository struct {
	scope scope
}

func (r productRepository) Create(ctx context.Context, product domain.Product) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.insertProduct(product)
	})
}

// Get возвращает товар или ErrProductNotFound.
func (r productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := r.scope.read(ctx, func(st *state) error {
		row, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		product = row.product
		return nil
	})
	return product, err
}

// GetMany возвращает найденные товары в порядке ids, пропуская отсутствующие и повторы.
func (r productRepository) GetMany(ctx context.Context, ids []string) ([]domain.Product, error) {
	result := make([]domain.Product, 0, len(ids))
	err := r.scope.read(ctx, func(st *state) error {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if row, ok := st.products[id]; ok {
				result = append(result, row.product)
			}
		}
		return nil
	})
	return result, err
}

func (r productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	limit := domain.EffectiveLimit(filter.Limit)
	result := make([]domain.Product, 0)

	err := r.scope.read(ctx, func(st *state) error {
		for _, row := range st.sortedProducts() {
			if !matchProduct(row.product, filter) {
				continue
			}
			result = append(result, row.product)
			if len(result) >= limit {
				break
			}
		}
		return nil
	})
	return result, err
}

func (r productRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.updateStock(id, stock)
	})
}

func (r productRepository) Delete(ctx context.Context, id string) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.deleteProduct(id)
	})
}

func matchProduct(p domain.Product, f domain.ProductFilter) bool {
	if f.NameContains != "" && !containsFold(p.Name, f.NameContains) {
		return false
	}
	if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
		return false
	}
	if f.StockMin != nil && p.Stock < *f.StockMin {
		return false
	}
	if f.StockMax != nil && p.Stock > *f.StockMax {
		return false
	}
	if f.StockBelow != nil && p.Stock >= *f.StockBelow {
		return false
	}
	return true
}

var _ domain.ProductRepository = productRepository{}
