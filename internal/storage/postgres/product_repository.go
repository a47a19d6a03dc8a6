package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type productRepository struct {
	q queryer
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, product.ID, product.Name, product.Description, product.Price, product.Stock, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRecordConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	product, err := scanProduct(r.q.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock, created_at
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// GetMany возвращает найденные товары в порядке ids.
func (r *productRepository) GetMany(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, description, price, stock, created_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		byID[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	result := make([]domain.Product, 0, len(byID))
	for _, id := range ids {
		if product, ok := byID[id]; ok {
			result = append(result, product)
			delete(byID, id)
		}
	}
	return result, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var where whereClause
	if filter.NameContains != "" {
		where.add(`name ILIKE ?`, likePattern(filter.NameContains))
	}
	if filter.PriceMin != nil {
		where.add(`price >= ?`, *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		where.add(`price <= ?`, *filter.PriceMax)
	}
	if filter.StockMin != nil {
		where.add(`stock >= ?`, *filter.StockMin)
	}
	if filter.StockMax != nil {
		where.add(`stock <= ?`, *filter.StockMax)
	}
	if filter.StockBelow != nil {
		where.add(`stock < ?`, *filter.StockBelow)
	}

	query := `SELECT id, name, description, price, stock, created_at FROM products` + where.sql() +
		` ORDER BY created_at, id LIMIT ` + where.arg(domain.EffectiveLimit(filter.Limit))

	rows, err := r.q.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

// Delete удаляет товар; строки order_products удаляются каскадно, total_amount заказов не меняется.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
