package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const (
	orderCustomerConstraint = "orders_customer_id_fkey"
	orderProductConstraint  = "order_products_product_id_fkey"
)

type orderRepository struct {
	q queryer
}

// Create вставляет заказ и его связи с товарами. Вызывается внутри UnitOfWork,
// поэтому собственную транзакцию не открывает.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, order_date, total_amount, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, order.ID, order.CustomerID, order.OrderDate, order.TotalAmount, order.CreatedAt)
	if err != nil {
		return mapOrderWriteError("insert order", err)
	}

	for position, productID := range order.ProductIDs {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO order_products (order_id, product_id, position)
			VALUES ($1,$2,$3)
		`, order.ID, productID, position); err != nil {
			return mapOrderWriteError("insert order product", err)
		}
	}

	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.q.QueryRowContext(ctx, `
		SELECT id, customer_id, order_date, total_amount, created_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	products, err := r.loadProductIDs(ctx, []string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	order.ProductIDs = products[order.ID]
	if order.ProductIDs == nil {
		order.ProductIDs = []string{}
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var where whereClause
	if filter.CustomerID != "" {
		where.add(`o.customer_id = ?`, filter.CustomerID)
	}
	if filter.ProductID != "" {
		where.add(`EXISTS (SELECT 1 FROM order_products op WHERE op.order_id = o.id AND op.product_id = ?)`, filter.ProductID)
	}
	if filter.TotalMin != nil {
		where.add(`o.total_amount >= ?`, *filter.TotalMin)
	}
	if filter.TotalMax != nil {
		where.add(`o.total_amount <= ?`, *filter.TotalMax)
	}
	if filter.DateFrom != nil {
		where.add(`o.order_date >= ?`, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where.add(`o.order_date <= ?`, *filter.DateTo)
	}
	if filter.CustomerNameContains != "" {
		where.add(`EXISTS (SELECT 1 FROM customers c WHERE c.id = o.customer_id AND c.name ILIKE ?)`, likePattern(filter.CustomerNameContains))
	}
	if filter.ProductNameContains != "" {
		where.add(`EXISTS (
			SELECT 1 FROM order_products op
			JOIN products p ON p.id = op.product_id
			WHERE op.order_id = o.id AND p.name ILIKE ?)`, likePattern(filter.ProductNameContains))
	}

	query := `SELECT o.id, o.customer_id, o.order_date, o.total_amount, o.created_at FROM orders o` +
		where.sql() + ` ORDER BY o.created_at, o.id LIMIT ` + where.arg(domain.EffectiveLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ` + where.arg(filter.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Order, 0)
	ids := make([]string, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		result = append(result, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	products, err := r.loadProductIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].ProductIDs = products[result[i].ID]
		if result[i].ProductIDs == nil {
			result[i].ProductIDs = []string{}
		}
	}
	return result, nil
}

func (r *orderRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var total decimal.Decimal
	if err := r.q.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum order totals: %w", err)
	}
	return total, nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return expectAffected(res, domain.ErrOrderNotFound)
}

func (r *orderRepository) loadProductIDs(ctx context.Context, orderIDs []string) (map[string][]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT order_id, product_id
		FROM order_products
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("select order products: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string, len(orderIDs))
	for rows.Next() {
		var orderID, productID string
		if err := rows.Scan(&orderID, &productID); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		result[orderID] = append(result[orderID], productID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order products: %w", err)
	}
	return result, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.TotalAmount, &o.CreatedAt); err != nil {
		return domain.Order{}, err
	}
	o.OrderDate = o.OrderDate.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func mapOrderWriteError(op string, err error) error {
	switch constraintOf(err, pgForeignKeyViolation) {
	case orderCustomerConstraint:
		return domain.ErrCustomerNotFound
	case orderProductConstraint:
		return domain.ErrProductNotFound
	}
	if isUniqueViolation(err) {
		return domain.ErrRecordConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
