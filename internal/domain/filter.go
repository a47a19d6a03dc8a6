package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultListLimit ограничивает выборку, если лимит не задан.
const DefaultListLimit = 100

// CustomerFilter задаёт условия выборки клиентов. Пустые поля не участвуют в фильтрации.
type CustomerFilter struct {
	NameContains  string
	EmailContains string
	PhonePrefix   string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
}

// ProductFilter задаёт условия выборки товаров.
type ProductFilter struct {
	NameContains string
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	StockMin     *int
	StockMax     *int
	// StockBelow оставляет товары с остатком строго меньше значения.
	StockBelow *int
	Limit      int
}

// LowStock возвращает фильтр заканчивающихся товаров.
func LowStock() ProductFilter {
	threshold := LowStockThreshold
	return ProductFilter{StockBelow: &threshold}
}

// OrderFilter задаёт условия выборки заказов.
type OrderFilter struct {
	CustomerID           string
	CustomerNameContains string
	ProductID            string
	ProductNameContains  string
	TotalMin             *decimal.Decimal
	TotalMax             *decimal.Decimal
	DateFrom             *time.Time
	DateTo               *time.Time
	Limit                int
	// Offset пропускает первые записи выборки; порядок — по времени создания.
	Offset int
}

// EffectiveLimit нормализует лимит выборки.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
