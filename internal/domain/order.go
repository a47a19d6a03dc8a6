package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order агрегирует ссылку на клиента и набор товаров.
type Order struct {
	ID         string
	CustomerID string
	// ProductIDs — непустое множество товаров в порядке, в котором их передал клиент.
	ProductIDs []string
	OrderDate  time.Time
	// TotalAmount фиксируется при создании как сумма цен товаров и больше не пересчитывается.
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// HasProduct проверяет, входит ли товар в заказ.
func (o Order) HasProduct(productID string) bool {
	for _, id := range o.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// OrderReminder — строка для напоминания о недавнем заказе.
type OrderReminder struct {
	OrderID       string
	CustomerEmail string
	OrderDate     time.Time
}

// Stats — агрегаты для периодического отчёта CRM.
type Stats struct {
	Customers int
	Orders    int
	Revenue   decimal.Decimal
}
