package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// LowStockThreshold — остаток, ниже которого товар считается заканчивающимся.
	LowStockThreshold = 10
	// RestockQuantity — сколько единиц добавляет одно пополнение.
	RestockQuantity = 10
)

// Product описывает товар каталога.
type Product struct {
	ID          string
	Name        string
	Description string
	// Price всегда строго больше нуля.
	Price decimal.Decimal
	// Stock никогда не бывает отрицательным.
	Stock     int
	CreatedAt time.Time
}

// LowStock сообщает, нуждается ли товар в пополнении.
func (p Product) LowStock() bool {
	return p.Stock < LowStockThreshold
}
