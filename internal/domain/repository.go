package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет клиента. ErrEmailAlreadyExists, если email занят.
	Create(ctx context.Context, customer Customer) error
	// Get возвращает клиента или ErrCustomerNotFound.
	Get(ctx context.Context, id string) (Customer, error)
	// ExistsByEmail проверяет точное совпадение email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter CustomerFilter) ([]Customer, error)
	Count(ctx context.Context) (int, error)
	// Delete удаляет клиента вместе с его заказами. ErrCustomerNotFound, если записи нет.
	Delete(ctx context.Context, id string) error
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	Create(ctx context.Context, product Product) error
	Get(ctx context.Context, id string) (Product, error)
	// GetMany возвращает найденные товары; отсутствующие идентификаторы пропускаются.
	GetMany(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	// UpdateStock перезаписывает остаток. ErrProductNotFound, если записи нет.
	UpdateStock(ctx context.Context, id string, stock int) error
	// Delete удаляет товар и его связи с заказами; сумма заказов не меняется.
	Delete(ctx context.Context, id string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	Count(ctx context.Context) (int, error)
	// TotalRevenue суммирует TotalAmount всех заказов.
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	Delete(ctx context.Context, id string) error
}

// Repositories — набор репозиториев, работающих в одном контексте (транзакция или autocommit).
type Repositories interface {
	Customers() CustomerRepository
	Products() ProductRepository
	Orders() OrderRepository
	Outbox() OutboxRepository
}

// Tx — явный транзакционный контекст, который живёт ровно один вызов UnitOfWork.Do.
type Tx interface {
	Repositories
	// Savepoint выполняет fn во вложенной области: ошибка fn откатывает только её изменения,
	// остальная транзакция остаётся пригодной.
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// UnitOfWork управляет атомарностью. Ошибка fn откатывает транзакцию, nil фиксирует её.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store — хранилище записей CRM.
type Store interface {
	Repositories
	UnitOfWork
	Ping(ctx context.Context) error
	Close() error
}
