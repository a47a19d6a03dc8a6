package crm

import "time"

// CustomerInput — входные данные CreateCustomer и элемента BulkCreateCustomers.
type CustomerInput struct {
	Name  string
	Email string
	// Phone необязателен.
	Phone string
}

// ProductInput — входные данные CreateProduct.
// Price передаётся строкой, чтобы отличать ошибку формата от ошибки диапазона.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	// Stock nil означает 0.
	Stock *int
}

// OrderInput — входные данные CreateOrder.
type OrderInput struct {
	CustomerID string
	ProductIDs []string
	// OrderDate nil означает текущий момент.
	OrderDate *time.Time
}
