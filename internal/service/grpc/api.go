package grpcsvc

import "time"

// FieldError — замечание валидации в ответе API.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type CustomerRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductRecord передаёт цену строкой, чтобы не терять десятичную точность.
type ProductRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderRecord struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	ProductIDs  []string  `json:"product_ids"`
	OrderDate   time.Time `json:"order_date"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type CreateCustomerResponse struct {
	Customer *CustomerRecord `json:"customer,omitempty"`
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Errors   []FieldError    `json:"errors,omitempty"`
}

type BulkCreateCustomersRequest struct {
	Customers []CreateCustomerRequest `json:"customers"`
}

type BulkCreateCustomersResponse struct {
	Customers []CustomerRecord `json:"customers"`
	Errors    []FieldError     `json:"errors,omitempty"`
	Message   string           `json:"message"`
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Stock       *int   `json:"stock,omitempty"`
}

type CreateProductResponse struct {
	Product *ProductRecord `json:"product,omitempty"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Errors  []FieldError   `json:"errors,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID string     `json:"customer_id"`
	ProductIDs []string   `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date,omitempty"`
}

type CreateOrderResponse struct {
	Order   *OrderRecord `json:"order,omitempty"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type DeleteRequest struct {
	ID string `json:"id"`
}

type DeleteResponse struct {
	ID      string       `json:"id,omitempty"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type UpdateLowStockProductsRequest struct{}

type UpdateLowStockProductsResponse struct {
	Products []ProductRecord `json:"products"`
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
}

type HelloRequest struct{}

type HelloResponse struct {
	Message string `json:"message"`
}

type ListCustomersRequest struct {
	NameContains  string     `json:"name_contains,omitempty"`
	EmailContains string     `json:"email_contains,omitempty"`
	PhonePrefix   string     `json:"phone_prefix,omitempty"`
	CreatedFrom   *time.Time `json:"created_from,omitempty"`
	CreatedTo     *time.Time `json:"created_to,omitempty"`
	Limit         int        `json:"limit,omitempty"`
}

type ListCustomersResponse struct {
	Customers []CustomerRecord `json:"customers"`
}

// ListProductsRequest: границы цены передаются десятичными строками, пустая строка — без границы.
type ListProductsRequest struct {
	NameContains string `json:"name_contains,omitempty"`
	PriceMin     string `json:"price_min,omitempty"`
	PriceMax     string `json:"price_max,omitempty"`
	StockMin     *int   `json:"stock_min,omitempty"`
	StockMax     *int   `json:"stock_max,omitempty"`
	LowStock     bool   `json:"low_stock,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type ListProductsResponse struct {
	Products []ProductRecord `json:"products"`
}

type ListOrdersRequest struct {
	CustomerID           string     `json:"customer_id,omitempty"`
	CustomerNameContains string     `json:"customer_name_contains,omitempty"`
	ProductID            string     `json:"product_id,omitempty"`
	ProductNameContains  string     `json:"product_name_contains,omitempty"`
	TotalMin             string     `json:"total_min,omitempty"`
	TotalMax             string     `json:"total_max,omitempty"`
	DateFrom             *time.Time `json:"date_from,omitempty"`
	DateTo               *time.Time `json:"date_to,omitempty"`
	Limit                int        `json:"limit,omitempty"`
}

type ListOrdersResponse struct {
	Orders []OrderRecord `json:"orders"`
}

type StatsRequest struct{}

type StatsResponse struct {
	Customers int    `json:"customers"`
	Orders    int    `json:"orders"`
	Revenue   string `json:"revenue"`
}
