package grpcsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
)

// CRM — операции, которые транспорт вызывает у сервисного слоя.
type CRM interface {
	Hello(ctx context.Context) string
	CreateCustomer(ctx context.Context, in crm.CustomerInput) (domain.Outcome[domain.Customer], error)
	BulkCreateCustomers(ctx context.Context, inputs []crm.CustomerInput) (domain.BulkCreateResult, error)
	CreateProduct(ctx context.Context, in crm.ProductInput) (domain.Outcome[domain.Product], error)
	CreateOrder(ctx context.Context, in crm.OrderInput) (domain.Outcome[domain.Order], error)
	DeleteCustomer(ctx context.Context, id string) (domain.Outcome[string], error)
	DeleteProduct(ctx context.Context, id string) (domain.Outcome[string], error)
	DeleteOrder(ctx context.Context, id string) (domain.Outcome[string], error)
	UpdateLowStockProducts(ctx context.Context) (domain.RestockResult, error)
	ListCustomers(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// CRMService реализует gRPC API поверх сервисного слоя CRM.
type CRMService struct {
	crm    CRM
	logger *log.Entry
}

// NewCRMService конструирует сервис с зависимостями.
func NewCRMService(svc CRM, logger *log.Entry) *CRMService {
	if logger == nil {
		logger = log.New().WithField("component", "crm-grpc")
	}
	return &CRMService{crm: svc, logger: logger}
}

func (s *CRMService) Hello(ctx context.Context, _ *HelloRequest) (*HelloResponse, error) {
	return &HelloResponse{Message: s.crm.Hello(ctx)}, nil
}

func (s *CRMService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CreateCustomerResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := s.crm.CreateCustomer(ctx, crm.CustomerInput{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		return nil, s.internalError(ctx, methodCreateCustomer, err)
	}

	resp := &CreateCustomerResponse{
		Success: outcome.Success(),
		Message: outcome.Message(),
		Errors:  toFieldErrors(outcome.Errors()),
	}
	if customer, ok := outcome.Value(); ok {
		record := toCustomerRecord(customer)
		resp.Customer = &record
	}
	return resp, nil
}

func (s *CRMService) BulkCreateCustomers(ctx context.Context, req *BulkCreateCustomersRequest) (*BulkCreateCustomersResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	inputs := make([]crm.CustomerInput, 0, len(req.Customers))
	for _, c := range req.Customers {
		inputs = append(inputs, crm.CustomerInput{Name: c.Name, Email: c.Email, Phone: c.Phone})
	}

	result, err := s.crm.BulkCreateCustomers(ctx, inputs)
	if err != nil {
		return nil, s.internalError(ctx, methodBulkCreateCustomers, err)
	}

	customers := make([]CustomerRecord, 0, len(result.Created))
	for _, c := range result.Created {
		customers = append(customers, toCustomerRecord(c))
	}
	return &BulkCreateCustomersResponse{
		Customers: customers,
		Errors:    toFieldErrors(result.Errors),
		Message:   result.Message,
	}, nil
}

func (s *CRMService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*CreateProductResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := s.crm.CreateProduct(ctx, crm.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		return nil, s.internalError(ctx, methodCreateProduct, err)
	}

	resp := &CreateProductResponse{
		Success: outcome.Success(),
		Message: outcome.Message(),
		Errors:  toFieldErrors(outcome.Errors()),
	}
	if product, ok := outcome.Value(); ok {
		record := toProductRecord(product)
		resp.Product = &record
	}
	return resp, nil
}

func (s *CRMService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := s.crm.CreateOrder(ctx, crm.OrderInput{
		CustomerID: req.CustomerID,
		ProductIDs: req.ProductIDs,
		OrderDate:  req.OrderDate,
	})
	if err != nil {
		return nil, s.internalError(ctx, methodCreateOrder, err)
	}

	resp := &CreateOrderResponse{
		Success: outcome.Success(),
		Message: outcome.Message(),
		Errors:  toFieldErrors(outcome.Errors()),
	}
	if order, ok := outcome.Value(); ok {
		record := toOrderRecord(order)
		resp.Order = &record
	}
	return resp, nil
}

func (s *CRMService) DeleteCustomer(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	return s.deleteRecord(ctx, methodDeleteCustomer, req, s.crm.DeleteCustomer)
}

func (s *CRMService) DeleteProduct(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	return s.deleteRecord(ctx, methodDeleteProduct, req, s.crm.DeleteProduct)
}

func (s *CRMService) DeleteOrder(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	return s.deleteRecord(ctx, methodDeleteOrder, req, s.crm.DeleteOrder)
}

func (s *CRMService) deleteRecord(
	ctx context.Context,
	method string,
	req *DeleteRequest,
	del func(context.Context, string) (domain.Outcome[string], error),
) (*DeleteResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := del(ctx, req.ID)
	if err != nil {
		return nil, s.internalError(ctx, method, err)
	}

	id, _ := outcome.Value()
	return &DeleteResponse{
		ID:      id,
		Success: outcome.Success(),
		Message: outcome.Message(),
		Errors:  toFieldErrors(outcome.Errors()),
	}, nil
}

func (s *CRMService) UpdateLowStockProducts(ctx context.Context, _ *UpdateLowStockProductsRequest) (*UpdateLowStockProductsResponse, error) {
	result, err := s.crm.UpdateLowStockProducts(ctx)
	if err != nil {
		return nil, s.internalError(ctx, methodUpdateLowStockProducts, err)
	}

	return &UpdateLowStockProductsResponse{
		Products: toProductRecords(result.Updated),
		Success:  true,
		Message:  result.Message,
	}, nil
}

func (s *CRMService) ListCustomers(ctx context.Context, req *ListCustomersRequest) (*ListCustomersResponse, error) {
	if req == nil {
		req = &ListCustomersRequest{}
	}

	customers, err := s.crm.ListCustomers(ctx, domain.CustomerFilter{
		NameContains:  strings.TrimSpace(req.NameContains),
		EmailContains: strings.TrimSpace(req.EmailContains),
		PhonePrefix:   strings.TrimSpace(req.PhonePrefix),
		CreatedFrom:   req.CreatedFrom,
		CreatedTo:     req.CreatedTo,
		Limit:         req.Limit,
	})
	if err != nil {
		return nil, s.internalError(ctx, methodListCustomers, err)
	}

	records := make([]CustomerRecord, 0, len(customers))
	for _, c := range customers {
		records = append(records, toCustomerRecord(c))
	}
	return &ListCustomersResponse{Customers: records}, nil
}

func (s *CRMService) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	if req == nil {
		req = &ListProductsRequest{}
	}

	filter := domain.ProductFilter{
		NameContains: strings.TrimSpace(req.NameContains),
		StockMin:     req.StockMin,
		StockMax:     req.StockMax,
		Limit:        req.Limit,
	}
	var err error
	if filter.PriceMin, err = parseDecimalBound("price_min", req.PriceMin); err != nil {
		return nil, err
	}
	if filter.PriceMax, err = parseDecimalBound("price_max", req.PriceMax); err != nil {
		return nil, err
	}
	if req.LowStock {
		filter.StockBelow = domain.LowStock().StockBelow
	}

	products, err := s.crm.ListProducts(ctx, filter)
	if err != nil {
		return nil, s.internalError(ctx, methodListProducts, err)
	}
	return &ListProductsResponse{Products: toProductRecords(products)}, nil
}

func (s *CRMService) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	if req == nil {
		req = &ListOrdersRequest{}
	}

	filter := domain.OrderFilter{
		CustomerID:           strings.TrimSpace(req.CustomerID),
		CustomerNameContains: strings.TrimSpace(req.CustomerNameContains),
		ProductID:            strings.TrimSpace(req.ProductID),
		ProductNameContains:  strings.TrimSpace(req.ProductNameContains),
		DateFrom:             req.DateFrom,
		DateTo:               req.DateTo,
		Limit:                req.Limit,
	}
	var err error
	if filter.TotalMin, err = parseDecimalBound("total_min", req.TotalMin); err != nil {
		return nil, err
	}
	if filter.TotalMax, err = parseDecimalBound("total_max", req.TotalMax); err != nil {
		return nil, err
	}

	orders, err := s.crm.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.internalError(ctx, methodListOrders, err)
	}

	records := make([]OrderRecord, 0, len(orders))
	for _, o := range orders {
		records = append(records, toOrderRecord(o))
	}
	return &ListOrdersResponse{Orders: records}, nil
}

func (s *CRMService) Stats(ctx context.Context, _ *StatsRequest) (*StatsResponse, error) {
	stats, err := s.crm.Stats(ctx)
	if err != nil {
		return nil, s.internalError(ctx, methodStats, err)
	}
	return &StatsResponse{
		Customers: stats.Customers,
		Orders:    stats.Orders,
		Revenue:   stats.Revenue.String(),
	}, nil
}

// internalError скрывает детали сбоя хранилища от клиента, отмену и дедлайн пробрасывает как есть.
func (s *CRMService) internalError(ctx context.Context, method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return status.FromContextError(ctxErr).Err()
	}

	s.logger.WithError(err).WithField("method", method).Error("crm operation failed")
	return status.Error(codes.Internal, "internal error while processing "+method)
}

func parseDecimalBound(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a decimal number", field)
	}
	return &value, nil
}

func toFieldErrors(report domain.ErrorReport) []FieldError {
	if report.Empty() {
		return nil
	}
	result := make([]FieldError, 0, len(report))
	for _, fe := range report {
		result = append(result, FieldError{Field: fe.Field, Message: fe.Message})
	}
	return result
}

func toCustomerRecord(c domain.Customer) CustomerRecord {
	return CustomerRecord{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, CreatedAt: c.CreatedAt}
}

func toProductRecord(p domain.Product) ProductRecord {
	return ProductRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductRecords(products []domain.Product) []ProductRecord {
	records := make([]ProductRecord, 0, len(products))
	for _, p := range products {
		records = append(records, toProductRecord(p))
	}
	return records
}

func toOrderRecord(o domain.Order) OrderRecord {
	return OrderRecord{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		ProductIDs:  o.ProductIDs,
		OrderDate:   o.OrderDate,
		TotalAmount: o.TotalAmount.String(),
		CreatedAt:   o.CreatedAt,
	}
}

var (
	_ CRMServer = (*CRMService)(nil)
	_ CRM       = (*crm.Service)(nil)
)
