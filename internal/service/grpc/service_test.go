package grpcsvc_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

const bufSize = 1024 * 1024

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, api grpcsvc.CRM) *grpcsvc.Client {
	t.Helper()

	listener := bufconn.Listen(bufSize)
	logger := loggerForTests()

	server := grpc.NewServer()
	grpcsvc.RegisterCRMServer(server, grpcsvc.NewCRMService(api, logger))

	go func() {
		if err := server.Serve(listener); err != nil {
			logger.WithError(err).Error("grpc serve failed")
		}
	}()

	dialer := func(context.Context, string) (net.Conn, error) {
		return listener.Dial()
	}

	conn, err := grpcsvc.Dial("passthrough:///bufnet", grpc.WithContextDialer(dialer))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return grpcsvc.NewClient(conn)
}

func newMemoryCRM() *crm.Service {
	return crm.NewService(memory.NewStore(), crm.WithClock(func() time.Time { return fixedNow }))
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func intPtr(v int) *int {
	return &v
}

func TestCRMService_Hello(t *testing.T) {
	client := newTestServer(t, newMemoryCRM())

	resp, err := client.Hello(context.Background())
	require.NoError(t, err)
	require.Equal(t, crm.Greeting, resp.Message)
}

func TestCRMService_CreateOrderFlow(t *testing.T) {
	client := newTestServer(t, newMemoryCRM())
	ctx := context.Background()

	customer, err := client.CreateCustomer(ctx, &grpcsvc.CreateCustomerRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Phone: "+1234567890",
	})
	require.NoError(t, err)
	require.True(t, customer.Success)
	require.NotNil(t, customer.Customer)
	require.Equal(t, "alice@example.com", customer.Customer.Email)

	pen, err := client.CreateProduct(ctx, &grpcsvc.CreateProductRequest{Name: "Pen", Price: "1.50", Stock: intPtr(3)})
	require.NoError(t, err)
	require.True(t, pen.Success)
	book, err := client.CreateProduct(ctx, &grpcsvc.CreateProductRequest{Name: "Book", Price: "10.25", Stock: intPtr(20)})
	require.NoError(t, err)
	require.True(t, book.Success)

	order, err := client.CreateOrder(ctx, &grpcsvc.CreateOrderRequest{
		CustomerID: customer.Customer.ID,
		ProductIDs: []string{pen.Product.ID, book.Product.ID},
	})
	require.NoError(t, err)
	require.True(t, order.Success)
	require.Equal(t, "11.75", order.Order.TotalAmount)
	require.Equal(t, []string{pen.Product.ID, book.Product.ID}, order.Order.ProductIDs)

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Customers)
	require.Equal(t, 1, stats.Orders)
	require.Equal(t, "11.75", stats.Revenue)

	orders, err := client.ListOrders(ctx, &grpcsvc.ListOrdersRequest{TotalMin: "11"})
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)

	orders, err = client.ListOrders(ctx, &grpcsvc.ListOrdersRequest{TotalMin: "12"})
	require.NoError(t, err)
	require.Empty(t, orders.Orders)
}

func TestCRMService_ValidationFailureIsNotRPCError(t *testing.T) {
	client := newTestServer(t, newMemoryCRM())

	resp, err := client.CreateCustomer(context.Background(), &grpcsvc.CreateCustomerRequest{Phone: "abc"})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Nil(t, resp.Customer)
	require.Equal(t, "Validation failed.", resp.Message)

	fields := make([]string, 0, len(resp.Errors))
	for _, fe := range resp.Errors {
		fields = append(fields, fe.Field)
	}
	require.Equal(t, []string{"name", "email", "phone"}, fields)
}

func TestCRMService_BulkCreateCustomersPartial(t *testing.T) {
	client := newTestServer(t, newMemoryCRM())

	resp, err := client.BulkCreateCustomers(context.Background(), &grpcsvc.BulkCreateCustomersRequest{
		Customers: []grpcsvc.CreateCustomerRequest{
			{Name: "Alice", Email: "alice@example.com"},
			{Name: "Bob", Email: "alice@example.com"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "Some customers created successfully.", resp.Message)
}

func TestCRMService_DeleteAndRestock(t *testing.T) {
	client := newTestServer(t, newMemoryCRM())
	ctx := context.Background()

	product, err := client.CreateProduct(ctx, &grpcsvc.CreateProductRequest{Name: "Pen", Price: "2", Stock: intPtr(1)})
	require.NoError(t, err)

	low, err := client.ListProducts(ctx, &grpcsvc.ListProductsRequest{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low.Products, 1)

	restock, err := client.UpdateLowStockProducts(ctx)
	require.NoError(t, err)
	require.True(t, restock.Success)
	require.Len(t, restock.Products, 1)
	require.Equal(t, 11, restock.Products[0].Stock)

	deleted, err := client.DeleteProduct(ctx, &grpcsvc.DeleteRequest{ID: product.Product.ID})
	require.NoError(t, err)
	require.True(t, deleted.Success)
	require.Equal(t, product.Product.ID, deleted.ID)

	missing, err := client.DeleteProduct(ctx, &grpcsvc.DeleteRequest{ID: product.Product.ID})
	require.NoError(t, err)
	require.False(t, missing.Success)
	require.Equal(t, "Product not found.", missing.Message)
}

func TestCRMService_InvalidDecimalFilter(t *testing.T) {
	client := newTestServer(t, newMemoryCRM())

	_, err := client.ListProducts(context.Background(), &grpcsvc.ListProductsRequest{PriceMin: "cheap"})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

type failingCRM struct {
	grpcsvc.CRM
	err error
}

func (f failingCRM) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{}, f.err
}

func (f failingCRM) CreateCustomer(context.Context, crm.CustomerInput) (domain.Outcome[domain.Customer], error) {
	return domain.Outcome[domain.Customer]{}, f.err
}

func TestCRMService_StoreFaultMapsToInternal(t *testing.T) {
	client := newTestServer(t, failingCRM{err: errors.New("connection reset")})

	_, err := client.Stats(context.Background())
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.Internal, st.Code())
	require.NotContains(t, st.Message(), "connection reset")

	_, err = client.CreateCustomer(context.Background(), &grpcsvc.CreateCustomerRequest{Name: "A", Email: "a@b.c"})
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestCRMService_DeadlineMapsToStatus(t *testing.T) {
	client := newTestServer(t, failingCRM{err: context.DeadlineExceeded})

	_, err := client.Stats(context.Background())
	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
}
