package grpcsvc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client — клиент CRM API поверх любого grpc.ClientConnInterface.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient оборачивает готовое соединение.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial создаёт соединение с CRM API без TLS; JSON-кодек включается для всех вызовов.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial crm api %s: %w", target, err)
	}
	return conn, nil
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	resp := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Hello(ctx context.Context, opts ...grpc.CallOption) (*HelloResponse, error) {
	return invoke[HelloResponse](ctx, c, methodHello, &HelloRequest{}, opts...)
}

func (c *Client) CreateCustomer(ctx context.Context, req *CreateCustomerRequest, opts ...grpc.CallOption) (*CreateCustomerResponse, error) {
	return invoke[CreateCustomerResponse](ctx, c, methodCreateCustomer, req, opts...)
}

func (c *Client) BulkCreateCustomers(ctx context.Context, req *BulkCreateCustomersRequest, opts ...grpc.CallOption) (*BulkCreateCustomersResponse, error) {
	return invoke[BulkCreateCustomersResponse](ctx, c, methodBulkCreateCustomers, req, opts...)
}

func (c *Client) CreateProduct(ctx context.Context, req *CreateProductRequest, opts ...grpc.CallOption) (*CreateProductResponse, error) {
	return invoke[CreateProductResponse](ctx, c, methodCreateProduct, req, opts...)
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	return invoke[CreateOrderResponse](ctx, c, methodCreateOrder, req, opts...)
}

func (c *Client) DeleteCustomer(ctx context.Context, req *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c, methodDeleteCustomer, req, opts...)
}

func (c *Client) DeleteProduct(ctx context.Context, req *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c, methodDeleteProduct, req, opts...)
}

func (c *Client) DeleteOrder(ctx context.Context, req *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c, methodDeleteOrder, req, opts...)
}

func (c *Client) UpdateLowStockProducts(ctx context.Context, opts ...grpc.CallOption) (*UpdateLowStockProductsResponse, error) {
	return invoke[UpdateLowStockProductsResponse](ctx, c, methodUpdateLowStockProducts, &UpdateLowStockProductsRequest{}, opts...)
}

func (c *Client) ListCustomers(ctx context.Context, req *ListCustomersRequest, opts ...grpc.CallOption) (*ListCustomersResponse, error) {
	return invoke[ListCustomersResponse](ctx, c, methodListCustomers, req, opts...)
}

func (c *Client) ListProducts(ctx context.Context, req *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c, methodListProducts, req, opts...)
}

func (c *Client) ListOrders(ctx context.Context, req *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	return invoke[ListOrdersResponse](ctx, c, methodListOrders, req, opts...)
}

func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c, methodStats, &StatsRequest{}, opts...)
}
