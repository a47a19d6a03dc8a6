package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName — полное имя gRPC-сервиса CRM.
const ServiceName = "crm.v1.CRMService"

const (
	methodHello                  = "Hello"
	methodCreateCustomer         = "CreateCustomer"
	methodBulkCreateCustomers    = "BulkCreateCustomers"
	methodCreateProduct          = "CreateProduct"
	methodCreateOrder            = "CreateOrder"
	methodDeleteCustomer         = "DeleteCustomer"
	methodDeleteProduct          = "DeleteProduct"
	methodDeleteOrder            = "DeleteOrder"
	methodUpdateLowStockProducts = "UpdateLowStockProducts"
	methodListCustomers          = "ListCustomers"
	methodListProducts           = "ListProducts"
	methodListOrders             = "ListOrders"
	methodStats                  = "Stats"
)

// CRMServer — серверная сторона CRM API.
type CRMServer interface {
	Hello(context.Context, *HelloRequest) (*HelloResponse, error)
	CreateCustomer(context.Context, *CreateCustomerRequest) (*CreateCustomerResponse, error)
	BulkCreateCustomers(context.Context, *BulkCreateCustomersRequest) (*BulkCreateCustomersResponse, error)
	CreateProduct(context.Context, *CreateProductRequest) (*CreateProductResponse, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	DeleteCustomer(context.Context, *DeleteRequest) (*DeleteResponse, error)
	DeleteProduct(context.Context, *DeleteRequest) (*DeleteResponse, error)
	DeleteOrder(context.Context, *DeleteRequest) (*DeleteResponse, error)
	UpdateLowStockProducts(context.Context, *UpdateLowStockProductsRequest) (*UpdateLowStockProductsResponse, error)
	ListCustomers(context.Context, *ListCustomersRequest) (*ListCustomersResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	Stats(context.Context, *StatsRequest) (*StatsResponse, error)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler адаптирует типизированный метод CRMServer к grpc.MethodHandler.
func unaryHandler[Req, Resp any](method string, call func(CRMServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CRMServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CRMServer), ctx, req.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// ServiceDesc описывает CRM API без сгенерированного protobuf-кода;
// сообщения передаются JSON-кодеком.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CRMServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(methodHello, CRMServer.Hello),
		unaryHandler(methodCreateCustomer, CRMServer.CreateCustomer),
		unaryHandler(methodBulkCreateCustomers, CRMServer.BulkCreateCustomers),
		unaryHandler(methodCreateProduct, CRMServer.CreateProduct),
		unaryHandler(methodCreateOrder, CRMServer.CreateOrder),
		unaryHandler(methodDeleteCustomer, CRMServer.DeleteCustomer),
		unaryHandler(methodDeleteProduct, CRMServer.DeleteProduct),
		unaryHandler(methodDeleteOrder, CRMServer.DeleteOrder),
		unaryHandler(methodUpdateLowStockProducts, CRMServer.UpdateLowStockProducts),
		unaryHandler(methodListCustomers, CRMServer.ListCustomers),
		unaryHandler(methodListProducts, CRMServer.ListProducts),
		unaryHandler(methodListOrders, CRMServer.ListOrders),
		unaryHandler(methodStats, CRMServer.Stats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crm/v1/crm.json",
}

// RegisterCRMServer регистрирует реализацию CRM API на gRPC-сервере.
func RegisterCRMServer(s grpc.ServiceRegistrar, srv CRMServer) {
	s.RegisterService(&ServiceDesc, srv)
}
