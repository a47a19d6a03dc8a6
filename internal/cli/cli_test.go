package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

// bufDialer поднимает CRM API на bufconn поверх in-memory хранилища.
func bufDialer(t *testing.T) Dialer {
	t.Helper()

	listener := bufconn.Listen(1024 * 1024)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	server := grpc.NewServer()
	svc := crm.NewService(memory.NewStore(), crm.WithClock(func() time.Time { return fixedNow }))
	grpcsvc.RegisterCRMServer(server, grpcsvc.NewCRMService(svc, logrus.NewEntry(logger)))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	return func(_ context.Context, _ string) (*grpcsvc.Client, func() error, error) {
		conn, err := grpcsvc.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}))
		if err != nil {
			return nil, nil, err
		}
		return grpcsvc.NewClient(conn), conn.Close, nil
	}
}

func run(t *testing.T, dial Dialer, stdin string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand(dial)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestHelloCommand(t *testing.T) {
	out, err := run(t, bufDialer(t), "", "hello")
	require.NoError(t, err)

	resp := decode[grpcsvc.HelloResponse](t, out)
	assert.Equal(t, crm.Greeting, resp.Message)
}

func TestCustomerProductOrderFlow(t *testing.T) {
	dial := bufDialer(t)

	out, err := run(t, dial, "", "customer", "create", "--name", "Alice", "--email", "alice@example.com", "--phone", "+1234567890")
	require.NoError(t, err)
	customer := decode[grpcsvc.CreateCustomerResponse](t, out)
	require.True(t, customer.Success)
	require.NotNil(t, customer.Customer)

	out, err = run(t, dial, "", "product", "create", "--name", "Widget", "--price", "9.50", "--stock", "3")
	require.NoError(t, err)
	product := decode[grpcsvc.CreateProductResponse](t, out)
	require.True(t, product.Success)
	require.Equal(t, 3, product.Product.Stock)

	out, err = run(t, dial, "", "order", "create",
		"--customer", customer.Customer.ID,
		"--product", product.Product.ID,
		"--date", "2024-03-01T10:00:00Z")
	require.NoError(t, err)
	order := decode[grpcsvc.CreateOrderResponse](t, out)
	require.True(t, order.Success)
	assert.Equal(t, "9.5", order.Order.TotalAmount)

	out, err = run(t, dial, "", "order", "list", "--customer", customer.Customer.ID)
	require.NoError(t, err)
	assert.Len(t, decode[grpcsvc.ListOrdersResponse](t, out).Orders, 1)

	out, err = run(t, dial, "", "stats")
	require.NoError(t, err)
	stats := decode[grpcsvc.StatsResponse](t, out)
	assert.Equal(t, 1, stats.Customers)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, "9.5", stats.Revenue)

	out, err = run(t, dial, "", "product", "list", "--low-stock")
	require.NoError(t, err)
	assert.Len(t, decode[grpcsvc.ListProductsResponse](t, out).Products, 1)

	out, err = run(t, dial, "", "restock")
	require.NoError(t, err)
	restock := decode[grpcsvc.UpdateLowStockProductsResponse](t, out)
	require.Len(t, restock.Products, 1)
	assert.Greater(t, restock.Products[0].Stock, 3)

	out, err = run(t, dial, "", "customer", "delete", customer.Customer.ID)
	require.NoError(t, err)
	assert.True(t, decode[grpcsvc.DeleteResponse](t, out).Success)

	out, err = run(t, dial, "", "customer", "list")
	require.NoError(t, err)
	assert.Empty(t, decode[grpcsvc.ListCustomersResponse](t, out).Customers)
}

func TestRejectedOperationExitsWithFailure(t *testing.T) {
	dial := bufDialer(t)

	out, err := run(t, dial, "", "customer", "create", "--name", "", "--email", "broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[grpcsvc.CreateCustomerResponse](t, out)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Errors)

	_, err = run(t, dial, "", "order", "delete", "missing-order")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCustomerBulkFromStdinAndFile(t *testing.T) {
	dial := bufDialer(t)

	stdin := `[{"name":"Bob","email":"bob@example.com"},{"name":"Bob2","email":"bob@example.com"}]`
	out, err := run(t, dial, stdin, "customer", "bulk")
	require.Error(t, err, "duplicate email must fail the command")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[grpcsvc.BulkCreateCustomersResponse](t, out)
	assert.Len(t, resp.Customers, 1)
	assert.NotEmpty(t, resp.Errors)

	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Carol","email":"carol@example.com"}]`), 0o600))

	out, err = run(t, dial, "", "customer", "bulk", "--file", path)
	require.NoError(t, err)
	assert.Len(t, decode[grpcsvc.BulkCreateCustomersResponse](t, out).Customers, 1)
}

func TestCommandErrors(t *testing.T) {
	dial := bufDialer(t)

	_, err := run(t, dial, "not json", "customer", "bulk")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, dial, "", "order", "create", "--date", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--date")

	_, err = run(t, dial, "", "product", "list", "--price-min", "cheap")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, dial, "", "--timeout", "0s", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")

	_, err = run(t, dial, "", "customer", "delete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestDialFailure(t *testing.T) {
	boom := errors.New("connection refused")
	failing := func(context.Context, string) (*grpcsvc.Client, func() error, error) {
		return nil, nil, boom
	}

	_, err := run(t, failing, "", "--addr", "crm:1", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "crm:1")
}

func TestPrettyOutput(t *testing.T) {
	out, err := run(t, bufDialer(t), "", "--pretty", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"message\"")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
}
