package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
)

func newOrderCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage orders",
	}
	cmd.AddCommand(newOrderCreateCommand(opts))
	cmd.AddCommand(newOrderDeleteCommand(opts))
	cmd.AddCommand(newOrderListCommand(opts))
	return cmd
}

func newOrderCreateCommand(opts *RootOptions) *cobra.Command {
	req := &grpcsvc.CreateOrderRequest{}
	var orderDate string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an order",
		Example: `  crmctl order create --customer <id> --product <id> --product <id>`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.OrderDate, err = parseTimeFlag("date", orderDate); err != nil {
				return err
			}
			resp, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.CreateOrderResponse, error) {
				return c.CreateOrder(ctx, req)
			})
			if err != nil {
				return err
			}
			return failedUnless(resp.Success, resp.Message)
		},
	}

	cmd.Flags().StringVar(&req.CustomerID, "customer", "", "customer id")
	cmd.Flags().StringSliceVar(&req.ProductIDs, "product", nil, "product id (repeatable or comma separated)")
	cmd.Flags().StringVar(&orderDate, "date", "", "order date (RFC3339), defaults to now")

	return cmd
}

func newOrderDeleteCommand(opts *RootOptions) *cobra.Command {
	return newDeleteCommand(opts, "order", "Delete an order",
		func(c *grpcsvc.Client) deleteFunc { return c.DeleteOrder })
}

func newOrderListCommand(opts *RootOptions) *cobra.Command {
	req := &grpcsvc.ListOrdersRequest{}
	var dateFrom, dateTo string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.DateFrom, err = parseTimeFlag("date-from", dateFrom); err != nil {
				return err
			}
			if req.DateTo, err = parseTimeFlag("date-to", dateTo); err != nil {
				return err
			}
			_, err = call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.ListOrdersResponse, error) {
				return c.ListOrders(ctx, req)
			})
			return err
		},
	}

	cmd.Flags().StringVar(&req.CustomerID, "customer", "", "customer id")
	cmd.Flags().StringVar(&req.CustomerNameContains, "customer-name", "", "customer name substring")
	cmd.Flags().StringVar(&req.ProductID, "product", "", "product id")
	cmd.Flags().StringVar(&req.ProductNameContains, "product-name", "", "product name substring")
	cmd.Flags().StringVar(&req.TotalMin, "total-min", "", "minimal total amount")
	cmd.Flags().StringVar(&req.TotalMax, "total-max", "", "maximal total amount")
	cmd.Flags().StringVar(&dateFrom, "date-from", "", "ordered at or after (RFC3339)")
	cmd.Flags().StringVar(&dateTo, "date-to", "", "ordered at or before (RFC3339)")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "max records (0 = server default)")

	return cmd
}

// parseTimeFlag разбирает RFC3339; пустое значение означает отсутствие границы.
func parseTimeFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, badFlag(name, raw, err)
	}
	return &t, nil
}
