package cli

import (
	"context"

	"github.com/spf13/cobra"

	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
)

func newHelloCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Check that the CRM API answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.HelloResponse, error) {
				return c.Hello(ctx)
			})
			return err
		},
	}
}

func newRestockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restock",
		Short: "Raise stock of every low-stock product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.UpdateLowStockProductsResponse, error) {
				return c.UpdateLowStockProducts(ctx)
			})
			if err != nil {
				return err
			}
			return failedUnless(resp.Success, resp.Message)
		},
	}
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print customer, order and revenue totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.StatsResponse, error) {
				return c.Stats(ctx)
			})
			return err
		},
	}
}
