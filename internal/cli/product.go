package cli

import (
	"context"

	"github.com/spf13/cobra"

	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
)

func newProductCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products",
	}
	cmd.AddCommand(newProductCreateCommand(opts))
	cmd.AddCommand(newProductDeleteCommand(opts))
	cmd.AddCommand(newProductListCommand(opts))
	return cmd
}

func newProductCreateCommand(opts *RootOptions) *cobra.Command {
	req := &grpcsvc.CreateProductRequest{}
	var stock int

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a product",
		Example: `  crmctl product create --name Widget --price 9.99 --stock 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// без --stock сервис подставит остаток по умолчанию
			if cmd.Flags().Changed("stock") {
				req.Stock = &stock
			}
			resp, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.CreateProductResponse, error) {
				return c.CreateProduct(ctx, req)
			})
			if err != nil {
				return err
			}
			return failedUnless(resp.Success, resp.Message)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "product name")
	cmd.Flags().StringVar(&req.Description, "description", "", "product description")
	cmd.Flags().StringVar(&req.Price, "price", "", "price as a decimal string")
	cmd.Flags().IntVar(&stock, "stock", 0, "initial stock")

	return cmd
}

func newProductDeleteCommand(opts *RootOptions) *cobra.Command {
	return newDeleteCommand(opts, "product", "Delete a product",
		func(c *grpcsvc.Client) deleteFunc { return c.DeleteProduct })
}

func newProductListCommand(opts *RootOptions) *cobra.Command {
	req := &grpcsvc.ListProductsRequest{}
	var stockMin, stockMax int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("stock-min") {
				req.StockMin = &stockMin
			}
			if cmd.Flags().Changed("stock-max") {
				req.StockMax = &stockMax
			}
			_, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.ListProductsResponse, error) {
				return c.ListProducts(ctx, req)
			})
			return err
		},
	}

	cmd.Flags().StringVar(&req.NameContains, "name", "", "name substring")
	cmd.Flags().StringVar(&req.PriceMin, "price-min", "", "minimal price")
	cmd.Flags().StringVar(&req.PriceMax, "price-max", "", "maximal price")
	cmd.Flags().IntVar(&stockMin, "stock-min", 0, "minimal stock")
	cmd.Flags().IntVar(&stockMax, "stock-max", 0, "maximal stock")
	cmd.Flags().BoolVar(&req.LowStock, "low-stock", false, "only products that need restocking")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "max records (0 = server default)")

	return cmd
}
