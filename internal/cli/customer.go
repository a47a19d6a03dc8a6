package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
)

func newCustomerCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers",
	}
	cmd.AddCommand(newCustomerCreateCommand(opts))
	cmd.AddCommand(newCustomerBulkCommand(opts))
	cmd.AddCommand(newCustomerDeleteCommand(opts))
	cmd.AddCommand(newCustomerListCommand(opts))
	return cmd
}

func newCustomerCreateCommand(opts *RootOptions) *cobra.Command {
	req := &grpcsvc.CreateCustomerRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a customer",
		Example: `  crmctl customer create --name "Alice" --email alice@example.com --phone 1234567`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.CreateCustomerResponse, error) {
				return c.CreateCustomer(ctx, req)
			})
			if err != nil {
				return err
			}
			return failedUnless(resp.Success, resp.Message)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&req.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "customer phone (optional)")

	return cmd
}

func newCustomerBulkCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Create customers from a JSON array",
		Long: `Create customers from a JSON array of {"name","email","phone"} objects.

Valid entries are created even when others are rejected; the command exits
with code 1 if any entry was rejected.`,
		Example: `  crmctl customer bulk --file customers.json
  cat customers.json | crmctl customer bulk --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			customers, err := readCustomers(cmd, file)
			if err != nil {
				return err
			}
			req := &grpcsvc.BulkCreateCustomersRequest{Customers: customers}
			resp, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.BulkCreateCustomersResponse, error) {
				return c.BulkCreateCustomers(ctx, req)
			})
			if err != nil {
				return err
			}
			return failedUnless(len(resp.Errors) == 0, resp.Message)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with customers, - for stdin")

	return cmd
}

func readCustomers(cmd *cobra.Command, file string) ([]grpcsvc.CreateCustomerRequest, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open customers file", err)
		}
		defer f.Close()
		r = f
	}

	var customers []grpcsvc.CreateCustomerRequest
	if err := json.NewDecoder(r).Decode(&customers); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid customers JSON", err)
	}
	return customers, nil
}

func newCustomerDeleteCommand(opts *RootOptions) *cobra.Command {
	return newDeleteCommand(opts, "customer", "Delete a customer and its orders",
		func(c *grpcsvc.Client) deleteFunc { return c.DeleteCustomer })
}

func newCustomerListCommand(opts *RootOptions) *cobra.Command {
	req := &grpcsvc.ListCustomersRequest{}
	var createdFrom, createdTo string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.CreatedFrom, err = parseTimeFlag("created-from", createdFrom); err != nil {
				return err
			}
			if req.CreatedTo, err = parseTimeFlag("created-to", createdTo); err != nil {
				return err
			}
			_, err = call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.ListCustomersResponse, error) {
				return c.ListCustomers(ctx, req)
			})
			return err
		},
	}

	cmd.Flags().StringVar(&req.NameContains, "name", "", "name substring")
	cmd.Flags().StringVar(&req.EmailContains, "email", "", "email substring")
	cmd.Flags().StringVar(&req.PhonePrefix, "phone-prefix", "", "phone prefix")
	cmd.Flags().StringVar(&createdFrom, "created-from", "", "created at or after (RFC3339)")
	cmd.Flags().StringVar(&createdTo, "created-to", "", "created at or before (RFC3339)")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "max records (0 = server default)")

	return cmd
}

func badFlag(name, raw string, err error) error {
	return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q", name, raw), err)
}
