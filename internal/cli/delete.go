package cli

import (
	"context"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
)

type deleteFunc func(ctx context.Context, req *grpcsvc.DeleteRequest, opts ...grpc.CallOption) (*grpcsvc.DeleteResponse, error)

func newDeleteCommand(opts *RootOptions, entity, short string, pick func(*grpcsvc.Client) deleteFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <" + entity + "-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &grpcsvc.DeleteRequest{ID: args[0]}
			resp, err := call(cmd, opts, func(ctx context.Context, c *grpcsvc.Client) (*grpcsvc.DeleteResponse, error) {
				return pick(c)(ctx, req)
			})
			if err != nil {
				return err
			}
			return failedUnless(resp.Success, resp.Message)
		},
	}
}
