package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
	"github.com/vladislavdragonenkov/crm/internal/version"
)

const (
	defaultAddr    = "localhost:50051"
	defaultTimeout = 10 * time.Second
)

// Dialer открывает соединение с CRM API. Возвращённая функция закрывает его.
type Dialer func(ctx context.Context, addr string) (*grpcsvc.Client, func() error, error)

// RootOptions — глобальные флаги crmctl.
type RootOptions struct {
	Addr    string
	Timeout time.Duration
	Pretty  bool

	dial Dialer
}

// DialGRPC — Dialer по умолчанию: обычное gRPC-соединение без TLS.
func DialGRPC(_ context.Context, addr string) (*grpcsvc.Client, func() error, error) {
	conn, err := grpcsvc.Dial(addr, grpc.WithUserAgent(version.ClientID("crmctl")))
	if err != nil {
		return nil, nil, err
	}
	return grpcsvc.NewClient(conn), conn.Close, nil
}

// NewRootCommand собирает дерево команд crmctl. nil dial означает DialGRPC.
func NewRootCommand(dial Dialer) *cobra.Command {
	if dial == nil {
		dial = DialGRPC
	}
	opts := &RootOptions{dial: dial}

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "crmctl - CRM API command line client",
		Long:          "Manage customers, products and orders of a running CRM service over gRPC.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Timeout <= 0 {
				return fmt.Errorf("invalid timeout %s: must be > 0", opts.Timeout)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", defaultAddr, "CRM gRPC address")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", defaultTimeout, "per-call timeout")
	cmd.PersistentFlags().BoolVar(&opts.Pretty, "pretty", false, "indent JSON output")

	cmd.AddCommand(newHelloCommand(opts))
	cmd.AddCommand(newRestockCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newCustomerCommand(opts))
	cmd.AddCommand(newProductCommand(opts))
	cmd.AddCommand(newOrderCommand(opts))

	return cmd
}

// call открывает соединение, выполняет fn с таймаутом и печатает ответ.
func call[Resp any](cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, c *grpcsvc.Client) (*Resp, error)) (*Resp, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	client, closeConn, err := opts.dial(ctx, opts.Addr)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connect to "+opts.Addr, err)
	}
	defer func() { _ = closeConn() }()

	resp, err := fn(ctx, client)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "request failed", err)
	}
	if err := writeJSON(cmd.OutOrStdout(), resp, opts.Pretty); err != nil {
		return nil, err
	}
	return resp, nil
}

// failedUnless превращает отказ операции в ненулевой код выхода.
func failedUnless(ok bool, message string) error {
	if ok {
		return nil
	}
	return NewExitError(ExitFailure, message)
}
