package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DataDaddy212/doney-mirror/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the goal tree over HTTP until interrupted. Every mutation goes
through a single workspace and is saved after the debounce period; pending
changes are written on shutdown.

Examples:
  doney serve
  doney serve --addr 0.0.0.0:8787`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			client, err := newPlanner(a.cfg.Planner, a.logger, a.metrics)
			if err != nil {
				a.close()
				return WrapExitError(ExitCommandError, "failed to configure planner", err)
			}
			if !client.Configured() {
				a.logger.Warn("planner not configured", "api_key_env", a.cfg.Planner.APIKeyEnv)
			}

			srv := server.New(a.ws,
				server.WithPlanner(client),
				server.WithMetrics(a.metrics),
				server.WithLogger(a.logger),
				server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins))

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				a.close()
				return WrapExitError(ExitCommandError, "failed to listen", err)
			}

			ctx, cancel := context.WithCancel(commandContext(cmd))
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				select {
				case sig := <-sigChan:
					a.logger.Info("received signal, shutting down", "signal", sig)
					cancel()
				case <-ctx.Done():
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

			return a.run(ctx, func(ctx context.Context) error {
				return srv.ServeListener(ctx, ln)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
