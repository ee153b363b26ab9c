package main

import (
	"fmt"
	"log/slog"

	"lightorm/orm/topology"

	"github.com/spf13/cobra"
)

func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config and ping every database",
		Long: `Open a connection pool for every configured bind, ping it, print the
resulting topology and close everything again.

Example:
  lightorm check -c ./lightorm.yaml --env testing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			t, err := topology.Open(cmd.Context(), cfg.Databases, topology.WithLogFunc(func(format string, args ...any) {
				slog.Debug(fmt.Sprintf(format, args...))
			}))
			if err != nil {
				return err
			}
			defer func() {
				if dErr := t.Dispose(); dErr != nil {
					slog.Error("error disposing topology", "error", dErr)
				}
			}()
			if err = t.Ping(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range t.Engines() {
				fmt.Fprintf(out, "%-24s %-6s pool_size=%d max_overflow=%d pool_timeout=%s isolation=%q\n",
					e.Bind, e.Op, e.Options.PoolSize, e.Options.MaxOverflow, e.Options.PoolTimeout, e.Options.IsolationLevel)
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	return cmd
}
