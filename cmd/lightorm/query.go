package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"lightorm/internal/app"
	"lightorm/orm/query"
	"lightorm/orm/repo"
	"lightorm/orm/topology"

	"github.com/spf13/cobra"
)

type QueryOptions struct {
	*RootOptions
	File string
}

func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a JSON query request against the users table",
		Long: `Read a query request (filters, sorting, pagination, group_by, need_fields)
from --file or stdin, run it and print the result as JSON.

Example:
  echo '{"pagination": {"page": 1, "page_count": 10}}' | lightorm query
  lightorm query -f ./request.json --env testing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "request file, stdin when empty")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	var in io.Reader = cmd.InOrStdin()
	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	// 先校验请求，不合法就不用连数据库
	req, err := query.DecodeRequest(data)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
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

	res, err := repo.New[app.User](t).Query(cmd.Context(), req)
	if err != nil {
		return err
	}
	var out any = res.Entities
	if res.Records != nil {
		out = res.Records
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
