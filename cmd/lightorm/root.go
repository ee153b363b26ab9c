package main

import (
	"log/slog"
	"os"

	"lightorm/config"

	"github.com/spf13/cobra"
)

// RootOptions 所有子命令共用的参数
type RootOptions struct {
	ConfigPath string
	Env        string
	Verbose    bool
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lightorm",
		Short: "lightorm - query API over a read/write database topology",
		Long: `lightorm serves a JSON query API on top of a small ORM.

Databases, tracing and metrics are configured in a YAML file with one section
per environment. The environment is taken from --env, then from LIGHTORM_ENV,
then falls back to "default".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "lightorm.yaml", "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.Env, "env", "", "config environment (development|testing|production|default)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// loadConfig --env 优先于 LIGHTORM_ENV
func (o *RootOptions) loadConfig() (config.Config, error) {
	data, err := os.ReadFile(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	env := config.Env(o.Env)
	if env == "" {
		env = config.Env(os.Getenv(config.EnvVar))
	}
	cfg, err := config.Parse(data, env)
	if err != nil {
		return config.Config{}, err
	}
	// 命令行的 --verbose 打开 SQL 回显
	if o.Verbose {
		cfg.Debug = true
	}
	return cfg, nil
}
