package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rushteam/kuairec/config"
	"github.com/rushteam/kuairec/dataset"
	"github.com/rushteam/kuairec/export"
	"github.com/rushteam/kuairec/logging"
	"github.com/rushteam/kuairec/report"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "kuairec",
		Short:         "Download, load and inspect the KuaiRec dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml or json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newFetchCmd(opts),
		newLoadCmd(opts),
		newDescribeCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// setup 依次应用配置文件、环境变量与命令行参数，并初始化日志。
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, *dataset.Loader, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	loader, err := dataset.NewLoader(cfg, dataset.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract the dataset if it is not present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loader, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			dir, err := loader.EnsureLocalCopy(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load all tables and print their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			start := time.Now()
			ds, err := loader.Load(cmd.Context(), cfg.Dataset.Clean && !raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range ds.Tables() {
				fmt.Fprintf(out, "%-16s %12s rows %3d columns\n", t.Name, humanize.Comma(int64(t.Nrow())), len(t.Columns()))
			}
			slog.Info("load finished", "cleaned", ds.Cleaned, "duration", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "skip cleaning")
	return cmd
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	var raw, asJSON bool
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print per-table and per-column statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			ds, err := loader.Load(cmd.Context(), cfg.Dataset.Clean && !raw)
			if err != nil {
				return err
			}
			summary := report.Summarize(ds)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return summary.WriteText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "skip cleaning")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tables into a SQLite file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			ds, err := loader.Load(cmd.Context(), cfg.Dataset.Clean && !raw)
			if err != nil {
				return err
			}
			n, err := export.ToSQLite(cmd.Context(), out, ds)
			if err != nil {
				return err
			}
			slog.Info("export finished", "path", out, "rows", humanize.Comma(int64(n)))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "skip cleaning")
	cmd.Flags().StringVar(&out, "out", "", "sqlite file to write")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
