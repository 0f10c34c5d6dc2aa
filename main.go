package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dot5enko/region-fixer/config"
	"github.com/dot5enko/region-fixer/fixer"
	"github.com/dot5enko/region-fixer/metrics"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type flagValues struct {
	configPath  string
	compact     bool
	policy      string
	workers     int
	extension   string
	extended    bool
	metricsFile string
	logLevel    string
	verbose     bool
}

func newRootCommand() *cobra.Command {

	var values flagValues

	cmd := &cobra.Command{
		Use:   "regionfix [dir...]",
		Short: "Find and remove broken chunks in region files",
		Long: "regionfix checks every chunk of the region files in a directory (and its region/ subdirectory),\n" +
			"deletes the ones that can't be read or fail structural checks and optionally compacts the files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := buildConfig(cmd.Flags(), values, args)
			if cfgErr != nil {
				return cfgErr
			}

			level, _ := cfg.SlogLevel()
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, runErr := fixer.Run(ctx, cfg, metrics.New())
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&values.configPath, "config", "", "path to a yaml config file")
	flags.BoolVar(&values.compact, "compact", false, "compact region files after fixing them")
	flags.StringVar(&values.policy, "policy", string(config.PolicyDelete), "what to do with broken chunks: delete or replace")
	flags.IntVar(&values.workers, "workers", 1, "region files processed in parallel")
	flags.StringVar(&values.extension, "ext", config.DefaultExtension, "region file extension")
	flags.BoolVar(&values.extended, "extended-compression", false, "accept uncompressed and lz4 chunks instead of repairing them")
	flags.StringVar(&values.metricsFile, "metrics-file", "", "write prometheus metrics of the run to this file")
	flags.StringVar(&values.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	flags.BoolVar(&values.verbose, "verbose", false, "dump payloads of unreadable chunks and verify layouts after compaction")

	return cmd
}

// buildConfig loads the config file and applies the flags that were set explicitly on top of it.
// Positional arguments form one directory path, so paths with spaces work unquoted.
func buildConfig(flags *pflag.FlagSet, values flagValues, args []string) (config.Config, error) {

	cfg, loadErr := config.Load(values.configPath)
	if loadErr != nil {
		return cfg, loadErr
	}

	if len(args) > 0 {
		cfg.Dir = strings.Join(args, " ")
	}

	if flags.Changed("compact") {
		cfg.Compact = values.compact
	}
	if flags.Changed("policy") {
		cfg.Policy = config.RepairPolicy(values.policy)
	}
	if flags.Changed("workers") {
		cfg.Workers = values.workers
	}
	if flags.Changed("ext") {
		cfg.Extension = values.extension
	}
	if flags.Changed("extended-compression") {
		cfg.ExtendedCompression = values.extended
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = values.metricsFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = values.logLevel
	}
	if flags.Changed("verbose") {
		cfg.Verbose = values.verbose
	}

	normalizeErr := cfg.Normalize()
	return cfg, normalizeErr
}

func main() {
	execErr := newRootCommand().ExecuteContext(context.Background())
	if execErr != nil {
		color.Red("%s", execErr.Error())
		fmt.Fprintln(os.Stderr, "regionfix failed")
		os.Exit(1)
	}
}
