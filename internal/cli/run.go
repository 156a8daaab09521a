// File: internal/cli/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-pool/internal/bench"
	"github.com/momentics/hioload-pool/internal/config"
	"github.com/momentics/hioload-pool/threadpool"
)

type runFlags struct {
	configPath  string
	strategies  strategyList
	workers     int
	tasks       int
	queue       int
	repetitions int
	format      string
}

func newRunCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workload against each strategy",
		Long: `Run builds one pool per selected strategy, submits the configured
tasks, waits for completion and reports the timings. Flags override the
values read from --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			runner, err := bench.NewRunner(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			results, err := runner.Run(ctx)
			if err != nil {
				return fmt.Errorf("benchmark failed: %w", err)
			}

			format := bench.ResolveFormat(cfg.Report.Format, bench.IsTTY())
			return bench.Write(cmd.OutOrStdout(), format, results)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "YAML config file (see \"config init\")")
	flags.VarP(&f.strategies, "strategy", "s", "strategy to run, repeatable (default: all)")
	flags.IntVarP(&f.workers, "workers", "w", 0, "worker threads per pool (0: NumCPU-1)")
	flags.IntVarP(&f.tasks, "tasks", "n", 0, "tasks per repetition")
	flags.IntVarP(&f.queue, "queue", "q", 0, "queue capacity of queue-based strategies")
	flags.IntVarP(&f.repetitions, "repetitions", "r", 0, "repetitions per strategy")
	flags.StringVarP(&f.format, "format", "f", "", "report format: auto, table or json")
	return cmd
}

// strategyList collects repeated or comma-separated --strategy values.
type strategyList []threadpool.Strategy

func (l *strategyList) String() string {
	names := make([]string, len(*l))
	for i, s := range *l {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}

func (l *strategyList) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		var s threadpool.Strategy
		if err := s.Set(name); err != nil {
			return err
		}
		*l = append(*l, s)
	}
	return nil
}

func (l *strategyList) Type() string { return "strategies" }

// resolve loads the config file, or the defaults, and applies the flags
// the user set explicitly.
func (f *runFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.ReadConfig(f.configPath); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Strategies = f.strategies
	}
	if changed("workers") {
		cfg.Pool.Workers = f.workers
	}
	if changed("tasks") {
		cfg.Workload.Tasks = f.tasks
	}
	if changed("queue") {
		cfg.Pool.QueueCapacity = f.queue
	}
	if changed("repetitions") {
		cfg.Workload.Repetitions = f.repetitions
	}
	if changed("format") {
		cfg.Report.Format = f.format
	}
	return cfg, cfg.Validate()
}
