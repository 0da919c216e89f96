package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/bench"
	"github.com/tgienger/taskhub/internal/perf"
)

func newBenchCmd(opts *rootOptions) *cobra.Command {
	var o bench.Options

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time create, update and delete cycles against the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), opts, envOptions{monitor: true}, func(e *env) error {
				if err := e.requireUser(); err != nil {
					return err
				}

				w := cmd.ErrOrStderr()
				o.Progress = func(entity string) { fmt.Fprintf(w, "Benchmarking %s...\n", entity) }
				report, err := bench.Run(cmd.Context(), e.repos, e.monitor, o)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&o.Iterations, "iterations", "n", bench.DefaultIterations, "cycles per entity")
	cmd.Flags().DurationVar(&o.Pause, "pause", 0, "sleep between cycles")
	return cmd
}

func printReport(cmd *cobra.Command, report []perf.Stat) {
	rows := make([][]string, 0, len(report))
	for _, s := range report {
		rows = append(rows, []string{
			s.Entity,
			s.Operation,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Failures),
			ms(s.Avg),
			ms(s.Min),
			ms(s.Max),
		})
	}
	printTable(cmd.OutOrStdout(), []string{"Entity", "Op", "Count", "Failed", "Avg", "Min", "Max"}, rows)
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}
