package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/stats"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize projects and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				ctx := cmd.Context()
				projects, err := e.repos.Projects.List(ctx)
				if err != nil {
					return err
				}
				tasks, err := e.repos.Tasks.List(ctx, filter.Tasks{})
				if err != nil {
					return err
				}

				s := stats.Summarize(projects, tasks, time.Now())
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Projects  %d total, %d active, %d completed, %d on hold, %d cancelled\n",
					s.Projects.Total, s.Projects.Active, s.Projects.Completed, s.Projects.OnHold, s.Projects.Cancelled)
				fmt.Fprintf(w, "Tasks     %d total, %d pending, %d in progress, %d completed, %d overdue\n",
					s.Tasks.Total, s.Tasks.Pending, s.Tasks.InProgress, s.Tasks.Completed, s.Overdue)
				fmt.Fprintf(w, "Complete  %s %d%%\n", styles.ProgressBar(s.Percent, 20), s.Percent)

				if len(projects) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					prog := stats.ProjectProgress(tasks, p.ID)
					rows = append(rows, []string{
						p.Name,
						p.Status.Label(),
						styles.ProgressBar(prog.Percent, 12) + " " + strconv.Itoa(prog.Percent) + "%",
						fmt.Sprintf("%d/%d", prog.Completed, prog.Total),
					})
				}
				printTable(w, []string{"Project", "Status", "Progress", "Done"}, rows)
				return nil
			})
		},
	}
}
