package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/stats"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectListCmd(opts),
		newProjectAddCmd(opts),
		newProjectUpdateCmd(opts),
		newProjectRmCmd(opts),
	)
	return cmd
}

func newProjectListCmd(opts *rootOptions) *cobra.Command {
	var f filter.Projects

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Validate(); err != nil {
				return err
			}
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

				projects = f.Apply(projects)
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects.")
					return nil
				}

				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					prog := stats.ProjectProgress(tasks, p.ID)
					rows = append(rows, []string{
						p.ID,
						p.Name,
						p.Status.Label(),
						fmt.Sprintf("%d/%d", prog.Completed, prog.Total),
						strconv.Itoa(prog.Percent) + "%",
						formatDate(p.DueDate),
					})
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Status", "Done", "Progress", "Due"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.Status, "status", filter.All, "active, completed, on_hold, cancelled or all")
	cmd.Flags().StringVar(&f.Search, "search", "", "name contains")
	return cmd
}

func newProjectAddCmd(opts *rootOptions) *cobra.Command {
	var (
		description string
		status      string
		due         string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.NewProject{
				Name:        args[0],
				Description: description,
				Status:      models.ProjectStatus(status),
			}
			if due != "" {
				d, err := parseDate("due", due)
				if err != nil {
					return err
				}
				in.DueDate = &d
			}

			return withUser(cmd.Context(), opts, func(e *env) error {
				p, err := e.repos.Projects.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default active)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

func newProjectUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		name        string
		description string
		status      string
		due         string
		clearDue    bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ProjectPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := models.ProjectStatus(status)
				patch.Status = &s
			}
			if flags.Changed("due") {
				d, err := parseDate("due", due)
				if err != nil {
					return err
				}
				patch.DueDate = &d
			}
			patch.ClearDueDate = clearDue

			return withUser(cmd.Context(), opts, func(e *env) error {
				p, err := e.repos.Projects.Update(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (%s, %s)\n", p.ID, p.Name, p.Status.Label())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "active, completed, on_hold or cancelled")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newProjectRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a project with its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				if err := e.repos.Projects.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
				return nil
			})
		},
	}
}
