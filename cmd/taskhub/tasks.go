package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/stats"
)

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(
		newTaskListCmd(opts),
		newTaskAddCmd(opts),
		newTaskUpdateCmd(opts),
		newTaskRmCmd(opts),
	)
	return cmd
}

func newTaskListCmd(opts *rootOptions) *cobra.Command {
	var f filter.Tasks

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Validate(); err != nil {
				return err
			}
			return withUser(cmd.Context(), opts, func(e *env) error {
				tasks, err := e.repos.Tasks.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
					return nil
				}

				now := time.Now()
				rows := make([][]string, 0, len(tasks))
				for _, t := range tasks {
					due := formatDate(t.DueDate)
					if stats.IsOverdue(t, now) {
						due += " !"
					}
					rows = append(rows, []string{
						t.ID,
						t.Title,
						t.ProjectName,
						t.Status.Label(),
						string(t.Priority),
						due,
						tagNames(t.Tags),
					})
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "Title", "Project", "Status", "Priority", "Due", "Tags"}, rows)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.ProjectID, "project", "", "only tasks of this project")
	flags.StringVar(&f.Status, "status", filter.All, "pending, in_progress, completed or all")
	flags.StringVar(&f.Search, "search", "", "title contains")
	flags.StringSliceVar(&f.TagIDs, "tag", nil, "carrying any of these tag ids")
	return cmd
}

func newTaskAddCmd(opts *rootOptions) *cobra.Command {
	var (
		in       models.NewTask
		status   string
		priority string
		due      string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			in.Status = models.TaskStatus(status)
			in.Priority = models.Priority(priority)
			if due != "" {
				d, err := parseDate("due", due)
				if err != nil {
					return err
				}
				in.DueDate = &d
			}

			return withUser(cmd.Context(), opts, func(e *env) error {
				t, err := e.repos.Tasks.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&in.ProjectID, "project", "p", "", "project id")
	flags.StringVarP(&in.Description, "description", "d", "", "description")
	flags.StringVar(&status, "status", "", "initial status (default pending)")
	flags.StringVar(&priority, "priority", "", "low, medium or high (default medium)")
	flags.StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	flags.StringSliceVar(&in.TagIDs, "tag", nil, "tag ids to attach")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		project     string
		title       string
		description string
		status      string
		priority    string
		due         string
		clearDue    bool
		tags        []string
		clearTags   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("project") {
				patch.ProjectID = &project
			}
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				patch.Status = models.Ptr(models.TaskStatus(status))
			}
			if flags.Changed("priority") {
				patch.Priority = models.Ptr(models.Priority(priority))
			}
			if flags.Changed("due") {
				d, err := parseDate("due", due)
				if err != nil {
					return err
				}
				patch.DueDate = &d
			}
			patch.ClearDueDate = clearDue
			switch {
			case clearTags:
				patch.TagIDs = models.TagSet()
			case flags.Changed("tag"):
				patch.TagIDs = models.TagSet(tags...)
			}

			return withUser(cmd.Context(), opts, func(e *env) error {
				t, err := e.repos.Tasks.Update(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s, %s)\n", t.ID, t.Title, t.Status.Label())
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&project, "project", "", "move to this project")
	flags.StringVar(&title, "title", "", "new title")
	flags.StringVarP(&description, "description", "d", "", "new description")
	flags.StringVar(&status, "status", "", "pending, in_progress or completed")
	flags.StringVar(&priority, "priority", "", "low, medium or high")
	flags.StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	flags.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	flags.StringSliceVar(&tags, "tag", nil, "replace the tags with these ids")
	flags.BoolVar(&clearTags, "clear-tags", false, "remove every tag")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cmd.MarkFlagsMutuallyExclusive("tag", "clear-tags")
	return cmd
}

func newTaskRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				if err := e.repos.Tasks.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
				return nil
			})
		},
	}
}

func tagNames(tags []models.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
