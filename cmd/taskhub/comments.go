package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/models"
)

func newCommentCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		Short:   "Discuss a task",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <task-id>",
			Short: "Show a task's comments, oldest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withUser(cmd.Context(), opts, func(e *env) error {
					comments, err := e.repos.Comments.List(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					w := cmd.OutOrStdout()
					if len(comments) == 0 {
						fmt.Fprintln(w, "No comments.")
						return nil
					}
					for _, c := range comments {
						fmt.Fprintf(w, "%s  %s  %s\n  %s\n", c.ID, c.AuthorName, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Content)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <task-id> <text...>",
			Short: "Comment on a task",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				in := models.NewComment{TaskID: args[0], Content: strings.Join(args[1:], " ")}
				return withUser(cmd.Context(), opts, func(e *env) error {
					c, err := e.repos.Comments.Create(cmd.Context(), in)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created comment %s\n", c.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete one of your comments",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withUser(cmd.Context(), opts, func(e *env) error {
					if err := e.repos.Comments.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}
