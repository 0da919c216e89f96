package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

func newTagCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
	}
	cmd.AddCommand(
		newTagListCmd(opts),
		newTagAddCmd(opts),
		newTagUpdateCmd(opts),
		newTagRmCmd(opts),
	)
	return cmd
}

func newTagListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				tags, err := e.repos.Tags.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(tags) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tags.")
					return nil
				}

				rows := make([][]string, 0, len(tags))
				for _, t := range tags {
					swatch := styles.Tag(t.Color).Render(t.Color)
					rows = append(rows, []string{t.ID, t.Name, swatch})
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Color"}, rows)
				return nil
			})
		},
	}
}

func newTagAddCmd(opts *rootOptions) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				t, err := e.repos.Tags.Create(cmd.Context(), models.NewTag{Name: args[0], Color: color})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created tag %s\n", t.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "hex color like #22c55e (default "+models.DefaultTagColor+")")
	return cmd
}

func newTagUpdateCmd(opts *rootOptions) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.TagPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}

			return withUser(cmd.Context(), opts, func(e *env) error {
				t, err := e.repos.Tags.Update(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated tag %s (%s, %s)\n", t.ID, t.Name, t.Color)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new hex color")
	return cmd
}

func newTagRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a tag and detach it from every task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				if err := e.repos.Tags.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s\n", args[0])
				return nil
			})
		},
	}
}
