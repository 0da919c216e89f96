package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/sample"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the signed-in workspace with demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				res, err := sample.Seed(cmd.Context(), e.repos, time.Now(), force)
				if errors.Is(err, sample.ErrNotEmpty) {
					return fmt.Errorf("%w; pass --force to add the demo data anyway", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d tags, %d projects and %d tasks\n", res.Tags, res.Projects, res.Tasks)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "seed even when projects exist")
	return cmd
}
