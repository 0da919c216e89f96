package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/ui"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "taskhub",
		Short: "Projects, tasks, tags and comments in your terminal",
		Long: `taskhub keeps projects, tasks, tags and comments for each signed-in profile.

Run without a subcommand to open the interactive dashboard.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/taskhub/config.yaml)")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newProfileCmd(opts),
		newProjectCmd(opts),
		newTaskCmd(opts),
		newTagCmd(opts),
		newCommentCmd(opts),
		newStatsCmd(opts),
		newSeedCmd(opts),
		newBenchCmd(opts),
	)
	return cmd
}

// withEnv opens the environment for one command run and closes it after.
func withEnv(ctx context.Context, opts *rootOptions, eo envOptions, fn func(*env) error) (err error) {
	e, err := openEnv(ctx, opts, eo)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(e)
}

// withUser is withEnv for commands that need a signed-in profile.
func withUser(ctx context.Context, opts *rootOptions, fn func(*env) error) error {
	return withEnv(ctx, opts, envOptions{}, func(e *env) error {
		if err := e.requireUser(); err != nil {
			return err
		}
		return fn(e)
	})
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	return withEnv(ctx, opts, envOptions{tui: true}, func(e *env) error {
		app := ui.NewApp(ctx, e.repos, e.session, e.db, e.logger)
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run application: %w", err)
		}
		return nil
	})
}
