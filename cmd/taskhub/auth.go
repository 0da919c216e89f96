package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskhub/internal/models"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in, creating the profile on first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), opts, envOptions{}, func(e *env) error {
				user, err := e.session.SignIn(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", user.Name(), user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name for a new profile")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), opts, envOptions{}, func(e *env) error {
				if err := e.session.SignOut(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				printUser(cmd, e.session.CurrentUser())
				return nil
			})
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var name, avatar string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the display name and avatar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), opts, func(e *env) error {
				var namePtr, avatarPtr *string
				if cmd.Flags().Changed("name") {
					namePtr = &name
				}
				if cmd.Flags().Changed("avatar") {
					avatarPtr = &avatar
				}
				if namePtr == nil && avatarPtr == nil {
					printUser(cmd, e.session.CurrentUser())
					return nil
				}

				user, err := e.session.UpdateProfile(cmd.Context(), namePtr, avatarPtr)
				if err != nil {
					return err
				}
				printUser(cmd, user)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL (empty clears it)")
	return cmd
}

func printUser(cmd *cobra.Command, u *models.User) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s <%s>\n", u.Name(), u.Email)
	fmt.Fprintf(w, "id:      %s\n", u.ID)
	if u.AvatarURL != "" {
		fmt.Fprintf(w, "avatar:  %s\n", u.AvatarURL)
	}
	fmt.Fprintf(w, "since:   %s\n", u.CreatedAt.Format(dateLayout))
}
