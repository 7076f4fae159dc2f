package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/router"
	"github.com/capitalize-ai/aichat/internal/tokenstore"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = a.prompt(cmd, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			user, err := a.auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			a.nav.Navigate(router.PathHome)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return routed(router.PathLogin, cmd)
}

func newRegisterCmd(a *app) *cobra.Command {
	var req model.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Username == "" {
				if req.Username, err = a.prompt(cmd, "Username: "); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = a.prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			user, err := a.auth.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Nickname, "nickname", "", "Display name")
	return routed(router.PathRegister, cmd)
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.nav.Navigate(router.PathLogin)
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and when the session expires",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.username())

			exp, err := tokenstore.ExpiresAt(a.creds.Token())
			switch {
			case errors.Is(err, tokenstore.ErrNoExpiry):
				fmt.Fprintln(out, "session does not expire")
			case err != nil:
				fmt.Fprintln(out, "session expiry unknown")
			default:
				fmt.Fprintf(out, "session expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
	return routed(router.PathProfile, cmd)
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.auth.RefreshProfile(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd, user)
			return nil
		},
	}

	var req model.UpdateProfileRequest
	update := &cobra.Command{
		Use:   "update",
		Short: "Change email, nickname or avatar",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.auth.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			printUser(cmd, user)
			return nil
		},
	}
	update.Flags().StringVar(&req.Email, "email", "", "Email address")
	update.Flags().StringVar(&req.Nickname, "nickname", "", "Display name")
	update.Flags().StringVar(&req.Avatar, "avatar", "", "Avatar URL")

	var oldPassword, newPassword string
	passwd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if oldPassword == "" {
				if oldPassword, err = a.prompt(cmd, "Current password: "); err != nil {
					return err
				}
			}
			if newPassword == "" {
				if newPassword, err = a.prompt(cmd, "New password: "); err != nil {
					return err
				}
			}
			return a.auth.ChangePassword(cmd.Context(), oldPassword, newPassword)
		},
	}
	passwd.Flags().StringVar(&oldPassword, "old", "", "Current password")
	passwd.Flags().StringVar(&newPassword, "new", "", "New password")

	cmd.AddCommand(routed(router.PathProfile, update))
	cmd.AddCommand(routed(router.PathProfile, passwd))
	return routed(router.PathProfile, cmd)
}

func printUser(cmd *cobra.Command, u model.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:       %d\n", u.ID)
	fmt.Fprintf(out, "username: %s\n", u.Username)
	if u.Nickname != "" {
		fmt.Fprintf(out, "nickname: %s\n", u.Nickname)
	}
	if u.Email != "" {
		fmt.Fprintf(out, "email:    %s\n", u.Email)
	}
}

// prompt reads one line from the command's input.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	if a.input == nil {
		a.input = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := a.input.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" && err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return line, nil
}
