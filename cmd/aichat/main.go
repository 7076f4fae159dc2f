// Command aichat is a terminal client for the chat backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/aichat/internal/apiclient"
	"github.com/capitalize-ai/aichat/internal/chat"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		if !notified(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "aichat",
		Short: "Chat with AI assistants from the terminal",
		Long: `aichat talks to a chat backend: it signs you in, keeps your
conversations in order and sends your messages.

Examples:
  aichat login -u alice
  aichat conversations create --title "Trip ideas"
  aichat send -c 12 "Where should I go in October?"
  aichat conversations trash`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(cmd); err != nil {
				return err
			}
			return a.guard(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Chat API base URL (overrides AICHAT_API_URL)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newProfileCmd(a))
	root.AddCommand(newConversationsCmd(a))
	root.AddCommand(newSendCmd(a))
	root.AddCommand(newRolesCmd(a))
	root.AddCommand(newModelsCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newExportCmd(a))
	return root
}

// notified reports whether err was already shown to the user as a notice.
func notified(err error) bool {
	var (
		netErr  *apiclient.NetworkError
		appErr  *apiclient.ApplicationError
		authErr *apiclient.AuthError
		preErr  *chat.PreconditionError
	)
	return errors.As(err, &netErr) || errors.As(err, &appErr) ||
		errors.As(err, &authErr) || errors.As(err, &preErr)
}
