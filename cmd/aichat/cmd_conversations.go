package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/router"
)

func newConversationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage conversations and the recycle bin",
	}

	cmd.AddCommand(routed(router.PathChat, &cobra.Command{
		Use:   "list",
		Short: "List active conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.LoadAll(cmd.Context()); err != nil {
				return err
			}
			printConversations(cmd.OutOrStdout(), a.store.Conversations(), false)
			return nil
		},
	}))

	var title, selectedModel string
	var roleID int64
	create := &cobra.Command{
		Use:   "create",
		Short: "Start a new conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var role *int64
			if roleID > 0 {
				role = &roleID
			}
			conv, err := a.store.Create(cmd.Context(), title, role, selectedModel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", conv.ID, conv.Title)
			return nil
		},
	}
	create.Flags().StringVarP(&title, "title", "t", "", "Conversation title")
	create.Flags().Int64Var(&roleID, "role", 0, "AI role id")
	create.Flags().StringVar(&selectedModel, "model", "", "Model to use")
	cmd.AddCommand(routed(router.PathChat, create))

	cmd.AddCommand(routed(router.PathChat, &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			conv, err := a.store.LoadConversation(cmd.Context(), id)
			if err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), conv)
			return nil
		},
	}))

	var permanent bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Move a conversation to the recycle bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if permanent {
				return a.store.PermanentDelete(cmd.Context(), id)
			}
			return a.store.SoftDelete(cmd.Context(), id)
		},
	}
	del.Flags().BoolVar(&permanent, "permanent", false, "Delete without going through the recycle bin")
	cmd.AddCommand(routed(router.PathChat, del))

	cmd.AddCommand(routed(router.PathChat, &cobra.Command{
		Use:   "model <id> <model>",
		Short: "Change the model a conversation uses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.store.LoadConversation(cmd.Context(), id); err != nil {
				return err
			}
			return a.store.UpdateModel(cmd.Context(), args[1])
		},
	}))

	cmd.AddCommand(routed(router.PathRecycleBin, &cobra.Command{
		Use:   "trash",
		Short: "List conversations in the recycle bin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.LoadDeleted(cmd.Context()); err != nil {
				return err
			}
			printConversations(cmd.OutOrStdout(), a.store.Deleted(), true)
			return nil
		},
	}))

	cmd.AddCommand(routed(router.PathRecycleBin, &cobra.Command{
		Use:   "restore <id>",
		Short: "Bring a conversation back from the recycle bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.store.Restore(cmd.Context(), id)
		},
	}))

	cmd.AddCommand(routed(router.PathRecycleBin, &cobra.Command{
		Use:   "empty",
		Short: "Permanently delete everything in the recycle bin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.EmptyRecycleBin(cmd.Context())
		},
	}))

	return cmd
}

func newSendCmd(a *app) *cobra.Command {
	var (
		convID    int64
		newConv   bool
		thinking  bool
		modelName string
	)
	cmd := &cobra.Command{
		Use:   "send <message>...",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case newConv:
				if _, err := a.store.Create(ctx, "", nil, modelName); err != nil {
					return err
				}
			case convID > 0:
				if _, err := a.store.LoadConversation(ctx, convID); err != nil {
					return err
				}
			}

			content := strings.Join(args, " ")
			if thinking {
				content = model.ThinkingModeMarker + "\n" + content
			}
			reply, err := a.store.SendMessage(ctx, content, modelName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&convID, "conversation", "c", 0, "Conversation id")
	cmd.Flags().BoolVar(&newConv, "new", false, "Start a new conversation for this message")
	cmd.Flags().BoolVar(&thinking, "thinking", false, "Ask for the extended reasoning mode")
	cmd.Flags().StringVar(&modelName, "model", "", "Model to use for this message")
	cmd.MarkFlagsMutuallyExclusive("conversation", "new")
	return routed(router.PathChat, cmd)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func printConversations(out io.Writer, convs []model.Conversation, recycled bool) {
	if len(convs) == 0 {
		fmt.Fprintln(out, "No conversations")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	when := "LAST ACTIVE"
	if recycled {
		when = "DELETED"
	}
	fmt.Fprintf(tw, "ID\tTITLE\tROLE\tMODEL\t%s\n", when)
	for _, c := range convs {
		at := c.LastMessageAt
		if recycled {
			at = c.DeletedAt
		}
		if at == nil {
			at = &c.CreatedAt
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Title, dash(c.AIRoleName), dash(c.SelectedModel), at.Local().Format(time.DateTime))
	}
	tw.Flush()
}

func printTranscript(out io.Writer, conv model.Conversation) {
	fmt.Fprintf(out, "# %s\n", conv.Title)
	if conv.AIRoleName != "" {
		fmt.Fprintf(out, "role: %s\n", conv.AIRoleName)
	}
	for _, m := range conv.Messages {
		fmt.Fprintf(out, "\n[%s] %s\n%s\n", m.Role, m.CreatedAt.Local().Format(time.DateTime), m.Content)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
