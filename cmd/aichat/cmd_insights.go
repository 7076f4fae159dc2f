package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/router"
)

func newRolesCmd(a *app) *cobra.Command {
	var public bool
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List AI roles (your own, or --public)",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := a.client.MyRoles
			if public {
				list = a.client.PublicRoles
			}
			roles, err := list(cmd.Context())
			if err != nil {
				return err
			}
			if len(roles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No roles")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMODEL\tDESCRIPTION")
			for _, r := range roles {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Name, dash(r.Model), r.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "List public roles")

	var req model.RoleRequest
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an AI role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			role, err := a.client.CreateRole(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", role.ID, role.Name)
			return nil
		},
	}
	create.Flags().StringVar(&req.Description, "description", "", "Short description")
	create.Flags().StringVar(&req.SystemPrompt, "prompt", "", "System prompt")
	create.Flags().StringVar(&req.Model, "model", "", "Default model")
	create.Flags().BoolVar(&req.IsPublic, "public", false, "Share the role with everyone")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.client.DeleteRole(cmd.Context(), id)
		},
	}

	cmd.AddCommand(routed(router.PathRoles, create))
	cmd.AddCommand(routed(router.PathRoles, del))
	return routed(router.PathRoles, cmd)
}

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the backend offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.client.Models(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tAVAILABLE")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", m.ID, m.Name, m.Available)
			}
			return tw.Flush()
		},
	}
	return routed(router.PathChat, cmd)
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "conversations:  %d\n", s.TotalConversations)
			fmt.Fprintf(out, "messages:       %d\n", s.TotalMessages)
			fmt.Fprintf(out, "recycle bin:    %d\n", s.DeletedConversations)
			fmt.Fprintf(out, "roles:          %d\n", s.TotalRoles)
			return nil
		},
	}
	return routed(router.PathChat, cmd)
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a conversation as text, json or markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f := model.ExportFormat(format)
			if !f.Valid() {
				return fmt.Errorf("unsupported format %q", format)
			}
			body, err := a.client.Export(cmd.Context(), id, f)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported conversation %d to %s\n", id, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(model.ExportMarkdown), "text, json or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return routed(router.PathChat, cmd)
}
