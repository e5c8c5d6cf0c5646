package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Inspect and manage workspace documents",
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show <scope>",
	Short: "Print a scope's workspace document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ws, err := rt.workspaces.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rendered, err := ws.Render()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(rendered))
		return nil
	},
}

var workspaceResetCmd = &cobra.Command{
	Use:   "reset <scope>",
	Short: "Reset a scope's workspace to the template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.workspaces.Save(cmd.Context(), rt.workspaces.Template(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", args[0])
		return nil
	},
}

var workspaceDeleteCmd = &cobra.Command{
	Use:   "delete <scope>",
	Short: "Delete a scope's workspace document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.workspaces.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceShowCmd)
	workspaceCmd.AddCommand(workspaceResetCmd)
	workspaceCmd.AddCommand(workspaceDeleteCmd)
}
