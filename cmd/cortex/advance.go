package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var advanceScope string

var advanceCmd = &cobra.Command{
	Use:   "advance [message...]",
	Short: "Run one coordination cycle for a scope",
	Long: `Advance runs one full coordination cycle: boundary detection,
stage dispatch, knowledge retrieval and storage, and workspace
integration. It prints the terminal decision when the cycle ends.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		message := strings.Join(args, " ")
		decision, err := rt.coord.Advance(cmd.Context(), advanceScope, message)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "terminal: %s\n", decision.NextStage)
		if decision.Explanation != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "explanation: %s\n", decision.Explanation)
		}
		return nil
	},
}

func init() {
	advanceCmd.Flags().StringVarP(&advanceScope, "scope", "s", "private/default", "workspace scope to advance")
}
