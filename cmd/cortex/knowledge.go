package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxos/cortex/internal/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Inspect and manage the knowledge store",
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all knowledge entries, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries, err := rt.entries.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
				e.ID, e.UpdatedAt.Format("2006-01-02 15:04"), e.Content)
		}
		return nil
	},
}

var knowledgeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry with its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		entry, err := rt.entries.Load(cmd.Context(), id)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var knowledgeHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show preserved prior revisions of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		revisions, err := rt.entries.History(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(revisions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no preserved revisions")
			return nil
		}
		for _, rev := range revisions {
			fmt.Fprintf(cmd.OutOrStdout(), "rev %d  %s  %s\n",
				rev.Rev, rev.ReplacedAt.Format("2006-01-02 15:04"), rev.Content)
		}
		return nil
	},
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find entries similar to a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		matches, err := rt.index.FindSimilar(cmd.Context(), args[0], cfg.Coordinator.RetrievalLimit, nil)
		if err != nil {
			return err
		}
		for _, m := range matches {
			entry, err := rt.entries.Load(cmd.Context(), m.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s  %s\n", m.Score, m.ID, entry.Content)
		}
		return nil
	},
}

var knowledgeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry and its index record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		if err := rt.entries.Delete(cmd.Context(), id); err != nil {
			return err
		}
		if err := rt.index.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	},
}

func init() {
	knowledgeCmd.AddCommand(knowledgeListCmd)
	knowledgeCmd.AddCommand(knowledgeShowCmd)
	knowledgeCmd.AddCommand(knowledgeHistoryCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
	knowledgeCmd.AddCommand(knowledgeDeleteCmd)
}
