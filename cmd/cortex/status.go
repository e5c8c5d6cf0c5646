package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxos/cortex/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of all configured components",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		statuses := []struct {
			name   string
			status types.HealthStatus
		}{
			{"provider", rt.provider.Health(ctx)},
			{"embedder", rt.embedder.Health(ctx)},
			{"workspace", rt.workspaces.Health(ctx)},
			{"knowledge", rt.entries.Health(ctx)},
			{"index", rt.index.Health(ctx)},
			{"coordinator", rt.coord.Health(ctx)},
		}

		unhealthy := false
		for _, s := range statuses {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-10s %s\n", s.name, s.status.State, s.status.Message)
			if s.status.IsUnhealthy() {
				unhealthy = true
			}
		}
		if unhealthy {
			return fmt.Errorf("one or more components are unhealthy")
		}
		return nil
	},
}
