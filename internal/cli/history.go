package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newHistoryCmd creates the history command.
func newHistoryCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <diagram-id>",
		Short: "Show a diagram's version chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			versions, err := h.Store.History(ctx, args[0])
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				printInfo("No versions stored for %s", args[0])
				return nil
			}

			for _, v := range versions {
				parent := "root"
				if v.ParentVersion != nil {
					parent = fmt.Sprintf("v%d", *v.ParentVersion)
				}
				printKeyValue(fmt.Sprintf("v%d", v.IRVersion),
					fmt.Sprintf("%d blocks, %d edges, parent %s",
						len(v.IR.Diagram.Blocks), len(v.IR.Diagram.Edges), parent))
			}
			return nil
		},
	}

	cmd.AddCommand(newHistoryDeleteCmd(flags))
	return cmd
}

// newHistoryDeleteCmd creates the "history delete" subcommand.
func newHistoryDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <diagram-id>",
		Short: "Delete a diagram's entire version chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			if err := h.Store.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
