package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newCheckCmd creates the check command.
func newCheckCmd(flags *rootFlags) *cobra.Command {
	var (
		strict  bool
		asJSON  bool
		diagram string
	)

	cmd := &cobra.Command{
		Use:   "check <original.svg> <transformed.svg>",
		Short: "Verify a transformed SVG preserves diagram structure",
		Long: `Check compares the structural graphs of two SVG documents. Removed or
rewired elements, changed labels, and id collisions are violations; additions
are tolerated (as warnings under --strict). Under the fail-closed policy an
invalid result exits non-zero.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pre, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read original: %w", err)
			}
			post, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read transformed: %w", err)
			}

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			report, err := h.VerifyTransform(ctx, diagram, string(pre), string(post), strict)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if report.IsValid {
				printSuccess("Structure preserved (similarity %.2f)", report.Summary.Similarity)
			} else {
				printError("Structure broken (similarity %.2f)", report.Summary.Similarity)
			}
			for _, v := range report.Violations {
				printDetail("%s %s: %s", v.Severity, v.Type, v.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "flag additions as warnings instead of info")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().StringVar(&diagram, "diagram", "", "diagram id to tag the check with")
	return cmd
}
