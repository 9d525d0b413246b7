package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archivis/archivis/pkg/patch"
)

// newFeedbackCmd creates the feedback command.
func newFeedbackCmd(flags *rootFlags) *cobra.Command {
	var (
		action      string
		blockID     string
		payload     string
		payloadFile string
	)

	cmd := &cobra.Command{
		Use:     "feedback <diagram-id>",
		Aliases: []string{"patch"},
		Short:   "Apply one edit action to a diagram's head version",
		Long: `Feedback applies a single edit action (edit_text, reposition, style,
annotate, hide, show, add_block, remove_block) to the head of a diagram's
version chain and appends the result as a new version. A rejected action
leaves the chain untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			raw, err := feedbackPayload(payload, payloadFile)
			if err != nil {
				return err
			}

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			v, plog, err := h.ApplyFeedback(ctx, patch.Feedback{
				DiagramID: args[0],
				BlockID:   blockID,
				Action:    action,
				Payload:   raw,
			})
			if err != nil {
				return err
			}

			for _, entry := range plog.Entries {
				logger.Debug("patch", "op", entry.Op, "block", entry.BlockID)
			}

			printSuccess("Applied %s, now at version %d", action, v.IRVersion)
			printDetail("%s", plog.Describe())
			return nil
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "feedback action verb (required)")
	cmd.Flags().StringVarP(&blockID, "block", "b", "", "target block id")
	cmd.Flags().StringVarP(&payload, "payload", "p", "", "action payload as inline JSON")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "read the action payload from a JSON file")
	cmd.MarkFlagRequired("action")
	return cmd
}

// feedbackPayload resolves the payload from the inline flag or a file.
// Inline wins when both are given.
func feedbackPayload(inline, file string) (json.RawMessage, error) {
	if inline != "" {
		return json.RawMessage(inline), nil
	}
	if file == "" {
		return nil, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return json.RawMessage(data), nil
}
