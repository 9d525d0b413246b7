package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archivis/archivis/pkg/enrich"
	"github.com/archivis/archivis/pkg/ir"
)

// newEnrichCmd creates the enrich command.
func newEnrichCmd(flags *rootFlags) *cobra.Command {
	var (
		diagramID string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "enrich <plan-file>",
		Short: "Enrich an architecture plan into a stored IR version",
		Long: `Enrich reads a minimal zones/relationships plan (JSON or YAML),
materializes every component with roles and styling, infers the connectivity
needed to leave no component isolated, and appends the result to the
diagram's version chain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			plan, err := readPlan(args[0])
			if err != nil {
				return err
			}

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			prog := newProgress(logger)
			v, result, err := h.Ingest(ctx, plan, diagramID)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Enriched %d components into %d nodes and %d edges",
				componentCount(plan), len(result.Nodes), len(result.Edges)))

			for _, rec := range result.Inferences {
				logger.Debug("inference", "rule", rec.Rule, "reason", rec.Reason, "confidence", rec.Confidence)
			}

			if output != "" {
				data, err := ir.Marshal(v)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("write ir: %w", err)
				}
				printFile(output)
			}

			printSuccess("Stored %s version %d", v.DiagramID, v.IRVersion)
			printStats(len(result.Nodes), len(result.Edges), false)
			printNextStep("Render it", fmt.Sprintf("%s render %s", appName, v.DiagramID))
			return nil
		},
	}

	cmd.Flags().StringVar(&diagramID, "diagram", "", "extend an existing diagram chain instead of starting a new one")
	cmd.Flags().StringVarP(&output, "out", "o", "", "also write the stored IR version to a JSON file")
	return cmd
}

// readPlan loads a plan file, choosing the decoder by extension.
func readPlan(path string) (enrich.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return enrich.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return enrich.DecodePlanYAML(data)
	}
	return enrich.DecodePlan(data)
}

func componentCount(p enrich.Plan) int {
	n := 0
	for _, labels := range p.Zones.ByZone() {
		n += len(labels)
	}
	return n
}
