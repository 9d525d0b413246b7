package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/archivis/archivis/pkg/pipeline"
)

// newExportCmd creates the export command.
func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		version int
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export <diagram-id>",
		Short: "Export a stored IR version in an interchange format",
		Long: `Export emits one version of a diagram as PlantUML, Mermaid,
Structurizr JSON, or Graphviz DOT. Every output carries a content
fingerprint so downstream consumers can detect drift.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			out, cached, err := h.Export(ctx, args[0], version, format)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Print(string(out))
				return nil
			}
			if err := os.WriteFile(output, out, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			printSuccess("Exported %s as %s", args[0], format)
			printFile(output)
			printStats(0, 0, cached)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "IR version to export (0 = head)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatPlantUML,
		fmt.Sprintf("output format (%s)", formatList()))
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")
	return cmd
}

func formatList() string {
	formats := make([]string, 0, len(pipeline.ValidFormats))
	for f := range pipeline.ValidFormats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	out := ""
	for i, f := range formats {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}
