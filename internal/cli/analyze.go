package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archivis/archivis/pkg/svggraph"
)

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd() *cobra.Command {
	var geometric bool

	cmd := &cobra.Command{
		Use:   "analyze <file.svg>",
		Short: "Extract the structural graph from an SVG document",
		Long: `Analyze parses an SVG and prints the typed structural graph (nodes,
edges, groups) as JSON. Edge endpoints are resolved from element ids; with
--geometric, unresolved endpoints fall back to proximity matching at reduced
confidence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read svg: %w", err)
			}

			svgID := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))

			var g *svggraph.StructuralGraph
			if geometric {
				g, err = svggraph.AnalyzeWith(string(data), svgID, svggraph.WithGeometricFallback())
			} else {
				g, err = svggraph.Analyze(string(data), svgID)
			}
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&geometric, "geometric", false, "resolve unmatched edge endpoints by geometry")
	return cmd
}
