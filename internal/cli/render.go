package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archivis/archivis/pkg/enrich"
	"github.com/archivis/archivis/pkg/render"
)

// newRenderCmd creates the render command.
func newRenderCmd(flags *rootFlags) *cobra.Command {
	var (
		version   int
		layout    string
		showZones bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "render <diagram-id>",
		Short: "Render a stored IR version as SVG",
		Long: `Render produces an SVG for one version of a diagram (the head by
default). The SVG embeds an ir_metadata element so it can be traced back to
the IR it was rendered from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			h, err := runnerForCommand(ctx, flags)
			if err != nil {
				return err
			}
			defer h.Close()

			opts := render.Options{
				Layout:    layout,
				ZoneOrder: enrich.ZoneOrder,
				ShowZones: showZones,
			}

			prog := newProgress(logger)
			svg, cached, err := h.RenderVersion(ctx, args[0], version, opts)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Rendered %d bytes of SVG", len(svg)))

			if output == "" || output == "-" {
				fmt.Println(string(svg))
				return nil
			}
			if err := os.WriteFile(output, svg, 0644); err != nil {
				return fmt.Errorf("write svg: %w", err)
			}
			printSuccess("Rendered %s", args[0])
			printFile(output)
			printStats(0, 0, cached)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "IR version to render (0 = head)")
	cmd.Flags().StringVar(&layout, "layout", "left-right", "layout direction hint (left-right or top-down)")
	cmd.Flags().BoolVar(&showZones, "show-zones", false, "draw zone boundary clusters")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")
	return cmd
}
