// Package render turns diagram IR into SVG.
//
// Two renderers are provided: [Graphviz] delegates layout to the graphviz
// engine via DOT, [Layout] draws the IR's own bounding boxes directly and
// needs no external engine. Both embed the ir_metadata element so the SVG
// can be traced back to its IR.
package render

import (
	"context"

	"github.com/archivis/archivis/pkg/ir"
)

// Options carries per-render settings shared by all renderers.
type Options struct {
	// Layout is the direction hint recorded in the embedded metadata
	// ("left-right" or "top-down").
	Layout string
	// ZoneOrder is recorded in the metadata so downstream consumers can
	// reconstruct column ordering. Leave nil to omit.
	ZoneOrder []string
	// ShowZones draws zone boundary clusters (Layout renderer only).
	ShowZones bool
}

// Renderer produces an SVG document for a diagram.
type Renderer interface {
	RenderSVG(ctx context.Context, d *ir.Diagram, opts Options) ([]byte, error)
}
