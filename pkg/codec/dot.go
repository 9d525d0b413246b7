package codec

import (
	"fmt"
	"strings"

	"github.com/archivis/archivis/pkg/ir"
)

// dotShapes maps block types to Graphviz node shapes.
var dotShapes = map[string]string{
	"actor":      "oval",
	"gateway":    "hexagon",
	"service":    "box",
	"external":   "component",
	"data_store": "cylinder",
}

// ToDOT renders the diagram as Graphviz DOT source for the SVG renderer.
//
// Node ids carry through as both DOT identifiers and SVG element ids, which
// is what lets the structural analyzer round-trip rendered output back into
// node ids.
func ToDOT(d *ir.Diagram) string {
	blocks := visibleBlocks(d)
	edges := visibleEdges(d, blocks)
	ids := identifiers(blocks)

	var b strings.Builder
	b.WriteString("digraph diagram {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [fontname=\"Helvetica\"];\n")
	b.WriteString("    edge [fontname=\"Helvetica\"];\n")

	for _, blk := range blocks {
		shape, ok := dotShapes[blk.Type]
		if !ok {
			shape = "box"
		}
		attrs := []string{
			fmt.Sprintf("id=%q", ids[blk.ID]),
			fmt.Sprintf("label=%q", blk.Text),
			fmt.Sprintf("shape=%s", shape),
		}
		if fill := blk.Style["fill"]; fill != "" {
			attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%q", fill))
		}
		fmt.Fprintf(&b, "    %s [%s];\n", ids[blk.ID], strings.Join(attrs, ", "))
	}

	for _, e := range edges {
		attrs := []string{fmt.Sprintf("id=%q", e.EdgeID)}
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		if e.Mode == ir.ModeInferred {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&b, "    %s -> %s [%s];\n", ids[e.From], ids[e.To], strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")
	body := b.String()
	return body + "// fingerprint: " + Fingerprint(body) + "\n"
}
