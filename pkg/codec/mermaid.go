package codec

import (
	"fmt"
	"strings"

	"github.com/archivis/archivis/pkg/ir"
)

// mermaidShape wraps a label in the bracket syntax for a block type.
func mermaidShape(blockType, label string) string {
	switch blockType {
	case "actor":
		return fmt.Sprintf("([\"%s\"])", label)
	case "gateway":
		return fmt.Sprintf("{{\"%s\"}}", label)
	case "external":
		return fmt.Sprintf("[[\"%s\"]]", label)
	case "data_store":
		return fmt.Sprintf("[(\"%s\")]", label)
	default:
		return fmt.Sprintf("[\"%s\"]", label)
	}
}

// ToMermaid renders the diagram as a Mermaid flowchart.
func ToMermaid(d *ir.Diagram) string {
	blocks := visibleBlocks(d)
	edges := visibleEdges(d, blocks)
	ids := identifiers(blocks)

	var b strings.Builder
	b.WriteString("flowchart LR\n")

	for _, blk := range blocks {
		fmt.Fprintf(&b, "    %s%s\n", ids[blk.ID], mermaidShape(blk.Type, escapeQuotes(blk.Text)))
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Mode == ir.ModeInferred {
			arrow = "-.->"
		}
		if e.Label != "" {
			fmt.Fprintf(&b, "    %s %s|%s| %s\n", ids[e.From], arrow, e.Label, ids[e.To])
		} else {
			fmt.Fprintf(&b, "    %s %s %s\n", ids[e.From], arrow, ids[e.To])
		}
	}

	body := b.String()
	return body + "%% fingerprint: " + Fingerprint(body) + "\n"
}
