package codec

import (
	"fmt"
	"strings"

	"github.com/archivis/archivis/pkg/ir"
)

// plantumlKinds maps a block type to the PlantUML declaration keyword.
var plantumlKinds = map[string]string{
	"actor":      "actor",
	"gateway":    "node",
	"service":    "component",
	"external":   "cloud",
	"data_store": "database",
}

// ToPlantUML renders the diagram as PlantUML component text.
//
// Explicit sync/data edges render as solid arrows, async/auth and all
// inferred edges as dotted ones. The final line is a fingerprint comment
// over the body.
func ToPlantUML(d *ir.Diagram) string {
	blocks := visibleBlocks(d)
	edges := visibleEdges(d, blocks)
	ids := identifiers(blocks)

	var b strings.Builder
	b.WriteString("@startuml\n")
	if d.ID != "" {
		fmt.Fprintf(&b, "title %s\n", d.ID)
	}

	for _, blk := range blocks {
		kind, ok := plantumlKinds[blk.Type]
		if !ok {
			kind = "component"
		}
		fmt.Fprintf(&b, "%s \"%s\" as %s", kind, escapeQuotes(blk.Text), ids[blk.ID])
		if fill := blk.Style["fill"]; fill != "" {
			fmt.Fprintf(&b, " %s", fill)
		}
		b.WriteString("\n")
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Mode == ir.ModeInferred || e.Category == ir.CategoryAsync || e.Category == ir.CategoryAuth {
			arrow = "..>"
		}
		fmt.Fprintf(&b, "%s %s %s", ids[e.From], arrow, ids[e.To])
		if e.Label != "" {
			fmt.Fprintf(&b, " : %s", e.Label)
		}
		b.WriteString("\n")
	}

	b.WriteString("@enduml\n")
	body := b.String()
	return body + "' fingerprint: " + Fingerprint(body) + "\n"
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
