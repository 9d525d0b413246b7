package render

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

const (
	canvasMargin  = 40.0
	defaultFill   = "#FFFFFF"
	defaultStroke = "#475569"
)

// Layout renders diagrams from the IR's own bounding boxes with no external
// layout engine. Output follows the entity/cluster/link class conventions,
// so the structural analyzer can read its own output back.
type Layout struct{}

// NewLayout creates a bbox-based renderer.
func NewLayout() *Layout {
	return &Layout{}
}

// RenderSVG draws every visible block at its stored bbox position.
func (r *Layout) RenderSVG(_ context.Context, d *ir.Diagram, opts Options) ([]byte, error) {
	if len(d.Blocks) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeRender, "diagram %q has no blocks to render", d.ID)
	}

	blocks := make([]ir.Block, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if !b.Hidden {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })

	visible := make(map[string]ir.Block, len(blocks))
	for _, b := range blocks {
		visible[b.ID] = b
	}

	width, height := canvasSize(blocks)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" data-diagram-type="%s">`+"\n",
		width, height, width, height, d.Type)

	if opts.ShowZones {
		renderZones(&buf, blocks, opts.ZoneOrder)
	}

	for _, e := range sortedEdges(d) {
		src, okS := visible[e.From]
		dst, okD := visible[e.To]
		if !okS || !okD {
			continue
		}
		renderEdge(&buf, e, src, dst)
	}

	for _, b := range blocks {
		renderBlock(&buf, b)
	}

	buf.WriteString("</svg>\n")
	return EmbedMetadata(buf.Bytes(), MetadataFor(d, opts))
}

func canvasSize(blocks []ir.Block) (w, h float64) {
	for _, b := range blocks {
		if right := b.BBox.X + b.BBox.W; right > w {
			w = right
		}
		if bottom := b.BBox.Y + b.BBox.H; bottom > h {
			h = bottom
		}
	}
	return w + canvasMargin, h + canvasMargin
}

func sortedEdges(d *ir.Diagram) []ir.Edge {
	edges := append([]ir.Edge(nil), d.Edges...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].EdgeID < edges[j].EdgeID })
	return edges
}

func renderBlock(buf *bytes.Buffer, b ir.Block) {
	fill := b.Style["fill"]
	if fill == "" {
		fill = defaultFill
	}
	stroke := b.Style["stroke"]
	if stroke == "" {
		stroke = defaultStroke
	}

	fmt.Fprintf(buf, `  <g id="%s" class="entity" data-kind="node" data-zone="%s">`+"\n", b.ID, b.Zone)
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s"/>`+"\n",
		b.BBox.X, b.BBox.Y, b.BBox.W, b.BBox.H, fill, stroke)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n",
		b.BBox.X+b.BBox.W/2, b.BBox.Y+b.BBox.H/2, xmlEscaper.Replace(b.Text))
	buf.WriteString("  </g>\n")
}

func renderEdge(buf *bytes.Buffer, e ir.Edge, src, dst ir.Block) {
	x1, y1 := src.BBox.X+src.BBox.W/2, src.BBox.Y+src.BBox.H/2
	x2, y2 := dst.BBox.X+dst.BBox.W/2, dst.BBox.Y+dst.BBox.H/2

	dash := ""
	if e.Mode == ir.ModeInferred {
		dash = ` stroke-dasharray="6 3"`
	}

	// The edge id embeds both endpoint ids so the analyzer can resolve
	// them without geometry.
	fmt.Fprintf(buf, `  <g id="link_%s_%s" class="link" data-kind="edge">`+"\n", e.From, e.To)
	fmt.Fprintf(buf, `    <path d="M%.1f,%.1f L%.1f,%.1f" stroke="%s" fill="none"%s/>`+"\n",
		x1, y1, x2, y2, defaultStroke, dash)
	if e.Label != "" {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n",
			(x1+x2)/2, (y1+y2)/2-4, xmlEscaper.Replace(e.Label))
	}
	buf.WriteString("  </g>\n")
}

// renderZones draws one cluster boundary per populated zone, spanning its
// members' bounding boxes.
func renderZones(buf *bytes.Buffer, blocks []ir.Block, zoneOrder []string) {
	type extent struct {
		minX, minY, maxX, maxY float64
		seen                   bool
	}
	extents := map[string]*extent{}
	for _, b := range blocks {
		if b.Zone == "" {
			continue
		}
		ex, ok := extents[b.Zone]
		if !ok {
			ex = &extent{minX: b.BBox.X, minY: b.BBox.Y}
			extents[b.Zone] = ex
		}
		if !ex.seen || b.BBox.X < ex.minX {
			ex.minX = b.BBox.X
		}
		if !ex.seen || b.BBox.Y < ex.minY {
			ex.minY = b.BBox.Y
		}
		if right := b.BBox.X + b.BBox.W; right > ex.maxX {
			ex.maxX = right
		}
		if bottom := b.BBox.Y + b.BBox.H; bottom > ex.maxY {
			ex.maxY = bottom
		}
		ex.seen = true
	}

	zones := zoneOrder
	if len(zones) == 0 {
		zones = make([]string, 0, len(extents))
		for z := range extents {
			zones = append(zones, z)
		}
		sort.Strings(zones)
	}

	for _, z := range zones {
		ex, ok := extents[z]
		if !ok {
			continue
		}
		fmt.Fprintf(buf, `  <g id="zone_%s" class="cluster" data-kind="zone">`+"\n", z)
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#CBD5E1" stroke-dasharray="2 4"/>`+"\n",
			ex.minX-10, ex.minY-10, ex.maxX-ex.minX+20, ex.maxY-ex.minY+20)
		buf.WriteString("  </g>\n")
	}
}
