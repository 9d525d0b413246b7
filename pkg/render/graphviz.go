package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/archivis/archivis/pkg/codec"
	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Graphviz renders diagrams through the graphviz layout engine. The IR is
// first encoded as DOT, so node and edge ids survive into the SVG output.
type Graphviz struct{}

// NewGraphviz creates a graphviz-backed renderer.
func NewGraphviz() *Graphviz {
	return &Graphviz{}
}

// RenderSVG lays out and renders the diagram, then embeds the ir_metadata
// element. Layout positions are graphviz's; the IR bboxes are ignored.
func (r *Graphviz) RenderSVG(ctx context.Context, d *ir.Diagram, opts Options) ([]byte, error) {
	dot := codec.ToDOT(d)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRender, err, "render svg")
	}

	return EmbedMetadata(normalizeViewBox(buf.Bytes()), MetadataFor(d, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the <svg> tag so the viewBox starts at the
// origin and width/height match it. Graphviz emits point-based sizes with
// translated viewBoxes, which break naive scaling in embedding UIs.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
