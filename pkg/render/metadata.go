package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Metadata is the round-trip payload embedded in every generated SVG as
// `<metadata id="ir_metadata">`. It is the sole channel back from SVG to IR
// and must be preserved by any transform that re-serializes the SVG.
type Metadata struct {
	DiagramType string   `json:"diagram_type"`
	Layout      string   `json:"layout"`
	ZoneOrder   []string `json:"zone_order,omitempty"`
	Nodes       []string `json:"nodes"`
	Edges       []string `json:"edges"`
}

// MetadataFor builds the metadata payload for a diagram.
func MetadataFor(d *ir.Diagram, opts Options) Metadata {
	m := Metadata{
		DiagramType: d.Type,
		Layout:      opts.Layout,
		ZoneOrder:   opts.ZoneOrder,
		Nodes:       make([]string, 0, len(d.Blocks)),
		Edges:       make([]string, 0, len(d.Edges)),
	}
	for _, b := range d.Blocks {
		m.Nodes = append(m.Nodes, b.ID)
	}
	for _, e := range d.Edges {
		m.Edges = append(m.Edges, e.EdgeID)
	}
	return m
}

var (
	svgOpenRe  = regexp.MustCompile(`<svg[^>]*>`)
	metadataRe = regexp.MustCompile(`(?s)<metadata id="ir_metadata">(.*?)</metadata>`)
)

var (
	xmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	xmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// EmbedMetadata inserts the metadata element directly after the opening
// <svg> tag, replacing any previously embedded payload.
func EmbedMetadata(svg []byte, m Metadata) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal svg metadata")
	}

	out := metadataRe.ReplaceAll(svg, nil)
	loc := svgOpenRe.FindIndex(out)
	if loc == nil {
		return nil, apperrors.New(apperrors.ErrCodeRender, "no <svg> element to embed metadata into")
	}

	element := fmt.Sprintf("\n<metadata id=\"ir_metadata\">%s</metadata>", xmlEscaper.Replace(string(payload)))
	var b strings.Builder
	b.Write(out[:loc[1]])
	b.WriteString(element)
	b.Write(out[loc[1]:])
	return []byte(b.String()), nil
}

// ExtractMetadata reads the embedded payload back out of an SVG.
func ExtractMetadata(svg []byte) (Metadata, error) {
	match := metadataRe.FindSubmatch(svg)
	if match == nil {
		return Metadata{}, apperrors.New(apperrors.ErrCodeNotFound, "svg has no ir_metadata element")
	}

	var m Metadata
	raw := xmlUnescaper.Replace(string(match[1]))
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, apperrors.Wrap(apperrors.ErrCodeParse, err, "decode ir_metadata payload")
	}
	return m, nil
}
