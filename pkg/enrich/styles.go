package enrich

import (
	"strings"

	"github.com/archivis/archivis/pkg/ir"
)

// PlantUMLHint carries renderer-specific hints for PlantUML output.
type PlantUMLHint struct {
	Shape string `json:"shape"`
	Color string `json:"color"`
}

// MermaidHint carries renderer-specific hints for Mermaid output.
type MermaidHint struct {
	NodeType   string `json:"node_type"`
	Identifier string `json:"identifier"`
}

// RenderingHints groups per-target rendering hints on an enriched node.
type RenderingHints struct {
	PlantUML PlantUMLHint `json:"plantuml"`
	Mermaid  MermaidHint  `json:"mermaid"`
}

// rolePreset is the fixed per-role style lookup row.
type rolePreset struct {
	stereotype   string
	shape        string
	sizeHint     string
	plantumlKind string
	mermaidKind  string
	paletteSlot  int // index into the resolved palette
}

// rolePresets is the single source of truth for node styling by role.
var rolePresets = map[string]rolePreset{
	RoleActor:     {stereotype: "person", shape: "rounded", sizeHint: "small", plantumlKind: "actor", mermaidKind: "stadium", paletteSlot: 0},
	RoleGateway:   {stereotype: "gateway", shape: "hexagon", sizeHint: "medium", plantumlKind: "hexagon", mermaidKind: "hexagon", paletteSlot: 1},
	RoleService:   {stereotype: "service", shape: "rect", sizeHint: "medium", plantumlKind: "component", mermaidKind: "rect", paletteSlot: 2},
	RoleExternal:  {stereotype: "external", shape: "rect", sizeHint: "medium", plantumlKind: "cloud", mermaidKind: "subroutine", paletteSlot: 3},
	RoleDataStore: {stereotype: "store", shape: "cylinder", sizeHint: "medium", plantumlKind: "database", mermaidKind: "cylinder", paletteSlot: 4},
}

// edgePreset is the fixed per-category edge style lookup row.
type edgePreset struct {
	style     string
	color     string
	width     float64
	arrowhead string
	textStyle string
	curvature float64
}

// edgePresets maps edge category to its visual preset.
var edgePresets = map[string]edgePreset{
	ir.CategorySync:  {style: "solid", color: "#334155", width: 1.5, arrowhead: "normal", textStyle: "plain", curvature: 0},
	ir.CategoryAsync: {style: "dashed", color: "#7C3AED", width: 1.5, arrowhead: "open", textStyle: "italic", curvature: 0.2},
	ir.CategoryData:  {style: "solid", color: "#0EA5E9", width: 2, arrowhead: "normal", textStyle: "plain", curvature: 0},
	ir.CategoryAuth:  {style: "dotted", color: "#DC2626", width: 1, arrowhead: "open", textStyle: "plain", curvature: 0},
}

// inferredEdgeStyle overrides parts of the preset for synthesized edges so
// they are always visually distinct from author-provided ones.
const (
	inferredStyle   = "dashed"
	inferredOpacity = "0.55"
	// The completion guard is a correctness backstop, not a semantic
	// statement; it gets the most muted treatment of all.
	guardColor = "#94A3B8"
)

// categoryKeywords classify a relationship's free-form type string into an
// edge category. First match wins; unmatched types are sync.
var categoryKeywords = []struct {
	keywords []string
	category string
}{
	{[]string{"async", "queue", "publish", "subscribe", "event", "stream"}, ir.CategoryAsync},
	{[]string{"read", "write", "store", "persist", "query", "data"}, ir.CategoryData},
	{[]string{"auth", "login", "token", "verify"}, ir.CategoryAuth},
}

func categorize(relType string) string {
	lower := strings.ToLower(relType)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				return ck.category
			}
		}
	}
	return ir.CategorySync
}

// applyNodeStyle fills the style-derived fields of an enriched node.
func applyNodeStyle(n *Node, in intent, san *ir.Sanitizer) {
	preset, ok := rolePresets[n.Role]
	if !ok {
		preset = rolePresets[RoleService]
	}

	fill := in.palette[preset.paletteSlot%len(in.palette)]
	n.Stereotype = preset.stereotype
	n.Shape = preset.shape
	n.SizeHint = preset.sizeHint
	n.Style = map[string]string{
		"fill":   fill,
		"stroke": strokeFor(in.contrast),
		"shape":  preset.shape,
	}
	n.Hints = RenderingHints{
		PlantUML: PlantUMLHint{Shape: preset.plantumlKind, Color: fill},
		Mermaid:  MermaidHint{NodeType: preset.mermaidKind, Identifier: san.Sanitize(n.Label)},
	}
}

// applyEdgeStyle fills the style-derived fields of an enriched edge.
// Inferred edges are forced dashed and translucent; completion-guard edges
// additionally get the muted guard color so they read as scaffolding.
func applyEdgeStyle(e *Edge) {
	preset, ok := edgePresets[e.Category]
	if !ok {
		preset = edgePresets[ir.CategorySync]
	}

	e.Style = preset.style
	e.Color = preset.color
	e.Width = preset.width
	e.Arrowhead = preset.arrowhead
	e.TextStyle = preset.textStyle
	e.Curvature = preset.curvature

	if e.Mode == ir.ModeInferred {
		e.Style = inferredStyle
		e.Opacity = inferredOpacity
		if e.Rule == RuleCompletionGuard {
			e.Color = guardColor
		}
	}
}

func strokeFor(contrast string) string {
	switch contrast {
	case ContrastHigh:
		return "#0F172A"
	case ContrastLow:
		return "#CBD5E1"
	default:
		return "#475569"
	}
}

// bbox layout constants per density.
var densityMetrics = map[string]struct {
	colWidth, rowHeight, blockW, blockH float64
}{
	DensityCompact:     {colWidth: 200, rowHeight: 80, blockW: 140, blockH: 52},
	DensityComfortable: {colWidth: 240, rowHeight: 100, blockW: 160, blockH: 64},
	DensitySpacious:    {colWidth: 300, rowHeight: 130, blockW: 180, blockH: 72},
}

// assignBBox computes a deterministic zone-column layout position.
// Zones become columns in ZoneOrder; nodes stack top-down in label order.
func assignBBox(n *Node, zoneIdx, rowIdx int, density string) {
	m, ok := densityMetrics[density]
	if !ok {
		m = densityMetrics[DensityComfortable]
	}
	n.BBox = ir.BBox{
		X: 40 + float64(zoneIdx)*m.colWidth,
		Y: 40 + float64(rowIdx)*m.rowHeight,
		W: m.blockW,
		H: m.blockH,
	}
}
