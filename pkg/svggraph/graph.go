// Package svggraph extracts a structural node/edge/group graph from SVG text.
//
// The analyzer is a pure function over the SVG markup: it owns no state,
// never mutates its input, and produces a fresh StructuralGraph per call.
// Diagrams rendered by PlantUML, Mermaid or Graphviz follow recognizable
// conventions (`entity`/`cluster`/`link` classes, id-embedded endpoints)
// which the analyzer exploits; anything else falls back to shape-level
// geometry discovery.
package svggraph

import "errors"

var (
	// ErrMalformedSVG is returned by Analyze when the input is not
	// well-formed XML. Wrapped into a PARSE_ERROR by callers that
	// need the structured code.
	ErrMalformedSVG = errors.New("malformed svg")
)

// Element roles assigned during classification.
const (
	RoleNode     = "node"
	RoleBoundary = "boundary"
	RoleLabel    = "label"
)

// Edge types.
const (
	EdgeTypeLink = "link"
	EdgeTypePath = "path"
	EdgeTypeLine = "line"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether other lies entirely within b.
func (b Bounds) Contains(other Bounds) bool {
	return other.X >= b.X && other.Y >= b.Y &&
		other.X+other.W <= b.X+b.W && other.Y+other.H <= b.Y+b.H
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Node is a structural diagram element (component box, actor, label).
// Identity is the ID; it is stable across re-parses only when the SVG
// preserves element ids.
type Node struct {
	ID                 string `json:"id"`
	ElementType        string `json:"element_type"`
	Selector           string `json:"selector"`
	Label              string `json:"label"`
	Center             Point  `json:"center"`
	Bounds             Bounds `json:"bounds"`
	Role               string `json:"role"`
	Zone               string `json:"zone,omitempty"`
	AnimatableSelector string `json:"animatable_selector,omitempty"`
	TextSelector       string `json:"text_selector,omitempty"`
	ParentID           string `json:"parent_id,omitempty"`
}

// Edge is a structural connection between two nodes.
//
// SourceID and TargetID are best-effort matches; an empty string means the
// endpoint is unknown. Callers must treat unknown endpoints explicitly and
// never drop the edge because of them.
type Edge struct {
	ID                 string  `json:"id"`
	SourceID           string  `json:"source_id,omitempty"`
	TargetID           string  `json:"target_id,omitempty"`
	EdgeType           string  `json:"edge_type"`
	AnimatableSelector string  `json:"animatable_selector,omitempty"`
	Label              string  `json:"label,omitempty"`
	Bounds             Bounds  `json:"bounds"`
	EndpointConfidence float64 `json:"endpoint_confidence,omitempty"`
}

// Group is a boundary or zone container. Membership is computed by
// bounding-box containment, not document nesting.
type Group struct {
	ID        string   `json:"id"`
	MemberIDs []string `json:"member_ids"`
	Bounds    Bounds   `json:"bounds"`
}

// StructuralGraph is the typed graph extracted from one SVG document.
// It is never mutated in place; transforms produce a new graph.
type StructuralGraph struct {
	SVGID       string  `json:"svg_id"`
	DiagramType string  `json:"diagram_type"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ViewBox     string  `json:"viewbox,omitempty"`
	Nodes       []Node  `json:"nodes"`
	Edges       []Edge  `json:"edges"`
	Groups      []Group `json:"groups"`

	// elementIndex maps element id to its arena index for selector lookups.
	elementIndex map[string]int
}

// Node returns the node with the given ID and true, or a zero Node and false.
func (g *StructuralGraph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns the set of node IDs.
func (g *StructuralGraph) NodeIDs() map[string]bool {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	return ids
}

// EdgeIDs returns the set of edge IDs.
func (g *StructuralGraph) EdgeIDs() map[string]bool {
	ids := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		ids[e.ID] = true
	}
	return ids
}

// GroupIDs returns the set of group IDs.
func (g *StructuralGraph) GroupIDs() map[string]bool {
	ids := make(map[string]bool, len(g.Groups))
	for _, gr := range g.Groups {
		ids[gr.ID] = true
	}
	return ids
}
