package svggraph

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// shape tags discovered in the standalone pass.
var shapeTags = map[string]bool{
	"rect": true, "circle": true, "ellipse": true,
	"polygon": true, "line": true, "path": true,
}

// classKinds maps PlantUML-style class fragments to element kinds.
// Matching is case-insensitive substring matching over the class attribute.
var classKinds = []struct {
	fragment string
	kind     string
}{
	{"entity", RoleNode},
	{"cluster", RoleBoundary},
	{"link", "edge"},
}

// dataKinds maps data-kind attribute values to element kinds.
var dataKinds = map[string]string{
	"node":     RoleNode,
	"entity":   RoleNode,
	"boundary": RoleBoundary,
	"zone":     RoleBoundary,
	"cluster":  RoleBoundary,
	"edge":     "edge",
	"link":     "edge",
	"label":    RoleLabel,
}

// Option configures Analyze.
type Option func(*analyzer)

// WithGeometricFallback enables nearest-node endpoint matching for edges
// whose ids carry no recognizable node ids. Geometric matches are recorded
// with confidence 0.6 and never override an id-substring match.
func WithGeometricFallback() Option {
	return func(a *analyzer) { a.geometricFallback = true }
}

type analyzer struct {
	arena             *arena
	graph             *StructuralGraph
	claimed           map[int]bool // arena indices claimed by a classified group
	geometricFallback bool
}

// Analyze parses raw SVG markup into a StructuralGraph.
//
// It fails with a wrapped ErrMalformedSVG on ill-formed XML and succeeds on
// any well-formed SVG, returning empty node/edge/group lists when nothing is
// recognizable. Output ordering follows document order; consumers that diff
// graphs compare as sets.
func Analyze(svgText, svgID string) (*StructuralGraph, error) {
	return analyze(svgText, svgID)
}

// AnalyzeWith is Analyze with options.
func AnalyzeWith(svgText, svgID string, opts ...Option) (*StructuralGraph, error) {
	return analyze(svgText, svgID, opts...)
}

func analyze(svgText, svgID string, opts ...Option) (*StructuralGraph, error) {
	ar, err := parseArena(svgText)
	if err != nil {
		return nil, err
	}

	a := &analyzer{
		arena: ar,
		graph: &StructuralGraph{
			SVGID:        svgID,
			DiagramType:  "unknown",
			Nodes:        []Node{},
			Edges:        []Edge{},
			Groups:       []Group{},
			elementIndex: make(map[string]int),
		},
		claimed: map[int]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}

	a.readCanvas()
	a.indexIDs()
	a.classifyGroups()
	a.discoverStandaloneShapes()
	a.resolveEdgeEndpoints()
	a.assignGroupMembership()

	return a.graph, nil
}

func (a *analyzer) readCanvas() {
	root := 0
	if a.arena.elems[root].tag != "svg" {
		// Some toolchains wrap the svg element; find the first one.
		a.arena.walk(func(idx int) {
			if a.arena.elems[idx].tag == "svg" && a.arena.elems[root].tag != "svg" {
				root = idx
			}
		})
	}
	a.graph.Width = parseLength(a.arena.attr(root, "width"))
	a.graph.Height = parseLength(a.arena.attr(root, "height"))
	a.graph.ViewBox = a.arena.attr(root, "viewbox")

	// PlantUML stamps a data-diagram-type or a class on the root; Mermaid
	// uses aria-roledescription.
	switch {
	case a.arena.attr(root, "data-diagram-type") != "":
		a.graph.DiagramType = strings.ToLower(a.arena.attr(root, "data-diagram-type"))
	case a.arena.attr(root, "aria-roledescription") != "":
		a.graph.DiagramType = strings.ToLower(a.arena.attr(root, "aria-roledescription"))
	}
}

func (a *analyzer) indexIDs() {
	a.arena.walk(func(idx int) {
		if id := a.arena.attr(idx, "id"); id != "" {
			if _, dup := a.graph.elementIndex[id]; !dup {
				a.graph.elementIndex[id] = idx
			}
		}
	})
}

// classifyGroups runs the first pass over <g> elements, assigning each a
// kind from its class or data-kind attribute.
func (a *analyzer) classifyGroups() {
	a.arena.walk(func(idx int) {
		el := a.arena.elems[idx]
		if el.tag != "g" {
			return
		}

		kind := classifyKind(a.arena.attr(idx, "class"), a.arena.attr(idx, "data-kind"))
		if kind == "" {
			return
		}

		a.claimed[idx] = true
		for _, d := range a.arena.descendants(idx) {
			a.claimed[d] = true
		}

		switch kind {
		case RoleNode, RoleLabel:
			a.addNodeGroup(idx, kind)
		case RoleBoundary:
			a.addBoundaryGroup(idx)
		case "edge":
			a.addEdgeGroup(idx)
		}
	})
}

func classifyKind(class, dataKind string) string {
	if dataKind != "" {
		return dataKinds[strings.ToLower(dataKind)]
	}
	lower := strings.ToLower(class)
	for _, ck := range classKinds {
		if strings.Contains(lower, ck.fragment) {
			return ck.kind
		}
	}
	return ""
}

func (a *analyzer) addNodeGroup(idx int, role string) {
	id := a.arena.attr(idx, "id")
	if id == "" {
		id = fmt.Sprintf("%s_g%d", a.graph.SVGID, idx)
	}

	bounds := a.groupBounds(idx)
	n := Node{
		ID:          id,
		ElementType: "g",
		Selector:    "#" + id,
		Label:       a.arena.collectText(idx),
		Bounds:      bounds,
		Center:      bounds.Center(),
		Role:        role,
		Zone:        a.arena.attr(idx, "data-zone"),
	}
	n.AnimatableSelector, n.TextSelector = a.resolveSelectors(idx, id)

	if p := a.enclosingClassifiedGroup(idx); p != "" {
		n.ParentID = p
	}
	a.graph.Nodes = append(a.graph.Nodes, n)
}

func (a *analyzer) addBoundaryGroup(idx int) {
	id := a.arena.attr(idx, "id")
	if id == "" {
		id = fmt.Sprintf("%s_cluster%d", a.graph.SVGID, idx)
	}
	a.graph.Groups = append(a.graph.Groups, Group{
		ID:     id,
		Bounds: a.groupBounds(idx),
	})
}

func (a *analyzer) addEdgeGroup(idx int) {
	id := a.arena.attr(idx, "id")
	if id == "" {
		id = fmt.Sprintf("%s_link%d", a.graph.SVGID, idx)
	}
	e := Edge{
		ID:       id,
		EdgeType: EdgeTypeLink,
		Label:    a.arena.collectText(idx),
		Bounds:   a.groupBounds(idx),
	}
	e.AnimatableSelector, _ = a.resolveSelectors(idx, id)
	a.graph.Edges = append(a.graph.Edges, e)
}

// resolveSelectors finds CSS selectors usable for styling/animation.
//
// Style and animation CSS can only target elements with stable selectors, and
// PlantUML/Mermaid output frequently omits ids on shape primitives. The shape
// element's own id is preferred; otherwise a descendant selector rooted at
// the group id is used (e.g. "#node_auth rect").
func (a *analyzer) resolveSelectors(idx int, groupID string) (animatable, text string) {
	for _, d := range a.arena.descendants(idx) {
		el := a.arena.elems[d]
		if animatable == "" && shapeTags[el.tag] {
			if id := el.attrs["id"]; id != "" {
				animatable = "#" + id
			} else {
				animatable = fmt.Sprintf("#%s %s", groupID, el.tag)
			}
		}
		if text == "" && el.tag == "text" {
			if id := el.attrs["id"]; id != "" {
				text = "#" + id
			} else {
				text = fmt.Sprintf("#%s text", groupID)
			}
		}
		if animatable != "" && text != "" {
			break
		}
	}
	return animatable, text
}

// enclosingClassifiedGroup walks up from idx looking for a classified <g>
// ancestor with an id.
func (a *analyzer) enclosingClassifiedGroup(idx int) string {
	for p := a.arena.elems[idx].parent; p >= 0; p = a.arena.elems[p].parent {
		el := a.arena.elems[p]
		if el.tag != "g" {
			continue
		}
		if classifyKind(el.attrs["class"], el.attrs["data-kind"]) != "" {
			return el.attrs["id"]
		}
	}
	return ""
}

// discoverStandaloneShapes runs the second pass, turning unclaimed shape
// primitives into nodes (closed shapes) and edges (lines, paths).
func (a *analyzer) discoverStandaloneShapes() {
	a.arena.walk(func(idx int) {
		el := a.arena.elems[idx]
		if a.claimed[idx] || !shapeTags[el.tag] {
			return
		}

		bounds, ok := shapeBounds(el.tag, el.attrs)
		if !ok {
			return
		}

		id := el.attrs["id"]
		if id == "" {
			id = fmt.Sprintf("%s_%s%d", a.graph.SVGID, el.tag, idx)
		}
		selector := "#" + id
		if el.attrs["id"] == "" {
			selector = el.tag // no stable selector available
		}

		switch el.tag {
		case "line", "path":
			a.graph.Edges = append(a.graph.Edges, Edge{
				ID:                 id,
				EdgeType:           edgeTypeFor(el.tag),
				AnimatableSelector: selector,
				Bounds:             bounds,
			})
		default:
			a.graph.Nodes = append(a.graph.Nodes, Node{
				ID:                 id,
				ElementType:        el.tag,
				Selector:           selector,
				Bounds:             bounds,
				Center:             bounds.Center(),
				Role:               RoleNode,
				AnimatableSelector: selector,
			})
		}
	})
}

func edgeTypeFor(tag string) string {
	if tag == "line" {
		return EdgeTypeLine
	}
	return EdgeTypePath
}

// resolveEdgeEndpoints fills SourceID/TargetID per edge.
//
// Id-substring matching comes first: PlantUML emits ids like "link_A_B" that
// embed both node ids, which is cheap and exact. When that fails and the
// geometric fallback is enabled, the nearest node centers to the edge bounds
// extremes are used at reduced confidence. Endpoints that resolve neither way
// stay empty; the edge itself is always kept.
func (a *analyzer) resolveEdgeEndpoints() {
	for i := range a.graph.Edges {
		e := &a.graph.Edges[i]

		if src, dst, ok := a.matchEndpointsByID(e.ID); ok {
			e.SourceID, e.TargetID = src, dst
			e.EndpointConfidence = 1.0
			continue
		}

		if a.geometricFallback {
			if src, dst, ok := a.matchEndpointsByGeometry(e.Bounds); ok {
				e.SourceID, e.TargetID = src, dst
				e.EndpointConfidence = 0.6
			}
		}
	}
}

// matchEndpointsByID scans the edge id for embedded node-id substrings and
// returns the two earliest non-overlapping matches in order of appearance.
func (a *analyzer) matchEndpointsByID(edgeID string) (src, dst string, ok bool) {
	type match struct {
		pos int
		id  string
	}
	var matches []match
	for _, n := range a.graph.Nodes {
		if n.ID == "" || n.ID == edgeID {
			continue
		}
		if pos := strings.Index(edgeID, n.ID); pos >= 0 {
			matches = append(matches, match{pos, n.ID})
		}
	}
	if len(matches) < 2 {
		return "", "", false
	}
	// Earliest position wins; on ties prefer the longer (more specific) id.
	best := func(exclude string) (match, bool) {
		found := match{pos: math.MaxInt}
		ok := false
		for _, m := range matches {
			if m.id == exclude {
				continue
			}
			if m.pos < found.pos || (m.pos == found.pos && len(m.id) > len(found.id)) {
				found, ok = m, true
			}
		}
		return found, ok
	}
	first, ok1 := best("")
	second, ok2 := best(first.id)
	if !ok1 || !ok2 {
		return "", "", false
	}
	return first.id, second.id, true
}

// matchEndpointsByGeometry picks the nodes whose centers are nearest to the
// two extreme corners of the edge bounds. Heuristic, legacy non-PlantUML
// path only.
func (a *analyzer) matchEndpointsByGeometry(b Bounds) (src, dst string, ok bool) {
	if len(a.graph.Nodes) < 2 {
		return "", "", false
	}
	start := Point{X: b.X, Y: b.Y}
	end := Point{X: b.X + b.W, Y: b.Y + b.H}

	nearest := func(p Point, exclude string) string {
		bestID, bestDist := "", math.MaxFloat64
		for _, n := range a.graph.Nodes {
			if n.Role != RoleNode || n.ID == exclude {
				continue
			}
			d := math.Hypot(n.Center.X-p.X, n.Center.Y-p.Y)
			if d < bestDist {
				bestID, bestDist = n.ID, d
			}
		}
		return bestID
	}

	src = nearest(start, "")
	dst = nearest(end, src)
	if src == "" || dst == "" {
		return "", "", false
	}
	return src, dst, true
}

// assignGroupMembership computes node membership per group by bounding-box
// containment. O(nodes x groups).
func (a *analyzer) assignGroupMembership() {
	for gi := range a.graph.Groups {
		grp := &a.graph.Groups[gi]
		for _, n := range a.graph.Nodes {
			if grp.Bounds.Contains(n.Bounds) {
				grp.MemberIDs = append(grp.MemberIDs, n.ID)
			}
		}
	}
}

// groupBounds unions the bounds of all shape descendants of a group.
func (a *analyzer) groupBounds(idx int) Bounds {
	first := true
	var minX, minY, maxX, maxY float64
	for _, d := range a.arena.descendants(idx) {
		el := a.arena.elems[d]
		if !shapeTags[el.tag] {
			continue
		}
		b, ok := shapeBounds(el.tag, el.attrs)
		if !ok {
			continue
		}
		if first {
			minX, minY, maxX, maxY = b.X, b.Y, b.X+b.W, b.Y+b.H
			first = false
			continue
		}
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}
	if first {
		return Bounds{}
	}
	return Bounds{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// shapeBounds derives geometry per shape type.
func shapeBounds(tag string, attrs map[string]string) (Bounds, bool) {
	f := func(name string) float64 { return parseLength(attrs[name]) }

	switch tag {
	case "rect":
		return Bounds{X: f("x"), Y: f("y"), W: f("width"), H: f("height")}, true
	case "circle":
		r := f("r")
		return Bounds{X: f("cx") - r, Y: f("cy") - r, W: 2 * r, H: 2 * r}, true
	case "ellipse":
		rx, ry := f("rx"), f("ry")
		return Bounds{X: f("cx") - rx, Y: f("cy") - ry, W: 2 * rx, H: 2 * ry}, true
	case "line":
		x1, y1, x2, y2 := f("x1"), f("y1"), f("x2"), f("y2")
		return Bounds{
			X: math.Min(x1, x2), Y: math.Min(y1, y2),
			W: math.Abs(x2 - x1), H: math.Abs(y2 - y1),
		}, true
	case "polygon":
		return pointsBounds(attrs["points"])
	case "path":
		return pathBounds(attrs["d"])
	}
	return Bounds{}, false
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// pointsBounds computes bounds from a polygon points list.
func pointsBounds(points string) (Bounds, bool) {
	nums := numberRe.FindAllString(points, -1)
	if len(nums) < 4 {
		return Bounds{}, false
	}
	return coordsBounds(nums)
}

// pathBounds approximates bounds from every numeric coordinate in a path's
// d attribute. Good enough for containment and endpoint heuristics; not a
// curve-accurate bounding box.
func pathBounds(d string) (Bounds, bool) {
	nums := numberRe.FindAllString(d, -1)
	if len(nums) < 4 {
		return Bounds{}, false
	}
	return coordsBounds(nums)
}

func coordsBounds(nums []string) (Bounds, bool) {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for i := 0; i+1 < len(nums); i += 2 {
		x, err1 := strconv.ParseFloat(nums[i], 64)
		y, err2 := strconv.ParseFloat(nums[i+1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if minX > maxX {
		return Bounds{}, false
	}
	return Bounds{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// parseLength parses an SVG length attribute, tolerating unit suffixes.
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if m := numberRe.FindString(s); m != "" {
		v, _ := strconv.ParseFloat(m, 64)
		return v
	}
	return 0
}
