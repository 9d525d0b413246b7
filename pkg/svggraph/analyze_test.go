package svggraph

import (
	"errors"
	"strings"
	"testing"
)

// plantumlSVG mimics the structure PlantUML emits: entity groups with shape
// primitives, a cluster boundary, and a link whose id embeds both node ids.
const plantumlSVG = `<?xml version="1.0" encoding="us-ascii"?>
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300" viewBox="0 0 400 300" data-diagram-type="component">
  <g id="core" class="cluster">
    <rect x="10" y="10" width="380" height="200"/>
    <text x="20" y="30">Core</text>
  </g>
  <g id="browser" class="entity">
    <rect id="browser_shape" x="40" y="40" width="100" height="50"/>
    <text x="50" y="70">Browser</text>
  </g>
  <g id="auth" class="entity">
    <rect x="240" y="40" width="100" height="50"/>
    <text x="250" y="70">Auth</text>
  </g>
  <g id="link_browser_auth" class="link">
    <path d="M140,65 L240,65"/>
  </g>
</svg>`

func TestAnalyzePlantUMLConventions(t *testing.T) {
	g, err := Analyze(plantumlSVG, "svg-1")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if g.SVGID != "svg-1" {
		t.Errorf("SVGID = %q", g.SVGID)
	}
	if g.DiagramType != "component" {
		t.Errorf("DiagramType = %q, want component", g.DiagramType)
	}
	if g.Width != 400 || g.Height != 300 {
		t.Errorf("canvas = %gx%g, want 400x300", g.Width, g.Height)
	}

	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2 (%+v)", len(g.Nodes), g.Nodes)
	}
	if len(g.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(g.Groups))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(g.Edges))
	}

	browser, ok := g.Node("browser")
	if !ok {
		t.Fatal("node browser not found")
	}
	if browser.Label != "Browser" {
		t.Errorf("browser label = %q", browser.Label)
	}
	if browser.Role != RoleNode {
		t.Errorf("browser role = %q", browser.Role)
	}
	// The shape has its own id, so the animatable selector targets it directly.
	if browser.AnimatableSelector != "#browser_shape" {
		t.Errorf("browser animatable = %q, want #browser_shape", browser.AnimatableSelector)
	}
	if browser.TextSelector != "#browser text" {
		t.Errorf("browser text selector = %q", browser.TextSelector)
	}

	auth, _ := g.Node("auth")
	// No shape id: falls back to a descendant selector.
	if auth.AnimatableSelector != "#auth rect" {
		t.Errorf("auth animatable = %q, want \"#auth rect\"", auth.AnimatableSelector)
	}

	e := g.Edges[0]
	if e.SourceID != "browser" || e.TargetID != "auth" {
		t.Errorf("edge endpoints = %q -> %q, want browser -> auth", e.SourceID, e.TargetID)
	}
	if e.EndpointConfidence != 1.0 {
		t.Errorf("id-substring match confidence = %g, want 1.0", e.EndpointConfidence)
	}

	grp := g.Groups[0]
	if len(grp.MemberIDs) != 2 {
		t.Errorf("cluster members = %v, want both nodes", grp.MemberIDs)
	}
}

func TestAnalyzeMalformedXML(t *testing.T) {
	_, err := Analyze(`<svg><g id="x"><rect /></svg>`, "bad")
	if err == nil {
		t.Fatal("Analyze(malformed) = nil error")
	}
	if !errors.Is(err, ErrMalformedSVG) {
		t.Errorf("error = %v, want ErrMalformedSVG", err)
	}
}

func TestAnalyzeEmptySVG(t *testing.T) {
	g, err := Analyze(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`, "empty")
	if err != nil {
		t.Fatalf("Analyze(empty) error = %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 || len(g.Groups) != 0 {
		t.Errorf("empty svg produced elements: %+v", g)
	}
}

func TestAnalyzeStandaloneShapes(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
	  <rect id="a" x="10" y="10" width="40" height="20"/>
	  <circle id="b" cx="150" cy="20" r="10"/>
	  <line id="wire" x1="50" y1="20" x2="140" y2="20"/>
	</svg>`

	g, err := Analyze(svg, "shapes")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(g.Edges))
	}

	b, _ := g.Node("b")
	if b.Center.X != 150 || b.Center.Y != 20 {
		t.Errorf("circle center = %+v, want (150,20)", b.Center)
	}
	if b.Bounds.W != 20 || b.Bounds.H != 20 {
		t.Errorf("circle bounds = %+v, want 20x20", b.Bounds)
	}

	// Without geometric fallback the line has unknown endpoints but is kept.
	e := g.Edges[0]
	if e.SourceID != "" || e.TargetID != "" {
		t.Errorf("endpoints = %q -> %q, want unknown", e.SourceID, e.TargetID)
	}
}

func TestAnalyzeGeometricFallback(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
	  <rect id="left" x="10" y="10" width="40" height="20"/>
	  <rect id="right" x="150" y="10" width="40" height="20"/>
	  <line id="wire" x1="50" y1="20" x2="150" y2="20"/>
	</svg>`

	g, err := AnalyzeWith(svg, "geo", WithGeometricFallback())
	if err != nil {
		t.Fatalf("AnalyzeWith() error = %v", err)
	}
	e := g.Edges[0]
	if e.SourceID != "left" || e.TargetID != "right" {
		t.Errorf("endpoints = %q -> %q, want left -> right", e.SourceID, e.TargetID)
	}
	if e.EndpointConfidence >= 0.9 {
		t.Errorf("geometric confidence = %g, want < 0.9", e.EndpointConfidence)
	}
}

func TestAnalyzeDataKindAttribute(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
	  <g id="zone1" data-kind="zone"><rect x="0" y="0" width="100" height="100"/></g>
	  <g id="n1" data-kind="node" data-zone="core"><rect x="10" y="10" width="20" height="10"/><text>N1</text></g>
	</svg>`

	g, err := Analyze(svg, "kinds")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(g.Groups) != 1 || g.Groups[0].ID != "zone1" {
		t.Errorf("groups = %+v", g.Groups)
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("nodes = %+v", g.Nodes)
	}
	if g.Nodes[0].Zone != "core" {
		t.Errorf("zone = %q, want core", g.Nodes[0].Zone)
	}
}

func TestAnalyzeDeterministicOrder(t *testing.T) {
	g1, err := Analyze(plantumlSVG, "svg-1")
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Analyze(plantumlSVG, "svg-1")
	if err != nil {
		t.Fatal(err)
	}

	ids1 := make([]string, len(g1.Nodes))
	ids2 := make([]string, len(g2.Nodes))
	for i := range g1.Nodes {
		ids1[i] = g1.Nodes[i].ID
		ids2[i] = g2.Nodes[i].ID
	}
	if strings.Join(ids1, ",") != strings.Join(ids2, ",") {
		t.Errorf("node order unstable: %v vs %v", ids1, ids2)
	}
}
