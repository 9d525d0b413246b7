package render

import (
	"context"
	"strings"
	"testing"

	"github.com/archivis/archivis/pkg/ir"
	"github.com/archivis/archivis/pkg/svggraph"
)

func testDiagram() *ir.Diagram {
	return &ir.Diagram{
		ID:   "shop",
		Type: "architecture",
		Blocks: []ir.Block{
			{ID: "browser", Type: "actor", Text: "Browser", BBox: ir.BBox{X: 40, Y: 40, W: 160, H: 64}, Version: 1, Zone: "clients"},
			{ID: "auth", Type: "service", Text: "Auth", BBox: ir.BBox{X: 280, Y: 40, W: 160, H: 64}, Version: 1, Zone: "core_services"},
			{ID: "db", Type: "data_store", Text: "PostgreSQL", BBox: ir.BBox{X: 520, Y: 40, W: 160, H: 64}, Version: 1, Zone: "data_stores"},
		},
		Edges: []ir.Edge{
			{EdgeID: "e1", From: "browser", To: "auth", RelationType: "https", Direction: ir.DirectionForward, Category: ir.CategorySync, Mode: ir.ModeExplicit, Label: "logs in", Confidence: 1},
			{EdgeID: "e2", From: "auth", To: "db", RelationType: "reads users", Direction: ir.DirectionForward, Category: ir.CategoryData, Mode: ir.ModeInferred, Label: "reads users", Confidence: 0.5},
		},
	}
}

func TestLayoutRenderRoundTrip(t *testing.T) {
	d := testDiagram()
	svg, err := NewLayout().RenderSVG(context.Background(), d, Options{Layout: "left-right"})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}

	g, err := svggraph.Analyze(string(svg), "roundtrip")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// Every IR block must come back as a node with the same id.
	nodeIDs := g.NodeIDs()
	for _, b := range d.Blocks {
		if !nodeIDs[b.ID] {
			t.Errorf("block %q missing from analyzed output (got %v)", b.ID, nodeIDs)
		}
	}
	if len(nodeIDs) != len(d.Blocks) {
		t.Errorf("analyzed nodes = %d, want %d", len(nodeIDs), len(d.Blocks))
	}
	if len(g.Edges) != len(d.Edges) {
		t.Errorf("analyzed edges = %d, want %d", len(g.Edges), len(d.Edges))
	}

	// Edge ids embed endpoints, so the analyzer resolves them exactly.
	for _, e := range g.Edges {
		if e.SourceID == "" || e.TargetID == "" {
			t.Errorf("edge %q endpoints unresolved", e.ID)
		}
		if e.EndpointConfidence != 1.0 {
			t.Errorf("edge %q endpoint confidence = %v, want 1.0", e.ID, e.EndpointConfidence)
		}
	}
}

func TestLayoutRenderHiddenBlockOmitted(t *testing.T) {
	d := testDiagram()
	d.Blocks[2].Hidden = true

	svg, err := NewLayout().RenderSVG(context.Background(), d, Options{})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	out := string(svg)
	if strings.Contains(out, "PostgreSQL") {
		t.Error("hidden block rendered")
	}
	if strings.Contains(out, "link_auth_db") {
		t.Error("edge to hidden block rendered")
	}
}

func TestLayoutRenderDeterministic(t *testing.T) {
	d := testDiagram()
	r := NewLayout()

	a, err := r.RenderSVG(context.Background(), d, Options{Layout: "left-right"})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	b, err := r.RenderSVG(context.Background(), d, Options{Layout: "left-right"})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if string(a) != string(b) {
		t.Error("repeated render produced different output")
	}
}

func TestLayoutRenderEmptyDiagram(t *testing.T) {
	_, err := NewLayout().RenderSVG(context.Background(), &ir.Diagram{ID: "empty", Type: "architecture"}, Options{})
	if err == nil {
		t.Fatal("RenderSVG() error = nil, want error for empty diagram")
	}
}

func TestLayoutRenderZoneBoundaries(t *testing.T) {
	d := testDiagram()
	svg, err := NewLayout().RenderSVG(context.Background(), d, Options{
		ShowZones: true,
		ZoneOrder: []string{"clients", "core_services", "data_stores"},
	})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}

	g, err := svggraph.Analyze(string(svg), "zones")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(g.Groups) != 3 {
		t.Errorf("analyzed groups = %d, want 3 zone boundaries", len(g.Groups))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	d := testDiagram()
	svg, err := NewLayout().RenderSVG(context.Background(), d, Options{
		Layout:    "left-right",
		ZoneOrder: []string{"clients", "core_services", "data_stores"},
	})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}

	m, err := ExtractMetadata(svg)
	if err != nil {
		t.Fatalf("ExtractMetadata() error = %v", err)
	}
	if m.DiagramType != "architecture" || m.Layout != "left-right" {
		t.Errorf("metadata = %+v", m)
	}
	if len(m.Nodes) != 3 || len(m.Edges) != 2 {
		t.Errorf("metadata ids = %d nodes / %d edges, want 3/2", len(m.Nodes), len(m.Edges))
	}
}

func TestEmbedMetadataReplacesExisting(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)

	first, err := EmbedMetadata(svg, Metadata{DiagramType: "a"})
	if err != nil {
		t.Fatalf("EmbedMetadata() error = %v", err)
	}
	second, err := EmbedMetadata(first, Metadata{DiagramType: "b"})
	if err != nil {
		t.Fatalf("EmbedMetadata() error = %v", err)
	}

	if strings.Count(string(second), "ir_metadata") != 1 {
		t.Errorf("metadata element duplicated:\n%s", second)
	}
	m, err := ExtractMetadata(second)
	if err != nil {
		t.Fatalf("ExtractMetadata() error = %v", err)
	}
	if m.DiagramType != "b" {
		t.Errorf("diagram type = %q, want b", m.DiagramType)
	}
}

func TestEmbedMetadataNoSVGTag(t *testing.T) {
	_, err := EmbedMetadata([]byte("not svg at all"), Metadata{})
	if err == nil {
		t.Fatal("EmbedMetadata() error = nil, want error")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg">`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if strings.Contains(out, "pt") {
		t.Errorf("point units survived: %s", out)
	}
}
