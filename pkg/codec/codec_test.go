package codec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/archivis/archivis/pkg/ir"
)

func twoNodeDiagram(authLabel string) *ir.Diagram {
	return &ir.Diagram{
		ID:   "shop",
		Type: "architecture",
		Blocks: []ir.Block{
			{ID: "browser", Type: "actor", Text: "Browser", BBox: ir.BBox{X: 40, Y: 40, W: 160, H: 64}, Version: 1, Zone: "clients"},
			{ID: "auth", Type: "service", Text: authLabel, BBox: ir.BBox{X: 280, Y: 40, W: 160, H: 64}, Version: 1, Zone: "core_services"},
		},
		Edges: []ir.Edge{
			{EdgeID: "e1", From: "browser", To: "auth", RelationType: "https", Direction: ir.DirectionForward, Category: ir.CategorySync, Mode: ir.ModeExplicit, Label: "logs in", Confidence: 1},
		},
	}
}

func TestToPlantUMLTwoNodeOneEdge(t *testing.T) {
	out := ToPlantUML(twoNodeDiagram("Auth"))

	arrows := strings.Count(out, "-->")
	if arrows != 1 {
		t.Errorf("solid arrow count = %d, want exactly 1\n%s", arrows, out)
	}
	if !strings.Contains(out, "actor \"Browser\" as browser") {
		t.Errorf("missing actor declaration:\n%s", out)
	}
	if !strings.Contains(out, "component \"Auth\" as auth") {
		t.Errorf("missing component declaration:\n%s", out)
	}
	if !strings.Contains(out, "browser --> auth : logs in") {
		t.Errorf("missing edge line:\n%s", out)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "' fingerprint: ") {
		t.Errorf("last line = %q, want fingerprint comment", last)
	}
}

func TestToPlantUMLFingerprintTracksLabels(t *testing.T) {
	a := ToPlantUML(twoNodeDiagram("Auth"))
	b := ToPlantUML(twoNodeDiagram("Authn"))

	fp := func(out string) string {
		idx := strings.LastIndex(out, "' fingerprint: ")
		return strings.TrimSpace(out[idx+len("' fingerprint: "):])
	}
	if fp(a) == fp(b) {
		t.Error("fingerprint did not change when a node label changed")
	}
	if len(fp(a)) != fingerprintLen {
		t.Errorf("fingerprint length = %d, want %d", len(fp(a)), fingerprintLen)
	}
}

func TestToPlantUMLDeterministic(t *testing.T) {
	d := twoNodeDiagram("Auth")
	if ToPlantUML(d) != ToPlantUML(d) {
		t.Error("repeated encoding produced different output")
	}
}

func TestToPlantUMLInferredEdgeDotted(t *testing.T) {
	d := twoNodeDiagram("Auth")
	d.Edges[0].Mode = ir.ModeInferred
	out := ToPlantUML(d)
	if !strings.Contains(out, "browser ..> auth") {
		t.Errorf("inferred edge not dotted:\n%s", out)
	}
}

func TestToMermaid(t *testing.T) {
	out := ToMermaid(twoNodeDiagram("Auth"))

	if !strings.HasPrefix(out, "flowchart LR\n") {
		t.Errorf("missing flowchart header:\n%s", out)
	}
	if !strings.Contains(out, `browser(["Browser"])`) {
		t.Errorf("actor not rendered as stadium:\n%s", out)
	}
	if !strings.Contains(out, `auth["Auth"]`) {
		t.Errorf("service not rendered as rect:\n%s", out)
	}
	if !strings.Contains(out, "browser -->|logs in| auth") {
		t.Errorf("missing edge:\n%s", out)
	}
	if !strings.Contains(out, "%% fingerprint: ") {
		t.Errorf("missing fingerprint footer:\n%s", out)
	}
}

func TestToMermaidHiddenBlockOmitted(t *testing.T) {
	d := twoNodeDiagram("Auth")
	d.Blocks[1].Hidden = true
	out := ToMermaid(d)

	if strings.Contains(out, "Auth") {
		t.Errorf("hidden block rendered:\n%s", out)
	}
	if strings.Contains(out, "-->") {
		t.Errorf("edge to hidden block rendered:\n%s", out)
	}
}

func TestToStructurizrJSON(t *testing.T) {
	out, err := ToStructurizrJSON(twoNodeDiagram("Auth"))
	if err != nil {
		t.Fatalf("ToStructurizrJSON() error = %v", err)
	}

	var ws structurizrWorkspace
	if err := json.Unmarshal([]byte(out), &ws); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if ws.Name != "shop" {
		t.Errorf("workspace name = %q", ws.Name)
	}
	if len(ws.Model.Elements) != 2 || len(ws.Model.Relationships) != 1 {
		t.Fatalf("model = %d elements / %d relationships, want 2/1",
			len(ws.Model.Elements), len(ws.Model.Relationships))
	}
	if ws.Model.Elements[1].Type != "Person" && ws.Model.Elements[0].Type != "Person" {
		t.Errorf("no Person element for actor: %+v", ws.Model.Elements)
	}
	rel := ws.Model.Relationships[0]
	if rel.SourceID != "browser" || rel.DestinationID != "auth" {
		t.Errorf("relationship endpoints = %s -> %s", rel.SourceID, rel.DestinationID)
	}
	if ws.Fingerprint == "" {
		t.Error("missing fingerprint field")
	}
}

func TestToDOT(t *testing.T) {
	out := ToDOT(twoNodeDiagram("Auth"))

	if !strings.Contains(out, `browser [id="browser", label="Browser", shape=oval]`) {
		t.Errorf("missing browser node:\n%s", out)
	}
	if !strings.Contains(out, `browser -> auth [id="e1", label="logs in"]`) {
		t.Errorf("missing edge:\n%s", out)
	}
	if !strings.Contains(out, "// fingerprint: ") {
		t.Errorf("missing fingerprint comment:\n%s", out)
	}
}

func TestIdentifierCollisionGetsSuffix(t *testing.T) {
	d := &ir.Diagram{
		ID:   "coll",
		Type: "architecture",
		Blocks: []ir.Block{
			{ID: "my service", Type: "service", Text: "My Service", BBox: ir.BBox{W: 10, H: 10}, Version: 1},
			{ID: "my-service", Type: "service", Text: "My Service 2", BBox: ir.BBox{W: 10, H: 10}, Version: 1},
		},
	}
	out := ToMermaid(d)

	if !strings.Contains(out, "my_service[") || !strings.Contains(out, "my_service_2[") {
		t.Errorf("colliding ids not suffixed:\n%s", out)
	}
}

func TestSortOrderStable(t *testing.T) {
	d := twoNodeDiagram("Auth")
	reversed := &ir.Diagram{
		ID:     d.ID,
		Type:   d.Type,
		Blocks: []ir.Block{d.Blocks[1], d.Blocks[0]},
		Edges:  d.Edges,
	}
	if ToPlantUML(d) != ToPlantUML(reversed) {
		t.Error("output depends on input block order")
	}
}
