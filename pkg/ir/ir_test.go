package ir

import (
	"encoding/json"
	"strings"
	"testing"

	apperrors "github.com/archivis/archivis/pkg/errors"
)

func intPtr(i int) *int { return &i }

func validDiagram() Diagram {
	return Diagram{
		ID:   "dgm-1",
		Type: "architecture",
		Blocks: []Block{
			{ID: "auth", Type: "service", Text: "Auth", BBox: BBox{X: 0, Y: 0, W: 120, H: 60}},
			{ID: "db", Type: "data_store", Text: "PostgreSQL", BBox: BBox{X: 0, Y: 100, W: 120, H: 60}},
		},
		Edges: []Edge{
			{EdgeID: "e1", From: "auth", To: "db", RelationType: "reads", Direction: DirectionForward,
				Category: CategoryData, Mode: ModeExplicit, Label: "reads", Confidence: 1.0},
		},
	}
}

func TestValidateAcceptsWellFormedVersion(t *testing.T) {
	v := Version{DiagramID: "dgm-1", IRVersion: 1, IR: Doc{Diagram: validDiagram()}}
	if err := Validate(&v); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Version)
		want   string // substring expected in the error
	}{
		{
			name:   "negative bbox",
			mutate: func(v *Version) { v.IR.Diagram.Blocks[0].BBox.W = -1 },
			want:   "bbox",
		},
		{
			name:   "duplicate block id",
			mutate: func(v *Version) { v.IR.Diagram.Blocks[1].ID = "auth" },
			want:   "duplicate block id",
		},
		{
			name:   "unknown edge endpoint",
			mutate: func(v *Version) { v.IR.Diagram.Edges[0].To = "ghost" },
			want:   "unknown block",
		},
		{
			name:   "invalid category",
			mutate: func(v *Version) { v.IR.Diagram.Edges[0].Category = "telepathy" },
			want:   "invalid category",
		},
		{
			name:   "invalid mode",
			mutate: func(v *Version) { v.IR.Diagram.Edges[0].Mode = "guessed" },
			want:   "invalid mode",
		},
		{
			name:   "confidence out of range",
			mutate: func(v *Version) { v.IR.Diagram.Edges[0].Confidence = 1.5 },
			want:   "confidence",
		},
		{
			name:   "root version not 1",
			mutate: func(v *Version) { v.IRVersion = 3 },
			want:   "root version",
		},
		{
			name: "version not parent+1",
			mutate: func(v *Version) {
				v.ParentVersion = intPtr(1)
				v.IRVersion = 5
			},
			want: "parent_version+1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Version{DiagramID: "dgm-1", IRVersion: 1, IR: Doc{Diagram: validDiagram()}}
			tt.mutate(&v)
			err := Validate(&v)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !apperrors.Is(err, apperrors.ErrCodeSchemaInvalid) {
				t.Errorf("error code = %v, want SCHEMA_INVALID", apperrors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestMakeVersionRootAndChild(t *testing.T) {
	root, err := MakeVersion("dgm-1", Doc{Diagram: validDiagram()}, nil)
	if err != nil {
		t.Fatalf("MakeVersion(root) error = %v", err)
	}
	if root.IRVersion != 1 || root.ParentVersion != nil {
		t.Fatalf("root = v%d parent %v, want v1 parent nil", root.IRVersion, root.ParentVersion)
	}

	child, err := MakeVersion("dgm-1", root.IR, &root)
	if err != nil {
		t.Fatalf("MakeVersion(child) error = %v", err)
	}
	if child.IRVersion != 2 {
		t.Errorf("child version = %d, want 2", child.IRVersion)
	}
	if child.ParentVersion == nil || *child.ParentVersion != 1 {
		t.Errorf("child parent = %v, want 1", child.ParentVersion)
	}
}

func TestMakeVersionRejectsCrossDiagramParent(t *testing.T) {
	root, err := MakeVersion("dgm-1", Doc{Diagram: validDiagram()}, nil)
	if err != nil {
		t.Fatalf("MakeVersion(root) error = %v", err)
	}
	if _, err := MakeVersion("dgm-2", root.IR, &root); err == nil {
		t.Fatal("MakeVersion with foreign parent should fail")
	}
}

func TestUpgradeLegacyPayload(t *testing.T) {
	d := validDiagram()
	raw, err := json.Marshal(map[string]any{"diagram": d})
	if err != nil {
		t.Fatal(err)
	}

	v, err := Upgrade(raw)
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	if v.IRVersion != 1 || v.ParentVersion != nil {
		t.Errorf("upgraded = v%d parent %v, want v1 parent nil", v.IRVersion, v.ParentVersion)
	}
	if v.DiagramID != "dgm-1" {
		t.Errorf("DiagramID = %q, want reuse of diagram id", v.DiagramID)
	}

	if _, err := Upgrade([]byte(`{"not_a_diagram": true}`)); err == nil {
		t.Error("Upgrade without diagram key should fail")
	}
}

func TestWireFormatRoundTrip(t *testing.T) {
	v := Version{DiagramID: "dgm-1", IRVersion: 2, ParentVersion: intPtr(1), IR: Doc{Diagram: validDiagram()}}

	data, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// The wire keys are load-bearing for stored diagrams.
	for _, key := range []string{`"diagram_id"`, `"ir_version"`, `"parent_version"`, `"edge_id"`, `"relation_type"`, `"bbox"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("wire format missing key %s", key)
		}
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.DiagramID != v.DiagramID || back.IRVersion != v.IRVersion {
		t.Errorf("round trip changed identity: %+v", back)
	}
	if len(back.IR.Diagram.Blocks) != 2 || len(back.IR.Diagram.Edges) != 1 {
		t.Errorf("round trip changed content: %+v", back.IR.Diagram)
	}
}

func TestCloneIsDeep(t *testing.T) {
	v := Version{DiagramID: "dgm-1", IRVersion: 1, IR: Doc{Diagram: validDiagram()}}
	v.IR.Diagram.Blocks[0].Style = map[string]string{"fill": "#FFFFFF"}

	c := v.Clone()
	c.IR.Diagram.Blocks[0].Style["fill"] = "#000000"
	c.IR.Diagram.Blocks[0].Text = "changed"
	c.IR.Diagram.Edges[0].To = "elsewhere"

	if v.IR.Diagram.Blocks[0].Style["fill"] != "#FFFFFF" {
		t.Error("clone shares style map with original")
	}
	if v.IR.Diagram.Blocks[0].Text != "Auth" {
		t.Error("clone shares block slice with original")
	}
	if v.IR.Diagram.Edges[0].To != "db" {
		t.Error("clone shares edge slice with original")
	}
}

func TestSanitizer(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"API Gateway", "API_Gateway"},
		{"user-service", "user_service"},
		{"3rd Party", "n_3rd_Party"},
		{"  ", "n"},
		{"PostgreSQL", "PostgreSQL"},
	}

	for _, tt := range tests {
		s := NewSanitizer()
		if got := s.Sanitize(tt.label); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestSanitizerCollisions(t *testing.T) {
	s := NewSanitizer()
	a := s.Sanitize("API Gateway")
	b := s.Sanitize("API/Gateway")
	c := s.Sanitize("API Gateway") // repeat of the first label

	if a == b {
		t.Errorf("distinct labels collided on %q", a)
	}
	if b != "API_Gateway_2" {
		t.Errorf("collision suffix = %q, want API_Gateway_2", b)
	}
	if c != a {
		t.Errorf("repeated label %q != first token %q", c, a)
	}
}
