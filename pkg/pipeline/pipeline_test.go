package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/archivis/archivis/pkg/cache"
	"github.com/archivis/archivis/pkg/enrich"
	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/invariance"
	"github.com/archivis/archivis/pkg/patch"
	"github.com/archivis/archivis/pkg/render"
	"github.com/archivis/archivis/pkg/store"
)

func testPlan() enrich.Plan {
	return enrich.Plan{
		SystemName: "shop",
		Zones: enrich.Zones{
			Clients:      []string{"Browser"},
			CoreServices: []string{"Auth Service"},
			DataStores:   []string{"PostgreSQL"},
		},
	}
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	return NewRunner(store.NewMemory(), c, nil, nil, log.New(io.Discard))
}

func TestIngestCreatesFirstVersion(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v, result, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if v.IRVersion != 1 {
		t.Errorf("IRVersion = %d, want 1", v.IRVersion)
	}
	if v.ParentVersion != nil {
		t.Errorf("ParentVersion = %v, want nil", *v.ParentVersion)
	}
	if v.DiagramID == "" {
		t.Error("Ingest did not assign a diagram id")
	}
	if len(result.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(result.Nodes))
	}

	head, err := r.Store.Head(ctx, v.DiagramID)
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.IRVersion != 1 {
		t.Errorf("stored head = %d, want 1", head.IRVersion)
	}
}

func TestIngestExtendsExistingChain(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v1, _, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	v2, _, err := r.Ingest(ctx, testPlan(), v1.DiagramID)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if v2.IRVersion != 2 {
		t.Errorf("IRVersion = %d, want 2", v2.IRVersion)
	}
	if v2.ParentVersion == nil || *v2.ParentVersion != 1 {
		t.Errorf("ParentVersion = %v, want 1", v2.ParentVersion)
	}
}

// The native renderer's output must analyze back to the same structure the
// IR describes: every block becomes a node and every edge resolves with
// full endpoint confidence.
func TestRenderAnalyzeRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v, _, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	svg, hit, err := r.RenderVersion(ctx, v.DiagramID, 0, render.Options{})
	if err != nil {
		t.Fatalf("RenderVersion() error = %v", err)
	}
	if hit {
		t.Error("first render reported a cache hit")
	}

	g, _, err := r.Analyze(ctx, string(svg), "roundtrip")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	nodeIDs := g.NodeIDs()
	for _, b := range v.IR.Diagram.Blocks {
		if !nodeIDs[b.ID] {
			t.Errorf("block %q missing from analyzed svg", b.ID)
		}
	}
	if len(nodeIDs) != len(v.IR.Diagram.Blocks) {
		t.Errorf("analyzed nodes = %d, want %d", len(nodeIDs), len(v.IR.Diagram.Blocks))
	}
	for _, e := range g.Edges {
		if e.EndpointConfidence != 1.0 {
			t.Errorf("edge %s endpoint confidence = %v, want 1.0", e.ID, e.EndpointConfidence)
		}
	}
}

func TestRenderVersionCacheHit(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v, _, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	first, hit, err := r.RenderVersion(ctx, v.DiagramID, 1, render.Options{})
	if err != nil || hit {
		t.Fatalf("first render = hit %v, err %v", hit, err)
	}
	second, hit, err := r.RenderVersion(ctx, v.DiagramID, 1, render.Options{})
	if err != nil {
		t.Fatalf("second render error = %v", err)
	}
	if !hit {
		t.Error("second render missed the cache")
	}
	if string(first) != string(second) {
		t.Error("cached svg differs from rendered svg")
	}
}

func TestExportFormats(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v, _, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	for format := range ValidFormats {
		out, hit, err := r.Export(ctx, v.DiagramID, 0, format)
		if err != nil {
			t.Errorf("Export(%s) error = %v", format, err)
			continue
		}
		if hit {
			t.Errorf("Export(%s) first call reported a cache hit", format)
		}
		if len(out) == 0 {
			t.Errorf("Export(%s) produced no output", format)
		}
		if format == FormatStructurizr && !json.Valid(out) {
			t.Errorf("Export(structurizr) produced invalid json")
		}

		if _, hit, err := r.Export(ctx, v.DiagramID, 0, format); err != nil || !hit {
			t.Errorf("Export(%s) second call = hit %v, err %v", format, hit, err)
		}
	}

	if _, _, err := r.Export(ctx, v.DiagramID, 0, "visio"); !apperrors.Is(err, apperrors.ErrCodeValidationFailed) {
		t.Errorf("Export(visio) error = %v, want VALIDATION_FAILED", err)
	}
}

func TestApplyFeedbackAppendsVersion(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v1, _, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	blockID := v1.IR.Diagram.Blocks[0].ID

	v2, plog, err := r.ApplyFeedback(ctx, patch.Feedback{
		DiagramID: v1.DiagramID,
		BlockID:   blockID,
		Action:    patch.ActionEditText,
		Payload:   json.RawMessage(`{"text":"Renamed"}`),
	})
	if err != nil {
		t.Fatalf("ApplyFeedback() error = %v", err)
	}
	if v2.IRVersion != 2 {
		t.Errorf("IRVersion = %d, want 2", v2.IRVersion)
	}
	if len(plog.Entries) == 0 {
		t.Error("feedback produced no log entries")
	}
	b, ok := v2.IR.Diagram.Block(blockID)
	if !ok || b.Text != "Renamed" {
		t.Errorf("block text = %q, want Renamed", b.Text)
	}
}

func TestApplyFeedbackRejectionLeavesChainUntouched(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	v1, _, err := r.Ingest(ctx, testPlan(), "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	_, _, err = r.ApplyFeedback(ctx, patch.Feedback{
		DiagramID: v1.DiagramID,
		BlockID:   v1.IR.Diagram.Blocks[0].ID,
		Action:    "teleport",
	})
	if !apperrors.Is(err, apperrors.ErrCodeUnsupportedAction) {
		t.Fatalf("ApplyFeedback() error = %v, want UNSUPPORTED_ACTION", err)
	}

	history, err := r.Store.History(ctx, v1.DiagramID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1", len(history))
	}
}

const preSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300">
  <g id="browser" class="entity"><rect x="40" y="40" width="100" height="50"/><text x="50" y="70">Browser</text></g>
  <g id="auth" class="entity"><rect x="240" y="40" width="100" height="50"/><text x="250" y="70">Auth</text></g>
  <g id="link_browser_auth" class="link"><path d="M140,65 L240,65"/></g>
</svg>`

const brokenSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300">
  <g id="browser" class="entity"><rect x="40" y="40" width="100" height="50"/><text x="50" y="70">Browser</text></g>
</svg>`

func TestVerifyTransformFailClosed(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	r.Policy = invariance.PolicyFailClosed

	report, err := r.VerifyTransform(ctx, "dgm-x", preSVG, brokenSVG, true)
	if !apperrors.Is(err, apperrors.ErrCodeValidationFailed) {
		t.Fatalf("VerifyTransform() error = %v, want VALIDATION_FAILED", err)
	}
	if report.IsValid {
		t.Error("report should be invalid")
	}
}

func TestVerifyTransformLogAndContinue(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	report, err := r.VerifyTransform(ctx, "dgm-x", preSVG, brokenSVG, true)
	if err != nil {
		t.Fatalf("VerifyTransform() error = %v", err)
	}
	if report.IsValid {
		t.Error("report should be invalid")
	}
	if len(report.Violations) == 0 {
		t.Error("expected violations for a dropped node")
	}
}

func TestVerifyTransformCleanPass(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	r.Policy = invariance.PolicyFailClosed

	report, err := r.VerifyTransform(ctx, "dgm-x", preSVG, preSVG, true)
	if err != nil {
		t.Fatalf("VerifyTransform() error = %v", err)
	}
	if !report.IsValid {
		t.Errorf("identity transform flagged invalid: %+v", report.Violations)
	}
}
