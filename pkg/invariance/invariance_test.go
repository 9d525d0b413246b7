package invariance

import (
	"strings"
	"testing"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/svggraph"
)

const baseSVG = `<?xml version="1.0" encoding="us-ascii"?>
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300" viewBox="0 0 400 300">
  <g id="browser" class="entity">
    <rect x="40" y="40" width="100" height="50"/>
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

// styledSVG is baseSVG after a legitimate cosmetic transform: a style block
// and presentation attributes, nothing structural.
const styledSVG = `<?xml version="1.0" encoding="us-ascii"?>
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300" viewBox="0 0 400 300">
  <style>.entity rect { fill: #2563EB; }</style>
  <g id="browser" class="entity">
    <rect x="40" y="40" width="100" height="50" stroke="#0F172A"/>
    <text x="50" y="70">Browser</text>
  </g>
  <g id="auth" class="entity">
    <rect x="240" y="40" width="100" height="50" stroke="#0F172A"/>
    <text x="250" y="70">Auth</text>
  </g>
  <g id="link_browser_auth" class="link">
    <path d="M140,65 L240,65" stroke-dasharray="4 2"/>
  </g>
</svg>`

func TestCheckIdentityTransform(t *testing.T) {
	report, err := Check(baseSVG, baseSVG, true)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.IsValid {
		t.Errorf("identity transform flagged invalid: %+v", report.Violations)
	}
	if len(report.Violations) != 0 {
		t.Errorf("identity transform produced violations: %+v", report.Violations)
	}
	if report.Summary.Similarity != 1 {
		t.Errorf("similarity = %v, want 1", report.Summary.Similarity)
	}
}

func TestCheckCosmeticTransformPasses(t *testing.T) {
	report, err := Check(baseSVG, styledSVG, true)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.IsValid {
		t.Errorf("cosmetic transform flagged invalid: %+v", report.Violations)
	}
}

func TestCheckRemovedNodeIsError(t *testing.T) {
	post := strings.Replace(baseSVG, `<g id="auth" class="entity">
    <rect x="240" y="40" width="100" height="50"/>
    <text x="250" y="70">Auth</text>
  </g>`, "", 1)

	report, err := Check(baseSVG, post, true)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if report.IsValid {
		t.Error("node removal not flagged")
	}

	var found bool
	for _, v := range report.Violations {
		if v.Type == ViolationNodeMissing && v.ElementID == "auth" {
			found = true
			if v.Severity != svggraph.SeverityError {
				t.Errorf("severity = %s, want error", v.Severity)
			}
		}
	}
	if !found {
		t.Errorf("no node_missing violation for auth: %+v", report.Violations)
	}
}

func TestCheckAddedNodeSeverityFollowsStrict(t *testing.T) {
	post := strings.Replace(baseSVG, "</svg>", `  <g id="badge" class="entity">
    <rect x="40" y="200" width="60" height="30"/>
    <text x="45" y="220">New</text>
  </g>
</svg>`, 1)

	strictReport, err := Check(baseSVG, post, true)
	if err != nil {
		t.Fatalf("Check(strict) error = %v", err)
	}
	looseReport, err := Check(baseSVG, post, false)
	if err != nil {
		t.Fatalf("Check(loose) error = %v", err)
	}

	severityOf := func(r Report) string {
		for _, v := range r.Violations {
			if v.Type == ViolationNodeAdded && v.ElementID == "badge" {
				return v.Severity
			}
		}
		return ""
	}

	if got := severityOf(strictReport); got != svggraph.SeverityWarning {
		t.Errorf("strict added-node severity = %q, want warning", got)
	}
	if got := severityOf(looseReport); got != svggraph.SeverityInfo {
		t.Errorf("loose added-node severity = %q, want info", got)
	}
	// Additions alone never invalidate.
	if !strictReport.IsValid || !looseReport.IsValid {
		t.Error("addition-only transform flagged invalid")
	}
}

func TestCheckLabelChangeIsError(t *testing.T) {
	post := strings.Replace(baseSVG, ">Auth<", ">Authn<", 1)

	report, err := Check(baseSVG, post, true)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if report.IsValid {
		t.Error("label change not flagged")
	}
	var found bool
	for _, v := range report.Violations {
		if v.Type == ViolationLabelChanged && v.ElementID == "auth" {
			found = true
		}
	}
	if !found {
		t.Errorf("no label_changed violation: %+v", report.Violations)
	}
}

func TestCheckIDCollision(t *testing.T) {
	post := strings.Replace(baseSVG, "</svg>", `  <g id="auth" class="entity">
    <rect x="240" y="140" width="100" height="50"/>
    <text x="250" y="170">Auth</text>
  </g>
</svg>`, 1)

	report, err := Check(baseSVG, post, true)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if report.IsValid {
		t.Error("id collision not flagged")
	}
	var found bool
	for _, v := range report.Violations {
		if v.Type == ViolationIDCollision && v.ElementID == "auth" {
			found = true
		}
	}
	if !found {
		t.Errorf("no id_collision violation: %+v", report.Violations)
	}
}

func TestCheckSimilarityThresholds(t *testing.T) {
	empty := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`

	report, err := Check(baseSVG, empty, true)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if report.IsValid {
		t.Error("total structural loss not flagged")
	}
	var found bool
	for _, v := range report.Violations {
		if v.Type == ViolationLowSimilarity && v.Severity == svggraph.SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("no error-severity low_similarity violation: %+v", report.Violations)
	}
	if report.Summary.Similarity >= similarityFail {
		t.Errorf("similarity = %v, want < %v", report.Summary.Similarity, similarityFail)
	}
}

func TestCheckMalformedSVG(t *testing.T) {
	_, err := Check("<svg><g></svg>", baseSVG, true)
	if err == nil {
		t.Fatal("Check() error = nil, want parse error")
	}
	if !apperrors.Is(err, apperrors.ErrCodeParse) {
		t.Errorf("error code = %s, want PARSE_ERROR", apperrors.GetCode(err))
	}
}
