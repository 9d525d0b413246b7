// Package invariance verifies that a cosmetic SVG transform preserved the
// diagram's structure.
//
// Animation and style injection are allowed to touch presentation only. The
// checker analyzes the SVG before and after a transform and reports every
// structural divergence: elements must not appear, disappear, get relabeled
// or reconnect. The checker reports rather than throws; whether a failing
// report blocks the transform is the caller's policy.
package invariance

import (
	"fmt"
	"sort"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/svggraph"
)

// Policy decides what a pipeline does with an invalid report.
type Policy string

const (
	// PolicyFailClosed rejects the transformed SVG on any error violation.
	PolicyFailClosed Policy = "fail-closed"
	// PolicyLogAndContinue logs violations and returns the transformed SVG
	// anyway. This is the default.
	PolicyLogAndContinue Policy = "log-and-continue"
)

// Violation types.
const (
	ViolationNodeMissing   = "node_missing"
	ViolationNodeAdded     = "node_added"
	ViolationEdgeMissing   = "edge_missing"
	ViolationEdgeAdded     = "edge_added"
	ViolationEdgeRewired   = "edge_rewired"
	ViolationGroupMissing  = "group_missing"
	ViolationGroupAdded    = "group_added"
	ViolationLabelChanged  = "label_changed"
	ViolationIDCollision   = "id_collision"
	ViolationLowSimilarity = "low_similarity"
)

// Similarity thresholds. Below warn the diagram drifted; below fail it is a
// different diagram.
const (
	similarityWarn = 0.95
	similarityFail = 0.80
)

// Violation is one detected invariance break.
type Violation struct {
	Type      string `json:"type"`
	ElementID string `json:"element_id,omitempty"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

// Summary aggregates the structural counts behind a report.
type Summary struct {
	NodesBefore int     `json:"nodes_before"`
	NodesAfter  int     `json:"nodes_after"`
	EdgesBefore int     `json:"edges_before"`
	EdgesAfter  int     `json:"edges_after"`
	Similarity  float64 `json:"similarity"`
}

// Report is the outcome of a check. IsValid is true iff no error-severity
// violation was found; warnings and infos never invalidate.
type Report struct {
	IsValid    bool        `json:"is_valid"`
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Check analyzes both SVG payloads and classifies every structural
// difference between them.
//
// Removals, reconnections and relabelings are always errors. Additions are
// warnings when strict and infos otherwise; a non-strict caller accepts that
// a transform may legitimately add decorative elements. A similarity score
// below 0.95 adds a warning, below 0.80 an error.
func Check(preSVG, postSVG string, strict bool) (Report, error) {
	pre, err := svggraph.Analyze(preSVG, "pre")
	if err != nil {
		return Report{}, apperrors.Wrap(apperrors.ErrCodeParse, err, "analyze pre-transform svg")
	}
	post, err := svggraph.Analyze(postSVG, "post")
	if err != nil {
		return Report{}, apperrors.Wrap(apperrors.ErrCodeParse, err, "analyze post-transform svg")
	}
	return CheckGraphs(pre, post, strict), nil
}

// CheckGraphs runs the classification on already-analyzed graphs.
func CheckGraphs(pre, post *svggraph.StructuralGraph, strict bool) Report {
	addedSeverity := svggraph.SeverityWarning
	if !strict {
		addedSeverity = svggraph.SeverityInfo
	}

	var vs []Violation
	vs = append(vs, diffSets(pre.NodeIDs(), post.NodeIDs(), "node",
		ViolationNodeMissing, ViolationNodeAdded, addedSeverity)...)
	vs = append(vs, diffSets(pre.EdgeIDs(), post.EdgeIDs(), "edge",
		ViolationEdgeMissing, ViolationEdgeAdded, addedSeverity)...)
	vs = append(vs, diffSets(pre.GroupIDs(), post.GroupIDs(), "group",
		ViolationGroupMissing, ViolationGroupAdded, addedSeverity)...)
	vs = append(vs, rewired(pre, post)...)
	vs = append(vs, relabeled(pre, post)...)
	vs = append(vs, collisions(post)...)

	summary := summarize(pre, post)
	if summary.Similarity < similarityFail {
		vs = append(vs, Violation{
			Type:     ViolationLowSimilarity,
			Message:  fmt.Sprintf("structural similarity %.2f below %.2f", summary.Similarity, similarityFail),
			Severity: svggraph.SeverityError,
		})
	} else if summary.Similarity < similarityWarn {
		vs = append(vs, Violation{
			Type:     ViolationLowSimilarity,
			Message:  fmt.Sprintf("structural similarity %.2f below %.2f", summary.Similarity, similarityWarn),
			Severity: svggraph.SeverityWarning,
		})
	}

	sort.Slice(vs, func(i, j int) bool {
		if vs[i].ElementID != vs[j].ElementID {
			return vs[i].ElementID < vs[j].ElementID
		}
		return vs[i].Type < vs[j].Type
	})

	valid := true
	for _, v := range vs {
		if v.Severity == svggraph.SeverityError {
			valid = false
			break
		}
	}
	return Report{IsValid: valid, Violations: vs, Summary: summary}
}

func diffSets(before, after map[string]bool, noun, missingType, addedType, addedSeverity string) []Violation {
	var vs []Violation
	for id := range before {
		if !after[id] {
			vs = append(vs, Violation{
				Type:      missingType,
				ElementID: id,
				Message:   fmt.Sprintf("%s %q disappeared during transform", noun, id),
				Severity:  svggraph.SeverityError,
			})
		}
	}
	for id := range after {
		if !before[id] {
			vs = append(vs, Violation{
				Type:      addedType,
				ElementID: id,
				Message:   fmt.Sprintf("%s %q appeared during transform", noun, id),
				Severity:  addedSeverity,
			})
		}
	}
	return vs
}

// rewired flags retained edges whose resolved endpoints changed. An unknown
// endpoint on either side is ambiguity, not evidence of rewiring.
func rewired(pre, post *svggraph.StructuralGraph) []Violation {
	after := make(map[string]svggraph.Edge, len(post.Edges))
	for _, e := range post.Edges {
		after[e.ID] = e
	}

	var vs []Violation
	for _, e := range pre.Edges {
		pe, ok := after[e.ID]
		if !ok {
			continue
		}
		if e.SourceID != "" && pe.SourceID != "" && e.SourceID != pe.SourceID ||
			e.TargetID != "" && pe.TargetID != "" && e.TargetID != pe.TargetID {
			vs = append(vs, Violation{
				Type:      ViolationEdgeRewired,
				ElementID: e.ID,
				Message: fmt.Sprintf("edge %q reconnected: %s->%s became %s->%s",
					e.ID, e.SourceID, e.TargetID, pe.SourceID, pe.TargetID),
				Severity: svggraph.SeverityError,
			})
		}
	}
	return vs
}

func relabeled(pre, post *svggraph.StructuralGraph) []Violation {
	after := make(map[string]svggraph.Node, len(post.Nodes))
	for _, n := range post.Nodes {
		after[n.ID] = n
	}

	var vs []Violation
	for _, n := range pre.Nodes {
		pn, ok := after[n.ID]
		if !ok {
			continue
		}
		if n.Label != pn.Label {
			vs = append(vs, Violation{
				Type:      ViolationLabelChanged,
				ElementID: n.ID,
				Message:   fmt.Sprintf("label of %q changed from %q to %q", n.ID, n.Label, pn.Label),
				Severity:  svggraph.SeverityError,
			})
		}
	}
	return vs
}

// collisions flags duplicate element ids in the transformed output. A
// transform that clones elements under an existing id breaks every selector
// pointing at it.
func collisions(post *svggraph.StructuralGraph) []Violation {
	seen := map[string]int{}
	for _, n := range post.Nodes {
		seen[n.ID]++
	}
	for _, e := range post.Edges {
		seen[e.ID]++
	}
	for _, g := range post.Groups {
		seen[g.ID]++
	}

	ids := make([]string, 0, len(seen))
	for id, count := range seen {
		if count > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var vs []Violation
	for _, id := range ids {
		vs = append(vs, Violation{
			Type:      ViolationIDCollision,
			ElementID: id,
			Message:   fmt.Sprintf("id %q used by %d elements after transform", id, seen[id]),
			Severity:  svggraph.SeverityError,
		})
	}
	return vs
}

func summarize(pre, post *svggraph.StructuralGraph) Summary {
	s := Summary{
		NodesBefore: len(pre.Nodes),
		NodesAfter:  len(post.Nodes),
		EdgesBefore: len(pre.Edges),
		EdgesAfter:  len(post.Edges),
	}

	deltaNodes := setDelta(pre.NodeIDs(), post.NodeIDs())
	deltaEdges := setDelta(pre.EdgeIDs(), post.EdgeIDs())
	total := s.NodesBefore + s.EdgesBefore
	if total < 1 {
		total = 1
	}
	s.Similarity = 1 - float64(deltaNodes+deltaEdges)/float64(2*total)
	if s.Similarity < 0 {
		s.Similarity = 0
	}
	return s
}

func setDelta(a, b map[string]bool) int {
	n := 0
	for id := range a {
		if !b[id] {
			n++
		}
	}
	for id := range b {
		if !a[id] {
			n++
		}
	}
	return n
}
