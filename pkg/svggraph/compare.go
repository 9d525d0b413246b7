package svggraph

import (
	"fmt"
	"sort"
)

// Difference severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Difference types.
const (
	DiffNodeAdded    = "node_added"
	DiffNodeRemoved  = "node_removed"
	DiffEdgeAdded    = "edge_added"
	DiffEdgeRemoved  = "edge_removed"
	DiffEdgeRewired  = "edge_rewired"
	DiffGroupAdded   = "group_added"
	DiffGroupRemoved = "group_removed"
	DiffMembersDrift = "group_members_drift"
	DiffLabelChanged = "label_changed"
)

// Difference is one structural divergence between two graphs.
type Difference struct {
	Type        string `json:"type"`
	ElementID   string `json:"element_id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// CompareResult is the outcome of Compare.
type CompareResult struct {
	IsEquivalent bool         `json:"is_equivalent"`
	Differences  []Difference `json:"differences"`
}

// Compare diffs two structural graphs by element-id sets.
//
// Node/edge additions and removals and edge endpoint reconnections are
// errors; group add/remove and membership drift are warnings; node label
// changes on a retained id are errors. Ordering in the inputs is irrelevant:
// comparison is set-based, and the returned differences are sorted by
// element id for stable output.
func Compare(a, b *StructuralGraph) CompareResult {
	var diffs []Difference

	diffs = append(diffs, diffIDSets(a.NodeIDs(), b.NodeIDs(), DiffNodeRemoved, DiffNodeAdded, "node", SeverityError)...)
	diffs = append(diffs, diffIDSets(a.EdgeIDs(), b.EdgeIDs(), DiffEdgeRemoved, DiffEdgeAdded, "edge", SeverityError)...)
	diffs = append(diffs, diffIDSets(a.GroupIDs(), b.GroupIDs(), DiffGroupRemoved, DiffGroupAdded, "group", SeverityWarning)...)
	diffs = append(diffs, diffEdgeEndpoints(a, b)...)
	diffs = append(diffs, diffLabels(a, b)...)
	diffs = append(diffs, diffGroupMembers(a, b)...)

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].ElementID != diffs[j].ElementID {
			return diffs[i].ElementID < diffs[j].ElementID
		}
		return diffs[i].Type < diffs[j].Type
	})

	equivalent := true
	for _, d := range diffs {
		if d.Severity == SeverityError {
			equivalent = false
			break
		}
	}
	return CompareResult{IsEquivalent: equivalent, Differences: diffs}
}

func diffIDSets(before, after map[string]bool, removedType, addedType, noun, severity string) []Difference {
	var diffs []Difference
	for id := range before {
		if !after[id] {
			diffs = append(diffs, Difference{
				Type:        removedType,
				ElementID:   id,
				Description: fmt.Sprintf("%s %q present before, missing after", noun, id),
				Severity:    severity,
			})
		}
	}
	for id := range after {
		if !before[id] {
			diffs = append(diffs, Difference{
				Type:        addedType,
				ElementID:   id,
				Description: fmt.Sprintf("%s %q added", noun, id),
				Severity:    severity,
			})
		}
	}
	return diffs
}

func diffEdgeEndpoints(a, b *StructuralGraph) []Difference {
	after := make(map[string]Edge, len(b.Edges))
	for _, e := range b.Edges {
		after[e.ID] = e
	}

	var diffs []Difference
	for _, e := range a.Edges {
		be, ok := after[e.ID]
		if !ok {
			continue // already reported as removed
		}
		// Unknown endpoints on either side are not evidence of rewiring.
		if e.SourceID != "" && be.SourceID != "" && e.SourceID != be.SourceID ||
			e.TargetID != "" && be.TargetID != "" && e.TargetID != be.TargetID {
			diffs = append(diffs, Difference{
				Type:      DiffEdgeRewired,
				ElementID: e.ID,
				Description: fmt.Sprintf("edge %q reconnected: %s->%s became %s->%s",
					e.ID, e.SourceID, e.TargetID, be.SourceID, be.TargetID),
				Severity: SeverityError,
			})
		}
	}
	return diffs
}

func diffLabels(a, b *StructuralGraph) []Difference {
	after := make(map[string]Node, len(b.Nodes))
	for _, n := range b.Nodes {
		after[n.ID] = n
	}

	var diffs []Difference
	for _, n := range a.Nodes {
		bn, ok := after[n.ID]
		if !ok {
			continue
		}
		if n.Label != bn.Label {
			diffs = append(diffs, Difference{
				Type:        DiffLabelChanged,
				ElementID:   n.ID,
				Description: fmt.Sprintf("label of %q changed from %q to %q", n.ID, n.Label, bn.Label),
				Severity:    SeverityError,
			})
		}
	}
	return diffs
}

func diffGroupMembers(a, b *StructuralGraph) []Difference {
	after := make(map[string]Group, len(b.Groups))
	for _, g := range b.Groups {
		after[g.ID] = g
	}

	var diffs []Difference
	for _, g := range a.Groups {
		bg, ok := after[g.ID]
		if !ok {
			continue
		}
		if !sameIDSet(g.MemberIDs, bg.MemberIDs) {
			diffs = append(diffs, Difference{
				Type:        DiffMembersDrift,
				ElementID:   g.ID,
				Description: fmt.Sprintf("membership of group %q drifted from %v to %v", g.ID, g.MemberIDs, bg.MemberIDs),
				Severity:    SeverityWarning,
			})
		}
	}
	return diffs
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
