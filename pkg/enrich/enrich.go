package enrich

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Node is an enriched diagram node: a plan label with resolved role, zone,
// style and renderer hints.
type Node struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Zone       string            `json:"zone"`
	Role       string            `json:"role"`
	Stereotype string            `json:"stereotype"`
	Shape      string            `json:"shape"`
	SizeHint   string            `json:"size_hint"`
	Style      map[string]string `json:"node_style"`
	Hints      RenderingHints    `json:"rendering_hints"`
	BBox       ir.BBox           `json:"bbox"`
	Inferred   bool              `json:"inferred,omitempty"`
}

// Edge is an enriched diagram edge. Confidence and Reason are mandatory
// metadata: every edge must be explainable, whether authored or inferred.
type Edge struct {
	ID           string  `json:"id"`
	From         string  `json:"from"`
	To           string  `json:"to"`
	FromLabel    string  `json:"from_label"`
	ToLabel      string  `json:"to_label"`
	RelationType string  `json:"relation_type"`
	Category     string  `json:"category"`
	Mode         string  `json:"mode"`
	Label        string  `json:"label"`
	Style        string  `json:"style"`
	Color        string  `json:"color"`
	Width        float64 `json:"width"`
	Arrowhead    string  `json:"arrowhead"`
	TextStyle    string  `json:"text_style"`
	Curvature    float64 `json:"curvature"`
	Opacity      string  `json:"opacity,omitempty"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
	Rule         string  `json:"rule,omitempty"`
}

// InferenceRecord is the audit entry logged for every synthesized edge.
// Records are persisted alongside the IR and never mutated.
type InferenceRecord struct {
	Rule       string  `json:"rule"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// LogEntry is one line in the enrichment validation log.
type LogEntry struct {
	Kind       string  `json:"kind"`
	Subject    string  `json:"subject"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Result is a fully enriched IR ready for codecs and versioning.
type Result struct {
	SystemName  string            `json:"system_name"`
	DiagramType string            `json:"diagram_type"`
	Layout      string            `json:"layout"`
	ZoneOrder   []string          `json:"zone_order"`
	Palette     []string          `json:"palette"`
	Mood        string            `json:"mood"`
	Density     string            `json:"density"`
	Contrast    string            `json:"contrast"`
	Nodes       []Node            `json:"nodes"`
	Edges       []Edge            `json:"edges"`
	Inferences  []InferenceRecord `json:"inferences"`
	Log         []LogEntry        `json:"validation_log"`
}

// Enrich turns a minimal plan into a fully styled, connected result.
//
// The steps run in a fixed order: intent resolution, node materialization,
// relationship-driven node inference, explicit edge construction,
// connectivity inference, style assignment, deterministic ordering, and a
// final schema validation of the produced document. Enrich never returns a
// result that would not validate; such a failure is an ENRICHMENT_FAILED
// error because it indicates a bug in the rules, not in the input.
func Enrich(plan Plan) (*Result, error) {
	in := resolveIntent(plan.Aesthetic)
	san := ir.NewSanitizer()

	res := &Result{
		SystemName:  plan.SystemName,
		DiagramType: diagramType(plan),
		Layout:      layoutHint(plan),
		ZoneOrder:   append([]string(nil), ZoneOrder...),
		Palette:     in.palette,
		Mood:        in.mood,
		Density:     in.density,
		Contrast:    in.contrast,
	}

	b := &builder{result: res, sanitizer: san, intent: in, byLabel: map[string]*Node{}}

	b.materializeZonedNodes(plan.Zones)
	b.materializeRelationshipNodes(plan.Relationships)
	b.buildExplicitEdges(plan.Relationships)
	b.inferConnectivity()
	b.finalize()

	doc := res.Diagram()
	if err := ir.ValidateDiagram(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeEnrichmentFailed, err, "enrichment produced invalid document")
	}
	return res, nil
}

// builder accumulates enrichment state. It exists only for the duration of
// one Enrich call; the package exposes no mutable state.
type builder struct {
	result    *Result
	sanitizer *ir.Sanitizer
	intent    intent
	byLabel   map[string]*Node
}

func diagramType(plan Plan) string {
	if plan.DiagramType != "" {
		return plan.DiagramType
	}
	if len(plan.DiagramViews) > 0 {
		return plan.DiagramViews[0]
	}
	return "architecture"
}

func layoutHint(plan Plan) string {
	if plan.VisualHints.Layout != "" {
		return plan.VisualHints.Layout
	}
	return "left-right"
}

// materializeZonedNodes creates one node per zone->label pair with the
// zone-derived role. Duplicate labels across zones keep their first zone.
func (b *builder) materializeZonedNodes(zones Zones) {
	byZone := zones.ByZone()
	for _, zone := range ZoneOrder {
		labels := append([]string(nil), byZone[zone]...)
		sort.Strings(labels)
		for _, label := range labels {
			if label = strings.TrimSpace(label); label == "" {
				continue
			}
			if _, exists := b.byLabel[label]; exists {
				b.result.Log = append(b.result.Log, LogEntry{
					Kind:    "duplicate_label",
					Subject: label,
					Message: fmt.Sprintf("label %q appears in multiple zones; first zone kept", label),
				})
				continue
			}
			b.addNode(label, zone, zoneRoles[zone], false)
		}
	}
}

// materializeRelationshipNodes auto-creates nodes for relationship endpoints
// that name no zoned component. Upstream plans frequently mention components
// only as edge endpoints; losing them would drop edges later.
func (b *builder) materializeRelationshipNodes(rels []Relationship) {
	endpoints := make([]string, 0, len(rels)*2)
	for _, r := range rels {
		endpoints = append(endpoints, r.From, r.To)
	}
	sort.Strings(endpoints)

	for _, label := range endpoints {
		if label = strings.TrimSpace(label); label == "" {
			continue
		}
		if _, exists := b.byLabel[label]; exists {
			continue
		}
		role := inferRole(label)
		b.addNode(label, zoneForRole[role], role, true)
		b.result.Log = append(b.result.Log, LogEntry{
			Kind:       "inferred_node",
			Subject:    label,
			Message:    fmt.Sprintf("component %q exists only as a relationship endpoint; created with role %s", label, role),
			Confidence: 0.8,
		})
	}
}

func (b *builder) addNode(label, zone, role string, inferred bool) *Node {
	n := Node{
		ID:       b.sanitizer.Sanitize(label),
		Label:    label,
		Zone:     zone,
		Role:     role,
		Inferred: inferred,
	}
	applyNodeStyle(&n, b.intent, b.sanitizer)
	b.result.Nodes = append(b.result.Nodes, n)
	node := &b.result.Nodes[len(b.result.Nodes)-1]
	b.byLabel[label] = node
	return node
}

// buildExplicitEdges converts plan relationships into explicit edges.
func (b *builder) buildExplicitEdges(rels []Relationship) {
	for _, r := range rels {
		from, okF := b.byLabel[strings.TrimSpace(r.From)]
		to, okT := b.byLabel[strings.TrimSpace(r.To)]
		if !okF || !okT {
			// Blank endpoints were skipped during materialization.
			b.result.Log = append(b.result.Log, LogEntry{
				Kind:    "dropped_relationship",
				Subject: r.From + "->" + r.To,
				Message: "relationship endpoint is empty; relationship skipped",
			})
			continue
		}

		label := r.Description
		if label == "" {
			label = r.Type
		}
		e := Edge{
			From:         from.ID,
			To:           to.ID,
			FromLabel:    from.Label,
			ToLabel:      to.Label,
			RelationType: r.Type,
			Category:     categorize(r.Type),
			Mode:         ir.ModeExplicit,
			Label:        label,
			Confidence:   1.0,
			Reason:       "declared in plan",
		}
		applyEdgeStyle(&e)
		b.result.Edges = append(b.result.Edges, e)
	}
}

// finalize sorts nodes and edges deterministically, assigns layout
// positions, and mints stable edge ids. Ordering is zone-then-label for
// nodes and (from,to,type,label) for edges - never map iteration order.
func (b *builder) finalize() {
	zoneIdx := make(map[string]int, len(ZoneOrder))
	for i, z := range ZoneOrder {
		zoneIdx[z] = i
	}

	sort.SliceStable(b.result.Nodes, func(i, j int) bool {
		a, c := b.result.Nodes[i], b.result.Nodes[j]
		if zoneIdx[a.Zone] != zoneIdx[c.Zone] {
			return zoneIdx[a.Zone] < zoneIdx[c.Zone]
		}
		return a.Label < c.Label
	})

	rows := make(map[string]int, len(ZoneOrder))
	for i := range b.result.Nodes {
		n := &b.result.Nodes[i]
		assignBBox(n, zoneIdx[n.Zone], rows[n.Zone], b.result.Density)
		rows[n.Zone]++
	}

	sort.SliceStable(b.result.Edges, func(i, j int) bool {
		a, c := b.result.Edges[i], b.result.Edges[j]
		if a.From != c.From {
			return a.From < c.From
		}
		if a.To != c.To {
			return a.To < c.To
		}
		if a.RelationType != c.RelationType {
			return a.RelationType < c.RelationType
		}
		return a.Label < c.Label
	})

	seen := map[string]int{}
	for i := range b.result.Edges {
		e := &b.result.Edges[i]
		base := fmt.Sprintf("edge_%s_%s", e.From, e.To)
		id := base
		if n := seen[base]; n > 0 {
			id = fmt.Sprintf("%s_%d", base, n+1)
		}
		seen[base]++
		e.ID = id
	}
}

// Diagram converts the result into the canonical IR diagram payload.
func (r *Result) Diagram() ir.Diagram {
	d := ir.Diagram{
		ID:     r.SystemName,
		Type:   r.DiagramType,
		Blocks: make([]ir.Block, len(r.Nodes)),
		Edges:  make([]ir.Edge, len(r.Edges)),
	}
	if d.ID == "" {
		d.ID = "diagram"
	}

	for i, n := range r.Nodes {
		annotations := []string{n.Stereotype}
		if n.Inferred {
			annotations = append(annotations, "inferred")
		}
		d.Blocks[i] = ir.Block{
			ID:          n.ID,
			Type:        n.Role,
			Text:        n.Label,
			BBox:        n.BBox,
			Style:       n.Style,
			Annotations: annotations,
			Version:     1,
			Zone:        n.Zone,
		}
	}

	for i, e := range r.Edges {
		d.Edges[i] = ir.Edge{
			EdgeID:       e.ID,
			From:         e.From,
			To:           e.To,
			RelationType: e.RelationType,
			Direction:    ir.DirectionForward,
			Category:     e.Category,
			Mode:         e.Mode,
			Label:        e.Label,
			Confidence:   e.Confidence,
		}
	}
	return d
}

// Version wraps the result into version 1 of a new chain.
func (r *Result) Version(diagramID string) (ir.Version, error) {
	return ir.MakeVersion(diagramID, ir.Doc{Diagram: r.Diagram()}, nil)
}
