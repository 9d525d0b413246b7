// Package enrich turns a minimal zones/relationships plan into a fully
// styled, connected, schema-valid diagram IR.
//
// Enrichment is deterministic: the same plan always produces byte-identical
// output. Structure is strict (a plan that cannot yield a valid IR fails),
// aesthetics are forgiving (bad colors or moods fall back to defaults).
package enrich

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Zone names. These are the plan's vocabulary and the cascade order
// backbone: clients feed the edge, the edge feeds core services, core
// services feed data stores, with external services folded in where present.
const (
	ZoneClients          = "clients"
	ZoneEdge             = "edge"
	ZoneCoreServices     = "core_services"
	ZoneExternalServices = "external_services"
	ZoneDataStores       = "data_stores"
)

// ZoneOrder is the fixed left-to-right zone ordering used for layout and
// cascade inference.
var ZoneOrder = []string{ZoneClients, ZoneEdge, ZoneCoreServices, ZoneExternalServices, ZoneDataStores}

// Plan is the minimal architecture description accepted by Enrich.
// It typically arrives from an upstream planner as JSON or YAML.
type Plan struct {
	SystemName    string         `json:"system_name" yaml:"system_name"`
	DiagramType   string         `json:"diagram_type,omitempty" yaml:"diagram_type,omitempty"`
	DiagramViews  []string       `json:"diagram_views,omitempty" yaml:"diagram_views,omitempty"`
	VisualHints   VisualHints    `json:"visual_hints,omitempty" yaml:"visual_hints,omitempty"`
	Zones         Zones          `json:"zones" yaml:"zones"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Aesthetic     *Aesthetic     `json:"aesthetic_intent,omitempty" yaml:"aesthetic_intent,omitempty"`
}

// VisualHints carries renderer-facing layout hints.
type VisualHints struct {
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Zones assigns component labels to architectural zones.
type Zones struct {
	Clients          []string `json:"clients,omitempty" yaml:"clients,omitempty"`
	Edge             []string `json:"edge,omitempty" yaml:"edge,omitempty"`
	CoreServices     []string `json:"core_services,omitempty" yaml:"core_services,omitempty"`
	ExternalServices []string `json:"external_services,omitempty" yaml:"external_services,omitempty"`
	DataStores       []string `json:"data_stores,omitempty" yaml:"data_stores,omitempty"`
}

// ByZone returns the zone-name -> labels mapping in ZoneOrder.
func (z Zones) ByZone() map[string][]string {
	return map[string][]string{
		ZoneClients:          z.Clients,
		ZoneEdge:             z.Edge,
		ZoneCoreServices:     z.CoreServices,
		ZoneExternalServices: z.ExternalServices,
		ZoneDataStores:       z.DataStores,
	}
}

// Relationship is one explicit edge in the plan. From and To are component
// labels; endpoints that name no zoned component are auto-created during
// enrichment.
type Relationship struct {
	From        string `json:"from" yaml:"from"`
	To          string `json:"to" yaml:"to"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Aesthetic is the optional user taste input. Everything in here fails open:
// unparseable colors are skipped and unknown enum values fall back to
// defaults, because bad taste must never block a structurally valid diagram.
type Aesthetic struct {
	Colors   []string `json:"colors,omitempty" yaml:"colors,omitempty"`
	Mood     string   `json:"mood,omitempty" yaml:"mood,omitempty"`
	Density  string   `json:"density,omitempty" yaml:"density,omitempty"`
	Contrast string   `json:"contrast,omitempty" yaml:"contrast,omitempty"`
}

// DecodePlan parses a plan from JSON bytes.
func DecodePlan(data []byte) (Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	return p, nil
}

// DecodePlanYAML parses a plan from YAML bytes.
func DecodePlanYAML(data []byte) (Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("decode plan yaml: %w", err)
	}
	return p, nil
}
