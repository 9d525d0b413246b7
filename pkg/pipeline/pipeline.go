// Package pipeline composes the diagram engine's stages behind one Runner.
//
// This package implements the complete plan → enrich → store → render flow
// plus the feedback loop (patch → store → re-render → invariance check) that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The forward pipeline consists of three stages:
//
//  1. Ingest: Enrich a minimal plan into a schema-valid IR version and
//     append it to the diagram's version chain
//  2. Render: Produce an SVG (graphviz or native layout) with embedded
//     IR metadata
//  3. Export: Emit the IR in an interchange format (PlantUML, Mermaid,
//     Structurizr JSON, DOT)
//
// The feedback loop applies one feedback action per call, appends the
// resulting version, and verifies transformed SVGs against the structural
// invariance policy.
//
// # Usage
//
// Create a Runner and run the forward pipeline:
//
//	runner := pipeline.NewRunner(store, cache, nil, nil, logger)
//	v, _, err := runner.Ingest(ctx, plan, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg, _, err := runner.RenderVersion(ctx, v.DiagramID, v.IRVersion, render.Options{})
package pipeline

import (
	"github.com/archivis/archivis/pkg/render"
)

// Export format constants.
const (
	FormatPlantUML    = "plantuml"
	FormatMermaid     = "mermaid"
	FormatStructurizr = "structurizr"
	FormatDOT         = "dot"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatPlantUML:    true,
	FormatMermaid:     true,
	FormatStructurizr: true,
	FormatDOT:         true,
}

func rendererName(r render.Renderer) string {
	switch r.(type) {
	case *render.Graphviz:
		return "graphviz"
	case *render.Layout:
		return "layout"
	default:
		return "custom"
	}
}
