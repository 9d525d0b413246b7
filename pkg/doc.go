// Package pkg provides the core libraries for the Archivis diagram IR engine.
//
// # Overview
//
// Archivis turns minimal architecture plans into fully styled, connected,
// versioned diagram IR, renders it, and verifies that downstream SVG
// transformations preserve diagram structure. The pkg directory is organized
// into four main areas:
//
//  1. Structure - IR schema and SVG analysis ([ir], [svggraph])
//  2. Semantics - enrichment, feedback, invariance ([enrich], [patch], [invariance])
//  3. Output - codecs and renderers ([codec], [render])
//  4. Infrastructure - storage, caching, orchestration ([store], [cache], [pipeline])
//
// # Architecture
//
// The typical data flow:
//
//	Architecture Plan (JSON/YAML)
//	         ↓
//	[enrich]    materialize nodes, infer connectivity, apply styling
//	         ↓
//	[ir]        validate and version the diagram document
//	         ↓
//	[store]     append to the diagram's immutable version chain
//	         ↓
//	[render]    emit SVG with embedded IR metadata
//	         ↓
//	[svggraph]  analyze SVG back into a structural graph
//	         ↓
//	[invariance] verify transformed SVGs preserve the structure
//
// Feedback edits flow through [patch], which produces the next version of
// the chain, and [codec] exports any version as PlantUML, Mermaid,
// Structurizr JSON, or DOT. [pipeline] wires the stages together with
// caching from [cache] and hooks from [observability].
package pkg
