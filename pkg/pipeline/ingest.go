package pipeline

import (
	"context"
	"time"

	"github.com/archivis/archivis/pkg/enrich"
	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
	"github.com/archivis/archivis/pkg/observability"
)

// Ingest enriches a plan and appends the resulting IR version to the
// diagram's chain. An empty diagramID starts a new chain under a generated
// id; an existing id extends the chain, with the current head as parent.
func (r *Runner) Ingest(ctx context.Context, plan enrich.Plan, diagramID string) (ir.Version, *enrich.Result, error) {
	start := time.Now()
	observability.Pipeline().OnEnrichStart(ctx, plan.SystemName)

	result, err := enrich.Enrich(plan)
	if err != nil {
		observability.Pipeline().OnEnrichComplete(ctx, plan.SystemName, 0, 0, time.Since(start), err)
		return ir.Version{}, nil, err
	}
	observability.Pipeline().OnEnrichComplete(ctx, plan.SystemName,
		len(result.Nodes), len(result.Edges), time.Since(start), nil)

	if diagramID == "" {
		diagramID = ir.NewDiagramID()
	}

	var parent *ir.Version
	head, err := r.Store.Head(ctx, diagramID)
	switch {
	case err == nil:
		parent = &head
	case apperrors.Is(err, apperrors.ErrCodeNotFound):
		// First version of a new chain.
	default:
		return ir.Version{}, nil, err
	}

	v, err := ir.MakeVersion(diagramID, ir.Doc{Diagram: result.Diagram()}, parent)
	if err != nil {
		return ir.Version{}, nil, err
	}
	if err := r.Store.Put(ctx, v); err != nil {
		if apperrors.Is(err, apperrors.ErrCodeStoreConflict) {
			observability.Store().OnConflict(ctx, diagramID, v.IRVersion)
		}
		return ir.Version{}, nil, err
	}
	observability.Store().OnPut(ctx, diagramID, v.IRVersion)

	r.Logger.Info("ingested plan",
		"diagram", diagramID,
		"version", v.IRVersion,
		"nodes", len(result.Nodes),
		"edges", len(result.Edges),
		"inferred", len(result.Inferences),
		"duration", time.Since(start))
	return v, result, nil
}

// resolveVersion loads one version of a diagram. A version of 0 or less
// means the current head.
func (r *Runner) resolveVersion(ctx context.Context, diagramID string, version int) (ir.Version, error) {
	if version <= 0 {
		return r.Store.Head(ctx, diagramID)
	}
	return r.Store.Get(ctx, diagramID, version)
}
