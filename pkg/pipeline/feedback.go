package pipeline

import (
	"context"
	"time"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/invariance"
	"github.com/archivis/archivis/pkg/ir"
	"github.com/archivis/archivis/pkg/observability"
	"github.com/archivis/archivis/pkg/patch"
)

// ApplyFeedback applies one feedback action to the diagram's head version
// and appends the result to the chain. A rejected action leaves the chain
// untouched and the error carries the rejection code.
func (r *Runner) ApplyFeedback(ctx context.Context, fb patch.Feedback) (ir.Version, *patch.Log, error) {
	head, err := r.Store.Head(ctx, fb.DiagramID)
	if err != nil {
		return ir.Version{}, nil, err
	}

	next, plog, err := patch.Apply(fb, &head)
	if err != nil {
		return ir.Version{}, nil, err
	}

	if err := r.Store.Put(ctx, next); err != nil {
		if apperrors.Is(err, apperrors.ErrCodeStoreConflict) {
			observability.Store().OnConflict(ctx, fb.DiagramID, next.IRVersion)
		}
		return ir.Version{}, nil, err
	}
	observability.Store().OnPut(ctx, fb.DiagramID, next.IRVersion)

	r.Logger.Info("applied feedback",
		"diagram", fb.DiagramID,
		"action", fb.Action,
		"block", fb.BlockID,
		"version", next.IRVersion)
	return next, plog, nil
}

// VerifyTransform checks a transformed SVG against the original for
// structural invariance. Under PolicyFailClosed an invalid report is
// returned as a VALIDATION_FAILED error; under PolicyLogAndContinue the
// violations are logged and the report is returned for the caller to
// inspect.
func (r *Runner) VerifyTransform(ctx context.Context, diagramID, preSVG, postSVG string, strict bool) (invariance.Report, error) {
	start := time.Now()
	report, err := invariance.Check(preSVG, postSVG, strict)
	if err != nil {
		return invariance.Report{}, err
	}
	observability.Pipeline().OnCheckComplete(ctx, diagramID,
		report.IsValid, len(report.Violations), time.Since(start))

	for _, v := range report.Violations {
		r.Logger.Warn("invariance violation",
			"diagram", diagramID,
			"type", v.Type,
			"element", v.ElementID,
			"severity", v.Severity,
			"message", v.Message)
	}

	if !report.IsValid && r.Policy == invariance.PolicyFailClosed {
		return report, apperrors.New(apperrors.ErrCodeValidationFailed,
			"transformed svg breaks structural invariance: %d violations", len(report.Violations))
	}
	return report, nil
}
