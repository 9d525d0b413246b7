package pipeline

import (
	"context"

	"github.com/archivis/archivis/pkg/cache"
	"github.com/archivis/archivis/pkg/codec"
	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
	"github.com/archivis/archivis/pkg/observability"
)

// Export emits one stored IR version in an interchange format. Supported
// formats are plantuml, mermaid, structurizr, and dot. Results are cached
// by IR content hash and format; the returned bool reports a cache hit.
func (r *Runner) Export(ctx context.Context, diagramID string, version int, format string) ([]byte, bool, error) {
	if !ValidFormats[format] {
		return nil, false, apperrors.New(apperrors.ErrCodeValidationFailed,
			"unsupported export format %q", format)
	}

	v, err := r.resolveVersion(ctx, diagramID, version)
	if err != nil {
		return nil, false, err
	}

	payload, err := ir.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.CodecKey(cache.Hash(payload), format)
	if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "codec")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "codec")

	var body string
	switch format {
	case FormatPlantUML:
		body = codec.ToPlantUML(&v.IR.Diagram)
	case FormatMermaid:
		body = codec.ToMermaid(&v.IR.Diagram)
	case FormatDOT:
		body = codec.ToDOT(&v.IR.Diagram)
	case FormatStructurizr:
		body, err = codec.ToStructurizrJSON(&v.IR.Diagram)
		if err != nil {
			return nil, false, err
		}
	}

	out := []byte(body)
	if err := r.Cache.Set(ctx, key, out, cacheTTL); err != nil {
		r.Logger.Warn("codec cache write failed", "key", key, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "codec", len(out))
	}

	r.Logger.Info("exported diagram",
		"diagram", diagramID,
		"version", v.IRVersion,
		"format", format,
		"bytes", len(out))
	return out, false, nil
}
