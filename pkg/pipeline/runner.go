package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/archivis/archivis/pkg/cache"
	"github.com/archivis/archivis/pkg/invariance"
	"github.com/archivis/archivis/pkg/render"
	"github.com/archivis/archivis/pkg/store"
)

// cacheTTL bounds how long derived artifacts (SVGs, exports, analyses) live.
// IR versions themselves are immutable and never expire from the store.
const cacheTTL = 24 * time.Hour

// Runner encapsulates pipeline execution with versioned storage and caching.
// Both CLI and API can use this to avoid duplicating orchestration logic.
//
// The Runner is stateless except for its collaborators - it doesn't store
// pipeline results. Multiple goroutines can safely share one Runner.
type Runner struct {
	Store    store.Store
	Cache    cache.Cache
	Keyer    cache.Keyer
	Renderer render.Renderer

	// Policy decides whether an invalid invariance report rejects the
	// transformed SVG or only logs it.
	Policy invariance.Policy

	Logger *log.Logger
}

// NewRunner creates a runner with the given collaborators.
// If st is nil, an in-memory store is used.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If r is nil, the native layout renderer is used.
func NewRunner(st store.Store, c cache.Cache, keyer cache.Keyer, r render.Renderer, logger *log.Logger) *Runner {
	if st == nil {
		st = store.NewMemory()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if r == nil {
		r = render.NewLayout()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:    st,
		Cache:    c,
		Keyer:    keyer,
		Renderer: r,
		Policy:   invariance.PolicyLogAndContinue,
		Logger:   logger,
	}
}
