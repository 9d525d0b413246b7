package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys for the pipeline's artifact types. All keys
// for the same inputs are identical across processes, so caches can be
// shared between runs.
type Keyer interface {
	// IRKey identifies a stored IR version payload.
	IRKey(diagramID string, version int) string

	// SVGKey identifies a rendered SVG. irHash is the content hash of the
	// IR the SVG was rendered from.
	SVGKey(irHash string, opts SVGKeyOpts) string

	// CodecKey identifies codec text output (plantuml, mermaid,
	// structurizr, dot) for an IR.
	CodecKey(irHash, format string) string

	// AnalysisKey identifies a structural-graph analysis of an SVG.
	AnalysisKey(svgHash string) string
}

// SVGKeyOpts distinguishes renders of the same IR.
type SVGKeyOpts struct {
	Renderer  string `json:"renderer"`
	Layout    string `json:"layout"`
	ShowZones bool   `json:"show_zones"`
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (DefaultKeyer) IRKey(diagramID string, version int) string {
	return fmt.Sprintf("ir:%s:v%d", diagramID, version)
}

func (DefaultKeyer) SVGKey(irHash string, opts SVGKeyOpts) string {
	return hashKey("svg", irHash, opts)
}

func (DefaultKeyer) CodecKey(irHash, format string) string {
	return hashKey("codec", irHash, format)
}

func (DefaultKeyer) AnalysisKey(svgHash string) string {
	return hashKey("analysis", svgHash)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
