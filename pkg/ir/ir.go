package ir

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Edge categories describe the interaction kind of a relationship.
const (
	CategorySync  = "sync"
	CategoryAsync = "async"
	CategoryData  = "data"
	CategoryAuth  = "auth"
)

// Edge modes distinguish author-provided edges from synthesized ones.
const (
	ModeExplicit = "explicit"
	ModeInferred = "inferred"
)

// Edge directions.
const (
	DirectionForward = "forward"
	DirectionBoth    = "both"
	DirectionNone    = "none"
)

// ValidCategories is the closed set of edge categories.
var ValidCategories = map[string]bool{
	CategorySync:  true,
	CategoryAsync: true,
	CategoryData:  true,
	CategoryAuth:  true,
}

// ValidModes is the closed set of edge modes.
var ValidModes = map[string]bool{
	ModeExplicit: true,
	ModeInferred: true,
}

// ValidDirections is the closed set of edge directions.
var ValidDirections = map[string]bool{
	DirectionForward: true,
	DirectionBoth:    true,
	DirectionNone:    true,
}

// =============================================================================
// Version - Canonical Versioned Document
// =============================================================================

// Version is the canonical versioned IR document.
// It is the wire format for storage and interchange: the JSON shape must stay
// bit-compatible with previously persisted diagrams.
//
// A Version is never mutated after creation. Every edit produces a new
// Version whose ParentVersion references the prior one; IRVersion strictly
// increases along the chain and a nil ParentVersion marks the chain root.
type Version struct {
	DiagramID     string `json:"diagram_id" bson:"diagram_id" validate:"required"`
	IRVersion     int    `json:"ir_version" bson:"ir_version" validate:"min=1"`
	ParentVersion *int   `json:"parent_version" bson:"parent_version"`
	IR            Doc    `json:"ir" bson:"ir"`
}

// Doc wraps the diagram payload. The extra nesting level exists for wire
// compatibility with stored documents.
type Doc struct {
	Diagram Diagram `json:"diagram" bson:"diagram"`
}

// Diagram holds the renderable content of one IR version.
type Diagram struct {
	ID     string  `json:"id" bson:"id" validate:"required"`
	Type   string  `json:"type" bson:"type" validate:"required"`
	Blocks []Block `json:"blocks" bson:"blocks"`
	Edges  []Edge  `json:"edges" bson:"edges"`
}

// Block is a rendering-ready node inside a diagram.
type Block struct {
	ID          string            `json:"id" bson:"id" validate:"required"`
	Type        string            `json:"type" bson:"type" validate:"required"`
	Text        string            `json:"text" bson:"text"`
	BBox        BBox              `json:"bbox" bson:"bbox"`
	Style       map[string]string `json:"style" bson:"style"`
	Annotations []string          `json:"annotations" bson:"annotations"`
	Version     int               `json:"version" bson:"version" validate:"min=0"`
	Hidden      bool              `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Zone        string            `json:"zone,omitempty" bson:"zone,omitempty"`
}

// BBox is a block's bounding box. Width and height must be non-negative.
type BBox struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Edge is a directed relationship between two blocks.
// Confidence is 1.0 for explicit edges and lower for inferred ones.
type Edge struct {
	EdgeID       string  `json:"edge_id" bson:"edge_id" validate:"required"`
	From         string  `json:"from" bson:"from" validate:"required"`
	To           string  `json:"to" bson:"to" validate:"required"`
	RelationType string  `json:"relation_type" bson:"relation_type"`
	Direction    string  `json:"direction" bson:"direction"`
	Category     string  `json:"category" bson:"category"`
	Mode         string  `json:"mode" bson:"mode"`
	Label        string  `json:"label" bson:"label"`
	Confidence   float64 `json:"confidence" bson:"confidence" validate:"min=0,max=1"`
}

// =============================================================================
// Accessors
// =============================================================================

// Block returns the block with the given ID and true, or a zero Block and false.
func (d *Diagram) Block(id string) (Block, bool) {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// BlockIDs returns the set of block IDs in the diagram.
func (d *Diagram) BlockIDs() map[string]bool {
	ids := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		ids[b.ID] = true
	}
	return ids
}

// IncidentEdges returns the number of edges touching the given block.
func (d *Diagram) IncidentEdges(blockID string) int {
	n := 0
	for _, e := range d.Edges {
		if e.From == blockID || e.To == blockID {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the version. Patches operate on clones so the
// prior version is never observed in a partially edited state.
func (v Version) Clone() Version {
	out := v
	if v.ParentVersion != nil {
		p := *v.ParentVersion
		out.ParentVersion = &p
	}
	out.IR.Diagram.Blocks = make([]Block, len(v.IR.Diagram.Blocks))
	for i, b := range v.IR.Diagram.Blocks {
		nb := b
		if b.Style != nil {
			nb.Style = make(map[string]string, len(b.Style))
			for k, val := range b.Style {
				nb.Style[k] = val
			}
		}
		if b.Annotations != nil {
			nb.Annotations = append([]string(nil), b.Annotations...)
		}
		out.IR.Diagram.Blocks[i] = nb
	}
	out.IR.Diagram.Edges = append([]Edge(nil), v.IR.Diagram.Edges...)
	return out
}

// Marshal serializes the version to its canonical JSON wire format.
func Marshal(v Version) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal ir version: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes JSON bytes into a Version without validating.
// Use Validate afterwards when the payload crosses a trust boundary.
func Unmarshal(data []byte) (Version, error) {
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return Version{}, fmt.Errorf("unmarshal ir version: %w", err)
	}
	return v, nil
}
