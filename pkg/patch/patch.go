// Package patch applies structural feedback edits to diagram IR versions.
//
// Each applied patch produces the next version in the chain or rejects the
// request outright; no partially patched document is ever returned. The
// engine is pure: callers own persistence and must serialize concurrent
// patches per diagram.
package patch

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Patch verbs.
const (
	ActionEditText    = "edit_text"
	ActionReposition  = "reposition"
	ActionStyle       = "style"
	ActionAnnotate    = "annotate"
	ActionHide        = "hide"
	ActionShow        = "show"
	ActionAddBlock    = "add_block"
	ActionRemoveBlock = "remove_block"
)

// requiresBlockID lists the verbs that must name an existing block.
var requiresBlockID = map[string]bool{
	ActionEditText:    true,
	ActionReposition:  true,
	ActionStyle:       true,
	ActionAnnotate:    true,
	ActionHide:        true,
	ActionShow:        true,
	ActionRemoveBlock: true,
}

// Feedback is one edit request against a diagram.
type Feedback struct {
	DiagramID string          `json:"diagram_id"`
	BlockID   string          `json:"block_id,omitempty"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Entry is one audit line for a successful patch.
type Entry struct {
	Op      string `json:"op"`
	BlockID string `json:"block_id,omitempty"`
	Before  any    `json:"before,omitempty"`
	After   any    `json:"after,omitempty"`
}

// Diff summarizes the structural delta a patch produced.
type Diff struct {
	BlocksBefore int `json:"blocks_before"`
	BlocksAfter  int `json:"blocks_after"`
	EdgesBefore  int `json:"edges_before"`
	EdgesAfter   int `json:"edges_after"`
}

// Log is the audit trail attached to the new version's metadata. It never
// becomes part of the IR content itself.
type Log struct {
	Entries []Entry `json:"entries"`
	Diff    Diff    `json:"diff"`
}

// Per-verb payload shapes. Unknown payload keys are rejected at the
// boundary instead of being silently ignored.
type editTextPayload struct {
	Text string `json:"text"`
}

type repositionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type stylePayload struct {
	Style map[string]string `json:"style"`
}

type annotatePayload struct {
	Annotation string `json:"annotation"`
}

type addBlockPayload struct {
	Block ir.Block `json:"block"`
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return apperrors.New(apperrors.ErrCodeValidationFailed, "payload is required for this action")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeValidationFailed, err, "malformed payload")
	}
	return nil
}

// Apply executes one feedback request against the current version and
// returns the next version plus its audit log.
//
// The state machine has exactly two outcomes: version v becomes v+1, or the
// request is rejected and v stays current. Rejection never mutates the
// input; the current version is deep-copied before any edit.
func Apply(fb Feedback, current *ir.Version) (ir.Version, *Log, error) {
	if current == nil {
		return ir.Version{}, nil, apperrors.New(apperrors.ErrCodeValidationFailed, "current version is required")
	}
	if requiresBlockID[fb.Action] && fb.BlockID == "" {
		return ir.Version{}, nil, apperrors.New(apperrors.ErrCodeValidationFailed, "action %s requires block_id", fb.Action)
	}

	next := current.Clone()
	d := &next.IR.Diagram
	log := &Log{
		Diff: Diff{
			BlocksBefore: len(d.Blocks),
			EdgesBefore:  len(d.Edges),
		},
	}

	var entry Entry
	var err error
	switch fb.Action {
	case ActionEditText:
		entry, err = applyEditText(d, fb)
	case ActionReposition:
		entry, err = applyReposition(d, fb)
	case ActionStyle:
		entry, err = applyStyle(d, fb)
	case ActionAnnotate:
		entry, err = applyAnnotate(d, fb)
	case ActionHide:
		entry, err = applyVisibility(d, fb, true)
	case ActionShow:
		entry, err = applyVisibility(d, fb, false)
	case ActionAddBlock:
		entry, err = applyAddBlock(d, fb)
	case ActionRemoveBlock:
		entry, err = applyRemoveBlock(d, fb)
	default:
		return ir.Version{}, nil, apperrors.New(apperrors.ErrCodeUnsupportedAction, "unknown patch action %q", fb.Action)
	}
	if err != nil {
		return ir.Version{}, nil, err
	}

	if orphan := firstOrphanedEdge(d); orphan != "" {
		return ir.Version{}, nil, apperrors.New(apperrors.ErrCodeStructuralIntegrity,
			"patch would orphan edge %s; prior version remains current", orphan)
	}

	bumped, err := ir.MakeVersion(current.DiagramID, next.IR, current)
	if err != nil {
		return ir.Version{}, nil, err
	}

	log.Entries = append(log.Entries, entry)
	log.Diff.BlocksAfter = len(d.Blocks)
	log.Diff.EdgesAfter = len(d.Edges)
	return bumped, log, nil
}

func findBlock(d *ir.Diagram, blockID string) (*ir.Block, error) {
	for i := range d.Blocks {
		if d.Blocks[i].ID == blockID {
			return &d.Blocks[i], nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeNotFound, "block %q not found", blockID)
}

func applyEditText(d *ir.Diagram, fb Feedback) (Entry, error) {
	var p editTextPayload
	if err := decodePayload(fb.Payload, &p); err != nil {
		return Entry{}, err
	}
	b, err := findBlock(d, fb.BlockID)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Op: fb.Action, BlockID: fb.BlockID, Before: b.Text, After: p.Text}
	b.Text = p.Text
	b.Version++
	return entry, nil
}

func applyReposition(d *ir.Diagram, fb Feedback) (Entry, error) {
	var p repositionPayload
	if err := decodePayload(fb.Payload, &p); err != nil {
		return Entry{}, err
	}
	b, err := findBlock(d, fb.BlockID)
	if err != nil {
		return Entry{}, err
	}
	if p.X < 0 || p.Y < 0 {
		return Entry{}, apperrors.New(apperrors.ErrCodeValidationFailed, "reposition coordinates must be non-negative")
	}
	before := b.BBox
	b.BBox.X, b.BBox.Y = p.X, p.Y
	b.Version++
	return Entry{Op: fb.Action, BlockID: fb.BlockID, Before: before, After: b.BBox}, nil
}

func applyStyle(d *ir.Diagram, fb Feedback) (Entry, error) {
	var p stylePayload
	if err := decodePayload(fb.Payload, &p); err != nil {
		return Entry{}, err
	}
	if len(p.Style) == 0 {
		return Entry{}, apperrors.New(apperrors.ErrCodeValidationFailed, "style payload must set at least one property")
	}
	b, err := findBlock(d, fb.BlockID)
	if err != nil {
		return Entry{}, err
	}
	before := make(map[string]string, len(b.Style))
	for k, v := range b.Style {
		before[k] = v
	}
	if b.Style == nil {
		b.Style = map[string]string{}
	}
	for k, v := range p.Style {
		b.Style[k] = v
	}
	b.Version++
	return Entry{Op: fb.Action, BlockID: fb.BlockID, Before: before, After: b.Style}, nil
}

func applyAnnotate(d *ir.Diagram, fb Feedback) (Entry, error) {
	var p annotatePayload
	if err := decodePayload(fb.Payload, &p); err != nil {
		return Entry{}, err
	}
	if p.Annotation == "" {
		return Entry{}, apperrors.New(apperrors.ErrCodeValidationFailed, "annotation must not be empty")
	}
	b, err := findBlock(d, fb.BlockID)
	if err != nil {
		return Entry{}, err
	}
	before := append([]string(nil), b.Annotations...)
	b.Annotations = append(b.Annotations, p.Annotation)
	b.Version++
	return Entry{Op: fb.Action, BlockID: fb.BlockID, Before: before, After: b.Annotations}, nil
}

func applyVisibility(d *ir.Diagram, fb Feedback, hidden bool) (Entry, error) {
	b, err := findBlock(d, fb.BlockID)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Op: fb.Action, BlockID: fb.BlockID, Before: b.Hidden, After: hidden}
	b.Hidden = hidden
	b.Version++
	return entry, nil
}

func applyAddBlock(d *ir.Diagram, fb Feedback) (Entry, error) {
	var p addBlockPayload
	if err := decodePayload(fb.Payload, &p); err != nil {
		return Entry{}, err
	}
	if p.Block.ID == "" {
		return Entry{}, apperrors.New(apperrors.ErrCodeValidationFailed, "add_block payload must set block.id")
	}
	if _, err := findBlock(d, p.Block.ID); err == nil {
		return Entry{}, apperrors.New(apperrors.ErrCodeValidationFailed, "block %q already exists", p.Block.ID)
	}
	if p.Block.Version == 0 {
		p.Block.Version = 1
	}
	d.Blocks = append(d.Blocks, p.Block)
	return Entry{Op: fb.Action, BlockID: p.Block.ID, After: p.Block}, nil
}

// applyRemoveBlock deletes the block and cascades to every edge referencing
// it. Dangling edges are never left behind.
func applyRemoveBlock(d *ir.Diagram, fb Feedback) (Entry, error) {
	removed, err := findBlock(d, fb.BlockID)
	if err != nil {
		return Entry{}, err
	}
	before := *removed

	blocks := d.Blocks[:0]
	for _, b := range d.Blocks {
		if b.ID != fb.BlockID {
			blocks = append(blocks, b)
		}
	}
	d.Blocks = blocks

	var cascaded []string
	edges := d.Edges[:0]
	for _, e := range d.Edges {
		if e.From == fb.BlockID || e.To == fb.BlockID {
			cascaded = append(cascaded, e.EdgeID)
			continue
		}
		edges = append(edges, e)
	}
	d.Edges = edges

	return Entry{
		Op:      fb.Action,
		BlockID: fb.BlockID,
		Before:  before,
		After:   map[string]any{"cascaded_edges": cascaded},
	}, nil
}

// firstOrphanedEdge re-resolves every edge endpoint against the post-patch
// block set and returns the id of the first orphan, if any.
func firstOrphanedEdge(d *ir.Diagram) string {
	ids := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		ids[b.ID] = true
	}
	for _, e := range d.Edges {
		if !ids[e.From] || !ids[e.To] {
			return e.EdgeID
		}
	}
	return ""
}

// Describe renders a short human summary of a log for CLI output.
func (l *Log) Describe() string {
	if l == nil || len(l.Entries) == 0 {
		return "no changes"
	}
	e := l.Entries[0]
	return fmt.Sprintf("%s %s (blocks %d->%d, edges %d->%d)",
		e.Op, e.BlockID, l.Diff.BlocksBefore, l.Diff.BlocksAfter, l.Diff.EdgesBefore, l.Diff.EdgesAfter)
}
