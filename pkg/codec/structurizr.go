package codec

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// structurizrWorkspace is the subset of the Structurizr workspace JSON
// schema the codec emits.
type structurizrWorkspace struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Model       structurizrModel `json:"model"`
	Fingerprint string           `json:"fingerprint"`
}

type structurizrModel struct {
	Elements      []structurizrElement      `json:"elements"`
	Relationships []structurizrRelationship `json:"relationships"`
}

type structurizrElement struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type string   `json:"type"`
	Tags []string `json:"tags,omitempty"`
}

type structurizrRelationship struct {
	ID            string   `json:"id"`
	SourceID      string   `json:"sourceId"`
	DestinationID string   `json:"destinationId"`
	Description   string   `json:"description,omitempty"`
	Technology    string   `json:"technology,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// structurizrTypes maps block types onto Structurizr element types.
var structurizrTypes = map[string]string{
	"actor":      "Person",
	"gateway":    "Container",
	"service":    "Container",
	"external":   "SoftwareSystem",
	"data_store": "Container",
}

// ToStructurizrJSON renders the diagram as a Structurizr workspace document.
// The fingerprint field hashes the model portion, so cosmetic workspace
// metadata edits do not change it.
func ToStructurizrJSON(d *ir.Diagram) (string, error) {
	blocks := visibleBlocks(d)
	edges := visibleEdges(d, blocks)
	ids := identifiers(blocks)

	model := structurizrModel{
		Elements:      make([]structurizrElement, 0, len(blocks)),
		Relationships: make([]structurizrRelationship, 0, len(edges)),
	}

	for _, blk := range blocks {
		typ, ok := structurizrTypes[blk.Type]
		if !ok {
			typ = "Container"
		}
		var tags []string
		if blk.Zone != "" {
			tags = append(tags, blk.Zone)
		}
		tags = append(tags, blk.Annotations...)
		model.Elements = append(model.Elements, structurizrElement{
			ID:   ids[blk.ID],
			Name: blk.Text,
			Type: typ,
			Tags: tags,
		})
	}

	for _, e := range edges {
		var tags []string
		if e.Category != "" {
			tags = append(tags, e.Category)
		}
		if e.Mode == ir.ModeInferred {
			tags = append(tags, "inferred")
		}
		model.Relationships = append(model.Relationships, structurizrRelationship{
			ID:            e.EdgeID,
			SourceID:      ids[e.From],
			DestinationID: ids[e.To],
			Description:   e.Label,
			Technology:    e.RelationType,
			Tags:          tags,
		})
	}

	modelJSON, err := json.Marshal(model)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal structurizr model")
	}

	ws := structurizrWorkspace{
		Name:        d.ID,
		Description: fmt.Sprintf("%s diagram", d.Type),
		Model:       model,
		Fingerprint: Fingerprint(string(modelJSON)),
	}
	out, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal structurizr workspace")
	}
	return string(out) + "\n", nil
}
