package ir

import (
	"encoding/json"

	"github.com/google/uuid"

	apperrors "github.com/archivis/archivis/pkg/errors"
)

// NewDiagramID mints a fresh diagram identifier.
func NewDiagramID() string {
	return "dgm-" + uuid.NewString()
}

// MakeVersion builds the next Version in a chain from a diagram payload.
//
// With parent == nil the result is the chain root (ir_version 1,
// parent_version null). Otherwise ir_version is parent.IRVersion+1 and
// parent_version references the parent. The result is validated before it is
// returned: MakeVersion never hands back a non-validating document and never
// coerces a bad one into shape.
func MakeVersion(diagramID string, doc Doc, parent *Version) (Version, error) {
	if diagramID == "" {
		return Version{}, apperrors.New(apperrors.ErrCodeSchemaInvalid, "diagram id must not be empty")
	}

	v := Version{
		DiagramID: diagramID,
		IRVersion: 1,
		IR:        doc,
	}
	if parent != nil {
		if parent.DiagramID != diagramID {
			return Version{}, apperrors.New(apperrors.ErrCodeSchemaInvalid,
				"parent belongs to diagram %q, not %q", parent.DiagramID, diagramID)
		}
		pv := parent.IRVersion
		v.ParentVersion = &pv
		v.IRVersion = pv + 1
	}

	if err := Validate(&v); err != nil {
		return Version{}, err
	}
	return v, nil
}

// legacyPayload is the bare pre-versioning shape: {"diagram": {...}}.
type legacyPayload struct {
	Diagram json.RawMessage `json:"diagram"`
}

// Upgrade wraps a bare {"diagram": ...} payload into version 1 of a chain.
//
// This is the only implicit migration path in the engine. Stored documents
// that predate version chains carry no diagram_id, so one is minted unless
// the diagram payload itself has an id worth reusing. The upgraded document
// is validated like any other.
func Upgrade(payload []byte) (Version, error) {
	var legacy legacyPayload
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return Version{}, apperrors.Wrap(apperrors.ErrCodeSchemaInvalid, err, "decode legacy payload")
	}
	if len(legacy.Diagram) == 0 {
		return Version{}, apperrors.New(apperrors.ErrCodeSchemaInvalid, "legacy payload has no diagram key")
	}

	var d Diagram
	if err := json.Unmarshal(legacy.Diagram, &d); err != nil {
		return Version{}, apperrors.Wrap(apperrors.ErrCodeSchemaInvalid, err, "decode legacy diagram")
	}

	diagramID := d.ID
	if diagramID == "" {
		diagramID = NewDiagramID()
		d.ID = diagramID
	}

	return MakeVersion(diagramID, Doc{Diagram: d}, nil)
}
