package ir

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/archivis/archivis/pkg/errors"
)

// validate is a singleton validator instance for struct tag checks.
var validate = validator.New()

// FieldError pairs a JSON-ish path into the document with a message.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string { return e.Path + ": " + e.Message }

// Validate checks a Version against the canonical schema.
//
// Struct tags cover presence and range constraints; cross-field rules
// (duplicate block IDs, enum membership, bbox sanity, edge endpoints) are
// checked by hand because they span multiple fields. On failure it returns a
// SCHEMA_INVALID error whose message lists every violated path, so callers
// see all problems at once rather than fixing them one by one.
func Validate(v *Version) error {
	if v == nil {
		return apperrors.New(apperrors.ErrCodeSchemaInvalid, "nil ir version")
	}

	var fieldErrs []FieldError

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			for _, fe := range verrs {
				fieldErrs = append(fieldErrs, FieldError{
					Path:    fe.Namespace(),
					Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
				})
			}
		} else {
			return apperrors.Wrap(apperrors.ErrCodeSchemaInvalid, err, "struct validation")
		}
	}

	fieldErrs = append(fieldErrs, checkVersionChain(v)...)
	fieldErrs = append(fieldErrs, checkDiagram(&v.IR.Diagram)...)

	if len(fieldErrs) > 0 {
		return apperrors.New(apperrors.ErrCodeSchemaInvalid, "%s", joinFieldErrors(fieldErrs))
	}
	return nil
}

// ValidateDiagram checks only the diagram payload, without chain constraints.
// The enricher uses this before a version number has been assigned.
func ValidateDiagram(d *Diagram) error {
	if d == nil {
		return apperrors.New(apperrors.ErrCodeSchemaInvalid, "nil diagram")
	}
	if fieldErrs := checkDiagram(d); len(fieldErrs) > 0 {
		return apperrors.New(apperrors.ErrCodeSchemaInvalid, "%s", joinFieldErrors(fieldErrs))
	}
	return nil
}

func checkVersionChain(v *Version) []FieldError {
	var errs []FieldError
	if v.ParentVersion != nil {
		if *v.ParentVersion < 1 {
			errs = append(errs, FieldError{"parent_version", "must be >= 1 when set"})
		}
		if v.IRVersion != *v.ParentVersion+1 {
			errs = append(errs, FieldError{"ir_version", fmt.Sprintf("must be parent_version+1, got %d after %d", v.IRVersion, *v.ParentVersion)})
		}
	} else if v.IRVersion != 1 {
		errs = append(errs, FieldError{"ir_version", fmt.Sprintf("root version must be 1, got %d", v.IRVersion)})
	}
	return errs
}

func checkDiagram(d *Diagram) []FieldError {
	var errs []FieldError

	if d.ID == "" {
		errs = append(errs, FieldError{"diagram.id", "required"})
	}
	if d.Type == "" {
		errs = append(errs, FieldError{"diagram.type", "required"})
	}

	seen := make(map[string]bool, len(d.Blocks))
	for i, b := range d.Blocks {
		path := fmt.Sprintf("diagram.blocks[%d]", i)
		if b.ID == "" {
			errs = append(errs, FieldError{path + ".id", "required"})
			continue
		}
		if seen[b.ID] {
			errs = append(errs, FieldError{path + ".id", fmt.Sprintf("duplicate block id %q", b.ID)})
		}
		seen[b.ID] = true
		if b.BBox.W < 0 || b.BBox.H < 0 {
			errs = append(errs, FieldError{path + ".bbox", "width and height must be non-negative"})
		}
	}

	edgeIDs := make(map[string]bool, len(d.Edges))
	for i, e := range d.Edges {
		path := fmt.Sprintf("diagram.edges[%d]", i)
		if e.EdgeID == "" {
			errs = append(errs, FieldError{path + ".edge_id", "required"})
		} else if edgeIDs[e.EdgeID] {
			errs = append(errs, FieldError{path + ".edge_id", fmt.Sprintf("duplicate edge id %q", e.EdgeID)})
		}
		edgeIDs[e.EdgeID] = true

		if e.From == "" {
			errs = append(errs, FieldError{path + ".from", "required"})
		} else if !seen[e.From] {
			errs = append(errs, FieldError{path + ".from", fmt.Sprintf("unknown block %q", e.From)})
		}
		if e.To == "" {
			errs = append(errs, FieldError{path + ".to", "required"})
		} else if !seen[e.To] {
			errs = append(errs, FieldError{path + ".to", fmt.Sprintf("unknown block %q", e.To)})
		}

		if e.Category != "" && !ValidCategories[e.Category] {
			errs = append(errs, FieldError{path + ".category", fmt.Sprintf("invalid category %q", e.Category)})
		}
		if e.Mode != "" && !ValidModes[e.Mode] {
			errs = append(errs, FieldError{path + ".mode", fmt.Sprintf("invalid mode %q", e.Mode)})
		}
		if e.Direction != "" && !ValidDirections[e.Direction] {
			errs = append(errs, FieldError{path + ".direction", fmt.Sprintf("invalid direction %q", e.Direction)})
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			errs = append(errs, FieldError{path + ".confidence", fmt.Sprintf("must be in [0,1], got %g", e.Confidence)})
		}
	}

	return errs
}

func joinFieldErrors(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
