package sdmx

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Role partitions components into dimensions, measures and attributes.
type Role string

const (
	RoleDimension Role = "D"
	RoleMeasure   Role = "M"
	RoleAttribute Role = "A"
)

// Attachment levels for attributes. Any other non-empty value is a
// comma-joined ordered list of dimension ids.
const (
	AttachObservation = "O"
	AttachDataset     = "D"
)

// CodeSet is the enumerated representation of a coded component: either a
// Codelist (including value lists) or a Hierarchy.
type CodeSet interface {
	ShortURN() string
	Len() int
	isCodeSet()
}

// Component is one typed column of a data structure: a concept bound to a
// representation.
type Component struct {
	ID              string    `json:"id"`
	Name            string    `json:"name,omitempty"`
	Description     string    `json:"description,omitempty"`
	Role            Role      `json:"role"`
	Concept         Concept   `json:"concept"`
	DType           DataType  `json:"dtype"`
	Facets          *Facets   `json:"facets,omitempty"`
	Required        bool      `json:"required"`
	AttachmentLevel string    `json:"attachmentLevel,omitempty"`
	Codes           CodeSet   `json:"codes,omitempty"`
	ArrayDef        *ArrayDef `json:"arrayDef,omitempty"`
}

// Components is the ordered collection of a structure's components.
// Dimensions, measures and attributes are derived views over Role, never
// stored separately.
type Components []Component

// Get returns the component with the given id.
func (c Components) Get(id string) (Component, bool) {
	for _, comp := range c {
		if comp.ID == id {
			return comp, true
		}
	}
	return Component{}, false
}

// Dimensions returns the components with the dimension role, in order.
func (c Components) Dimensions() []Component { return c.withRole(RoleDimension) }

// Measures returns the components with the measure role, in order.
func (c Components) Measures() []Component { return c.withRole(RoleMeasure) }

// Attributes returns the components with the attribute role, in order.
func (c Components) Attributes() []Component { return c.withRole(RoleAttribute) }

func (c Components) withRole(role Role) []Component {
	out := make([]Component, 0, len(c))
	for _, comp := range c {
		if comp.Role == role {
			out = append(out, comp)
		}
	}
	return out
}

// IDs returns the component ids in declaration order.
func (c Components) IDs() []string {
	ids := make([]string, len(c))
	for i, comp := range c {
		ids[i] = comp.ID
	}
	return ids
}

// Validate checks the collection invariants: pairwise distinct ids, a
// recognized role on every component, and each component inheriting its
// identity from its concept.
func (c Components) Validate() error {
	seen := make([]string, 0, len(c))
	for _, comp := range c {
		if comp.ID == "" {
			return fmt.Errorf("component without id")
		}
		if slices.Contains(seen, comp.ID) {
			return fmt.Errorf("duplicate component id %q", comp.ID)
		}
		seen = append(seen, comp.ID)
		switch comp.Role {
		case RoleDimension, RoleMeasure, RoleAttribute:
		default:
			return fmt.Errorf("component %q has unknown role %q", comp.ID, comp.Role)
		}
		if comp.Concept.ID != "" && comp.Concept.ID != comp.ID {
			return fmt.Errorf("component %q does not match its concept id %q", comp.ID, comp.Concept.ID)
		}
	}
	return nil
}
