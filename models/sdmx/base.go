// Package sdmx holds the canonical in-memory model for SDMX structural
// artefacts: item schemes, data structures, constraints, hierarchies and
// the resolved Schema produced by the registry resolver. The types carry
// no behavior beyond invariant-preserving construction and lookups.
package sdmx

import (
	"time"

	"github.com/openstats/sdmx/urn"
)

// DefaultVersion is applied wherever a version attribute is absent.
const DefaultVersion = "1.0"

// Annotation conveys extra descriptive information on any SDMX construct.
// It never affects identity or equality of the owning artefact.
type Annotation struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Contact holds the contact details of an agency.
type Contact struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Department string   `json:"department,omitempty"`
	Role       string   `json:"role,omitempty"`
	Telephones []string `json:"telephones,omitempty"`
	Faxes      []string `json:"faxes,omitempty"`
	URIs       []string `json:"uris,omitempty"`
	Emails     []string `json:"emails,omitempty"`
}

// MaintainableArtefact carries the identity shared by every maintainable
// SDMX construct. The (class, agency, id, version) tuple is globally
// unique within a message and round-trips through the short URN form.
type MaintainableArtefact struct {
	ID                  string       `json:"id"`
	Agency              string       `json:"agency"`
	Version             string       `json:"version"`
	Name                string       `json:"name,omitempty"`
	Description         string       `json:"description,omitempty"`
	ValidFrom           *time.Time   `json:"validFrom,omitempty"`
	ValidTo             *time.Time   `json:"validTo,omitempty"`
	Annotations         []Annotation `json:"annotations,omitempty"`
	IsFinal             bool         `json:"isFinal,omitempty"`
	IsExternalReference bool         `json:"isExternalReference,omitempty"`
	ServiceURL          string       `json:"serviceURL,omitempty"`
	StructureURL        string       `json:"structureURL,omitempty"`
}

func (m MaintainableArtefact) shortURN(class string) string {
	return urn.ShortURN(class, m.Agency, m.ID, m.Version)
}
