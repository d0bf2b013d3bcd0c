package sdmx

import (
	"fmt"
	"strings"
)

// ActionType is the dataset action of a data message.
type ActionType string

const (
	ActionAppend      ActionType = "Append"
	ActionReplace     ActionType = "Replace"
	ActionDelete      ActionType = "Delete"
	ActionInformation ActionType = "Information"
)

// ParseActionType maps an action value, case-insensitively, to its
// canonical form. The single-letter codes used by SDMX-CSV are accepted
// as well.
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToLower(s) {
	case "append", "a":
		return ActionAppend, nil
	case "replace", "r":
		return ActionReplace, nil
	case "delete", "d":
		return ActionDelete, nil
	case "information", "i":
		return ActionInformation, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// SubmissionResult is the outcome of one submitted structure in a
// registry submission response.
type SubmissionResult struct {
	Action   string `json:"action"`
	ShortURN string `json:"shortURN"`
	Status   string `json:"status"`
}

// Dataset is the tabular shape emitted by the data readers: one entry per
// distinct structure reference, keyed by its short URN. Columns hold
// dimension, measure and attribute ids in declaration order; bookkeeping
// columns never appear.
type Dataset struct {
	Structure string     `json:"structure"` // short URN
	Action    ActionType `json:"action,omitempty"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
}

// Content-type labels of a structure message.
const (
	ContentOrganisationSchemes   = "OrganisationSchemes"
	ContentCodelists             = "Codelists"
	ContentConcepts              = "Concepts"
	ContentDataStructures        = "DataStructures"
	ContentDataflows             = "Dataflows"
	ContentProvisionAgreements   = "ProvisionAgreements"
	ContentHierarchies           = "Hierarchies"
	ContentHierarchyAssociations = "HierarchyAssociations"
	ContentContentConstraints    = "ContentConstraints"
)

// Message is the parsed content of a structure message: per content type,
// a mapping from short URN to artefact.
type Message struct {
	OrganisationSchemes   map[string]*AgencyScheme         `json:"organisationSchemes,omitempty"`
	Codelists             map[string]*Codelist             `json:"codelists,omitempty"`
	Concepts              map[string]*ConceptScheme        `json:"concepts,omitempty"`
	DataStructures        map[string]*DataStructure        `json:"dataStructures,omitempty"`
	Dataflows             map[string]*Dataflow             `json:"dataflows,omitempty"`
	ProvisionAgreements   map[string]*ProvisionAgreement   `json:"provisionAgreements,omitempty"`
	Hierarchies           map[string]*Hierarchy            `json:"hierarchies,omitempty"`
	HierarchyAssociations map[string]*HierarchyAssociation `json:"hierarchyAssociations,omitempty"`
	ContentConstraints    map[string]*ContentConstraint    `json:"contentConstraints,omitempty"`
}

// ContentTypes lists the labels of the non-empty sections, in a fixed
// order.
func (m *Message) ContentTypes() []string {
	var out []string
	if len(m.OrganisationSchemes) > 0 {
		out = append(out, ContentOrganisationSchemes)
	}
	if len(m.Codelists) > 0 {
		out = append(out, ContentCodelists)
	}
	if len(m.Concepts) > 0 {
		out = append(out, ContentConcepts)
	}
	if len(m.DataStructures) > 0 {
		out = append(out, ContentDataStructures)
	}
	if len(m.Dataflows) > 0 {
		out = append(out, ContentDataflows)
	}
	if len(m.ProvisionAgreements) > 0 {
		out = append(out, ContentProvisionAgreements)
	}
	if len(m.Hierarchies) > 0 {
		out = append(out, ContentHierarchies)
	}
	if len(m.HierarchyAssociations) > 0 {
		out = append(out, ContentHierarchyAssociations)
	}
	if len(m.ContentConstraints) > 0 {
		out = append(out, ContentContentConstraints)
	}
	return out
}

// Merge copies the content of other into m, overwriting entries with the
// same short URN.
func (m *Message) Merge(other *Message) {
	if other == nil {
		return
	}
	for k, v := range other.OrganisationSchemes {
		if m.OrganisationSchemes == nil {
			m.OrganisationSchemes = map[string]*AgencyScheme{}
		}
		m.OrganisationSchemes[k] = v
	}
	for k, v := range other.Codelists {
		if m.Codelists == nil {
			m.Codelists = map[string]*Codelist{}
		}
		m.Codelists[k] = v
	}
	for k, v := range other.Concepts {
		if m.Concepts == nil {
			m.Concepts = map[string]*ConceptScheme{}
		}
		m.Concepts[k] = v
	}
	for k, v := range other.DataStructures {
		if m.DataStructures == nil {
			m.DataStructures = map[string]*DataStructure{}
		}
		m.DataStructures[k] = v
	}
	for k, v := range other.Dataflows {
		if m.Dataflows == nil {
			m.Dataflows = map[string]*Dataflow{}
		}
		m.Dataflows[k] = v
	}
	for k, v := range other.ProvisionAgreements {
		if m.ProvisionAgreements == nil {
			m.ProvisionAgreements = map[string]*ProvisionAgreement{}
		}
		m.ProvisionAgreements[k] = v
	}
	for k, v := range other.Hierarchies {
		if m.Hierarchies == nil {
			m.Hierarchies = map[string]*Hierarchy{}
		}
		m.Hierarchies[k] = v
	}
	for k, v := range other.HierarchyAssociations {
		if m.HierarchyAssociations == nil {
			m.HierarchyAssociations = map[string]*HierarchyAssociation{}
		}
		m.HierarchyAssociations[k] = v
	}
	for k, v := range other.ContentConstraints {
		if m.ContentConstraints == nil {
			m.ContentConstraints = map[string]*ContentConstraint{}
		}
		m.ContentConstraints[k] = v
	}
}
