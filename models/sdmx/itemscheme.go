package sdmx

import "fmt"

// Code is an item of a codelist or value list. Parent refers to another
// code in the same list by id; an empty Parent marks a root.
type Code struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Parent      string       `json:"parent,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Codelist is an ordered list of codes. SdmxType distinguishes a 2.1
// codelist from a 3.0 value list; both behave identically here.
type Codelist struct {
	MaintainableArtefact
	SdmxType  string `json:"sdmxType"` // "codelist" or "valuelist"
	Items     []Code `json:"items,omitempty"`
	IsPartial bool   `json:"isPartial,omitempty"`
}

// ShortURN returns the compact identity of the codelist.
func (c *Codelist) ShortURN() string {
	if c.SdmxType == "valuelist" {
		return c.shortURN("ValueList")
	}
	return c.shortURN("Codelist")
}

// Len returns the number of codes in the list.
func (c *Codelist) Len() int { return len(c.Items) }

// Item returns the code with the given id, or nil.
func (c *Codelist) Item(id string) *Code {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Codelist) isCodeSet() {}

// Concept is an item of a concept scheme. Its core representation (type,
// facets, optional enumeration) applies to any component referencing the
// concept without a local representation override.
type Concept struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Parent      string       `json:"parent,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	DType       DataType     `json:"dtype,omitempty"`
	Facets      *Facets      `json:"facets,omitempty"`
	Codes       *Codelist    `json:"codes,omitempty"`
	EnumRef     string       `json:"enumRef,omitempty"`
}

// ConceptScheme owns an ordered list of concepts.
type ConceptScheme struct {
	MaintainableArtefact
	Items     []Concept `json:"items,omitempty"`
	IsPartial bool      `json:"isPartial,omitempty"`
}

// ShortURN returns the compact identity of the scheme.
func (c *ConceptScheme) ShortURN() string { return c.shortURN("ConceptScheme") }

// Item returns the concept with the given id, or nil.
func (c *ConceptScheme) Item(id string) *Concept {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// Agency is an item of an agency scheme.
type Agency struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Contacts    []Contact    `json:"contacts,omitempty"`
}

// AgencyScheme owns the agencies maintained by an organisation.
type AgencyScheme struct {
	MaintainableArtefact
	Items     []Agency `json:"items,omitempty"`
	IsPartial bool     `json:"isPartial,omitempty"`
}

// ShortURN returns the compact identity of the scheme.
func (a *AgencyScheme) ShortURN() string { return a.shortURN("AgencyScheme") }

// Item returns the agency with the given id, or nil.
func (a *AgencyScheme) Item(id string) *Agency {
	for i := range a.Items {
		if a.Items[i].ID == id {
			return &a.Items[i]
		}
	}
	return nil
}

// CheckParentLinks verifies that every non-empty parent id resolves to a
// code in the same list and that the parent relation forms a forest.
// Readers call this after the two-pass collect-then-link step.
func CheckParentLinks(scheme string, items []Code) error {
	links := make([]parentLink, len(items))
	for i, it := range items {
		links[i] = parentLink{id: it.ID, parent: it.Parent}
	}
	return checkParentForest(scheme, links)
}

// CheckConceptParentLinks applies the same forest rule to the concepts
// of a concept scheme.
func CheckConceptParentLinks(scheme string, items []Concept) error {
	links := make([]parentLink, len(items))
	for i, it := range items {
		links[i] = parentLink{id: it.ID, parent: it.Parent}
	}
	return checkParentForest(scheme, links)
}

type parentLink struct {
	id     string
	parent string
}

func checkParentForest(scheme string, items []parentLink) error {
	byID := make(map[string]string, len(items))
	for _, it := range items {
		byID[it.id] = it.parent
	}
	for _, it := range items {
		if it.parent == "" {
			continue
		}
		if _, ok := byID[it.parent]; !ok {
			return fmt.Errorf("dangling parent reference in %s: item %q refers to unknown parent %q",
				scheme, it.id, it.parent)
		}
		// Walk up; a forest of n items never needs more than n steps.
		cur := it.parent
		for steps := 0; cur != ""; steps++ {
			if cur == it.id {
				return fmt.Errorf("parent cycle in %s involving item %q", scheme, it.id)
			}
			if steps > len(items) {
				return fmt.Errorf("parent cycle in %s involving item %q", scheme, it.id)
			}
			cur = byID[cur]
		}
	}
	return nil
}
