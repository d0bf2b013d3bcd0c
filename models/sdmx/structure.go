package sdmx

// ComponentDef is a component as declared by a data structure definition:
// references and flags only, resolved into a full Component by the schema
// resolver.
type ComponentDef struct {
	ID              string    `json:"id"`
	Role            Role      `json:"role"`
	ConceptRef      string    `json:"conceptRef"`
	Enumeration     string    `json:"enumeration,omitempty"` // codelist/valuelist URN, empty when uncoded
	DType           DataType  `json:"dtype,omitempty"`       // local text format, empty when inherited
	Facets          *Facets   `json:"facets,omitempty"`
	ArrayDef        *ArrayDef `json:"arrayDef,omitempty"`
	Required        bool      `json:"required"`
	AttachmentLevel string    `json:"attachmentLevel,omitempty"`
	Description     string    `json:"description,omitempty"`
}

// DataStructure is a data structure definition. Components are kept in
// declaration order: dimensions first (positional), then measures, then
// attributes.
type DataStructure struct {
	MaintainableArtefact
	Components []ComponentDef `json:"components,omitempty"`
}

// ShortURN returns the compact identity of the definition.
func (d *DataStructure) ShortURN() string { return d.shortURN("DataStructure") }

// Dataflow associates a data structure definition with a flow of data.
type Dataflow struct {
	MaintainableArtefact
	Structure string `json:"structure"` // DSD reference URN
}

// ShortURN returns the compact identity of the dataflow.
func (d *Dataflow) ShortURN() string { return d.shortURN("Dataflow") }

// ProvisionAgreement links a data provider to a dataflow.
type ProvisionAgreement struct {
	MaintainableArtefact
	Dataflow string `json:"dataflow"` // dataflow reference URN
	Provider string `json:"provider,omitempty"`
}

// ShortURN returns the compact identity of the agreement.
func (p *ProvisionAgreement) ShortURN() string { return p.shortURN("ProvisionAgreement") }

// ContentConstraint narrows the valid code sets of a structure within a
// context. CubeRegion maps a component id to its allowed code ids.
type ContentConstraint struct {
	MaintainableArtefact
	Attachment string              `json:"attachment,omitempty"` // constrained artefact URN
	CubeRegion map[string][]string `json:"cubeRegion,omitempty"`
}

// ShortURN returns the compact identity of the constraint.
func (c *ContentConstraint) ShortURN() string { return c.shortURN("ContentConstraint") }
