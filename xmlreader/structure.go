package xmlreader

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strings"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
)

// Tag-to-type table: each element below maps to exactly one artefact
// model type. Anything else under Structures is skipped by the decoder.
type structureDoc struct {
	XMLName    xml.Name `xml:"Structure"`
	Structures struct {
		OrganisationSchemes *struct {
			Schemes []agencySchemeXML `xml:"AgencyScheme"`
		} `xml:"OrganisationSchemes"`
		Codelists *struct {
			Lists []codelistXML `xml:"Codelist"`
		} `xml:"Codelists"`
		ValueLists *struct {
			Lists []codelistXML `xml:"ValueList"`
		} `xml:"ValueLists"`
		Concepts *struct {
			Schemes []conceptSchemeXML `xml:"ConceptScheme"`
		} `xml:"Concepts"`
		DataStructures *struct {
			Items []dataStructureXML `xml:"DataStructure"`
		} `xml:"DataStructures"`
		Dataflows *struct {
			Items []dataflowXML `xml:"Dataflow"`
		} `xml:"Dataflows"`
		ProvisionAgreements *struct {
			Items []provisionAgreementXML `xml:"ProvisionAgreement"`
		} `xml:"ProvisionAgreements"`
		Hierarchies *struct {
			Items        []hierarchyXML            `xml:"Hierarchy"`
			Associations []hierarchyAssociationXML `xml:"HierarchyAssociation"`
		} `xml:"Hierarchies"`
		Constraints *struct {
			Items []constraintXML `xml:"ContentConstraint"`
		} `xml:"Constraints"`
	} `xml:"Structures"`
}

func (r *Reader) parseStructures(data []byte, opts Options) (*sdmx.Message, error) {
	var doc structureDoc
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, sdmxerrors.Parsef("malformed structure message: %v", err)
	}

	msg := &sdmx.Message{}
	s := doc.Structures

	if s.OrganisationSchemes != nil {
		msg.OrganisationSchemes = map[string]*sdmx.AgencyScheme{}
		for _, raw := range s.OrganisationSchemes.Schemes {
			scheme, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.OrganisationSchemes[scheme.ShortURN()] = scheme
		}
	}
	if s.Codelists != nil || s.ValueLists != nil {
		msg.Codelists = map[string]*sdmx.Codelist{}
		if s.Codelists != nil {
			for _, raw := range s.Codelists.Lists {
				cl, err := raw.model("codelist")
				if err != nil {
					return nil, err
				}
				msg.Codelists[cl.ShortURN()] = cl
			}
		}
		if s.ValueLists != nil {
			for _, raw := range s.ValueLists.Lists {
				vl, err := raw.model("valuelist")
				if err != nil {
					return nil, err
				}
				msg.Codelists[vl.ShortURN()] = vl
			}
		}
	}
	if s.Concepts != nil {
		msg.Concepts = map[string]*sdmx.ConceptScheme{}
		for _, raw := range s.Concepts.Schemes {
			cs, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.Concepts[cs.ShortURN()] = cs
		}
	}
	if s.DataStructures != nil {
		msg.DataStructures = map[string]*sdmx.DataStructure{}
		for _, raw := range s.DataStructures.Items {
			dsd, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.DataStructures[dsd.ShortURN()] = dsd
		}
	}
	if s.Dataflows != nil {
		msg.Dataflows = map[string]*sdmx.Dataflow{}
		for _, raw := range s.Dataflows.Items {
			df, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.Dataflows[df.ShortURN()] = df
		}
	}
	if s.ProvisionAgreements != nil {
		msg.ProvisionAgreements = map[string]*sdmx.ProvisionAgreement{}
		for _, raw := range s.ProvisionAgreements.Items {
			pa, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.ProvisionAgreements[pa.ShortURN()] = pa
		}
	}
	if s.Hierarchies != nil {
		if len(s.Hierarchies.Items) > 0 {
			msg.Hierarchies = map[string]*sdmx.Hierarchy{}
			for _, raw := range s.Hierarchies.Items {
				h, err := raw.model()
				if err != nil {
					return nil, err
				}
				msg.Hierarchies[h.ShortURN()] = h
			}
		}
		if len(s.Hierarchies.Associations) > 0 {
			msg.HierarchyAssociations = map[string]*sdmx.HierarchyAssociation{}
			for _, raw := range s.Hierarchies.Associations {
				ha, err := raw.model()
				if err != nil {
					return nil, err
				}
				msg.HierarchyAssociations[ha.ShortURN()] = ha
			}
		}
	}
	if s.Constraints != nil {
		msg.ContentConstraints = map[string]*sdmx.ContentConstraint{}
		for _, raw := range s.Constraints.Items {
			cc, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.ContentConstraints[cc.ShortURN()] = cc
		}
	}

	r.log.Debug().Strs("content", msg.ContentTypes()).Msg("Parsed structure message")
	return msg, nil
}

type itemXML struct {
	ID           string         `xml:"id,attr"`
	Names        []textXML      `xml:"Name"`
	Descriptions []textXML      `xml:"Description"`
	Annotations  annotationsXML `xml:"Annotations"`
	Parent       *refContainer  `xml:"Parent"`
	Contacts     []contactXML   `xml:"Contact"`
}

type contactXML struct {
	ID          string    `xml:"id,attr"`
	Names       []textXML `xml:"Name"`
	Departments []textXML `xml:"Department"`
	Roles       []textXML `xml:"Role"`
	Telephones  []string  `xml:"Telephone"`
	Faxes       []string  `xml:"Fax"`
	URIs        []string  `xml:"URI"`
	Emails      []string  `xml:"Email"`
}

func (c contactXML) model() sdmx.Contact {
	return sdmx.Contact{
		ID:         c.ID,
		Name:       pickText(c.Names),
		Department: pickText(c.Departments),
		Role:       pickText(c.Roles),
		Telephones: c.Telephones,
		Faxes:      c.Faxes,
		URIs:       c.URIs,
		Emails:     c.Emails,
	}
}

// parentID resolves an item's parent reference to an id within the same
// scheme. Both the inline and the URN form carry the item id last.
func parentID(rc *refContainer) (string, error) {
	if rc == nil {
		return "", nil
	}
	if rc.Ref != nil && rc.Ref.MaintainableParentID == "" {
		return rc.Ref.ID, nil
	}
	ref, err := rc.reference("Code")
	if err != nil {
		return "", err
	}
	if ref.ItemID != "" {
		return ref.ItemID, nil
	}
	return ref.ID, nil
}

type agencySchemeXML struct {
	maintainableXML
	Agencies []itemXML `xml:"Agency"`
}

func (a agencySchemeXML) model() (*sdmx.AgencyScheme, error) {
	base, err := a.artefact("AgencyScheme")
	if err != nil {
		return nil, err
	}
	scheme := &sdmx.AgencyScheme{MaintainableArtefact: base, IsPartial: a.IsPartial}
	for _, it := range a.Agencies {
		ag := sdmx.Agency{
			ID:          it.ID,
			Name:        pickText(it.Names),
			Description: pickText(it.Descriptions),
			Annotations: it.Annotations.model(),
		}
		for _, c := range it.Contacts {
			ag.Contacts = append(ag.Contacts, c.model())
		}
		scheme.Items = append(scheme.Items, ag)
	}
	return scheme, nil
}

type codelistXML struct {
	maintainableXML
	Codes []itemXML `xml:"Code"`
}

func (c codelistXML) model(sdmxType string) (*sdmx.Codelist, error) {
	tag := "Codelist"
	if sdmxType == "valuelist" {
		tag = "ValueList"
	}
	base, err := c.artefact(tag)
	if err != nil {
		return nil, err
	}
	cl := &sdmx.Codelist{MaintainableArtefact: base, SdmxType: sdmxType, IsPartial: c.IsPartial}
	// First pass: collect items in document order. Parents may be
	// declared after their children, so linking is checked afterwards.
	for _, it := range c.Codes {
		parent, err := parentID(it.Parent)
		if err != nil {
			return nil, err
		}
		cl.Items = append(cl.Items, sdmx.Code{
			ID:          it.ID,
			Name:        pickText(it.Names),
			Description: pickText(it.Descriptions),
			Annotations: it.Annotations.model(),
			Parent:      parent,
		})
	}
	if err := sdmx.CheckParentLinks(cl.ShortURN(), cl.Items); err != nil {
		return nil, sdmxerrors.Validationf(tag, "%v", err)
	}
	return cl, nil
}

type conceptXML struct {
	itemXML
	Core *representationXML `xml:"CoreRepresentation"`
}

type representationXML struct {
	Enumeration       *refContainer  `xml:"Enumeration"`
	TextFormat        *textFormatXML `xml:"TextFormat"`
	EnumerationFormat *textFormatXML `xml:"EnumerationFormat"`
	MinOccurs         *int           `xml:"minOccurs,attr"`
	MaxOccurs         *int           `xml:"maxOccurs,attr"`
}

type textFormatXML struct {
	TextType   string   `xml:"textType,attr"`
	MinLength  int      `xml:"minLength,attr"`
	MaxLength  int      `xml:"maxLength,attr"`
	MinValue   *float64 `xml:"minValue,attr"`
	MaxValue   *float64 `xml:"maxValue,attr"`
	StartValue *float64 `xml:"startValue,attr"`
	EndValue   *float64 `xml:"endValue,attr"`
	Decimals   int      `xml:"decimals,attr"`
	Pattern    string   `xml:"pattern,attr"`
	IsSequence bool     `xml:"isSequence,attr"`
}

func (t *textFormatXML) facets() *sdmx.Facets {
	if t == nil {
		return nil
	}
	f := &sdmx.Facets{
		MinLength:  t.MinLength,
		MaxLength:  t.MaxLength,
		MinValue:   t.MinValue,
		MaxValue:   t.MaxValue,
		StartValue: t.StartValue,
		EndValue:   t.EndValue,
		Decimals:   t.Decimals,
		Pattern:    t.Pattern,
		IsSequence: t.IsSequence,
	}
	if f.Empty() {
		return nil
	}
	return f
}

func (t *textFormatXML) dtype() sdmx.DataType {
	if t == nil || t.TextType == "" {
		return ""
	}
	return sdmx.ParseDataType(t.TextType)
}

type conceptSchemeXML struct {
	maintainableXML
	Concepts []conceptXML `xml:"Concept"`
}

func (c conceptSchemeXML) model() (*sdmx.ConceptScheme, error) {
	base, err := c.artefact("ConceptScheme")
	if err != nil {
		return nil, err
	}
	cs := &sdmx.ConceptScheme{MaintainableArtefact: base, IsPartial: c.IsPartial}
	for _, it := range c.Concepts {
		parent, err := parentID(it.Parent)
		if err != nil {
			return nil, err
		}
		concept := sdmx.Concept{
			ID:          it.ID,
			Name:        pickText(it.Names),
			Description: pickText(it.Descriptions),
			Annotations: it.Annotations.model(),
			Parent:      parent,
		}
		if it.Core != nil {
			concept.DType = it.Core.TextFormat.dtype()
			concept.Facets = it.Core.TextFormat.facets()
			if it.Core.Enumeration != nil && !it.Core.Enumeration.empty() {
				ref, err := it.Core.Enumeration.reference("Codelist")
				if err != nil {
					return nil, err
				}
				concept.EnumRef = ref.ShortURN()
			}
		}
		cs.Items = append(cs.Items, concept)
	}
	if err := sdmx.CheckConceptParentLinks(cs.ShortURN(), cs.Items); err != nil {
		return nil, sdmxerrors.Validationf("ConceptScheme", "%v", err)
	}
	return cs, nil
}

type componentXML struct {
	ID              string             `xml:"id,attr"`
	Position        int                `xml:"position,attr"`
	ConceptIdentity refContainer       `xml:"ConceptIdentity"`
	Local           *representationXML `xml:"LocalRepresentation"`
	Descriptions    []textXML          `xml:"Description"`
}

type attributeXML struct {
	componentXML
	AssignmentStatus string `xml:"assignmentStatus,attr"`
	Usage            string `xml:"usage,attr"`
	Relationship     *struct {
		Dimensions     []refContainer `xml:"Dimension"`
		PrimaryMeasure *refContainer  `xml:"PrimaryMeasure"`
		Observation    *struct{}      `xml:"Observation"`
		None           *struct{}      `xml:"None"`
		Dataflow       *struct{}      `xml:"Dataflow"`
	} `xml:"AttributeRelationship"`
}

type dataStructureXML struct {
	maintainableXML
	Components struct {
		DimensionList struct {
			Dimensions     []componentXML `xml:"Dimension"`
			TimeDimensions []componentXML `xml:"TimeDimension"`
		} `xml:"DimensionList"`
		MeasureList struct {
			PrimaryMeasures []componentXML `xml:"PrimaryMeasure"`
			Measures        []componentXML `xml:"Measure"`
		} `xml:"MeasureList"`
		AttributeList struct {
			Attributes []attributeXML `xml:"Attribute"`
		} `xml:"AttributeList"`
	} `xml:"DataStructureComponents"`
}

func (d dataStructureXML) model() (*sdmx.DataStructure, error) {
	base, err := d.artefact("DataStructure")
	if err != nil {
		return nil, err
	}
	dsd := &sdmx.DataStructure{MaintainableArtefact: base}

	// Dimensions in positional order, the time dimension last.
	dims := make([]componentXML, len(d.Components.DimensionList.Dimensions))
	copy(dims, d.Components.DimensionList.Dimensions)
	sort.SliceStable(dims, func(i, j int) bool { return dims[i].Position < dims[j].Position })
	dims = append(dims, d.Components.DimensionList.TimeDimensions...)
	for _, raw := range dims {
		def, err := raw.def(sdmx.RoleDimension)
		if err != nil {
			return nil, err
		}
		def.Required = true
		dsd.Components = append(dsd.Components, def)
	}

	measures := append(d.Components.MeasureList.PrimaryMeasures, d.Components.MeasureList.Measures...)
	for _, raw := range measures {
		def, err := raw.def(sdmx.RoleMeasure)
		if err != nil {
			return nil, err
		}
		def.Required = true
		dsd.Components = append(dsd.Components, def)
	}

	for _, raw := range d.Components.AttributeList.Attributes {
		def, err := raw.def(sdmx.RoleAttribute)
		if err != nil {
			return nil, err
		}
		def.Required = raw.AssignmentStatus == "Mandatory" || raw.Usage == "mandatory"
		def.AttachmentLevel, err = raw.attachment()
		if err != nil {
			return nil, err
		}
		dsd.Components = append(dsd.Components, def)
	}
	return dsd, nil
}

func (c componentXML) def(role sdmx.Role) (sdmx.ComponentDef, error) {
	conceptRef, err := c.ConceptIdentity.reference("Concept")
	if err != nil {
		return sdmx.ComponentDef{}, err
	}
	id := c.ID
	if id == "" {
		id = conceptRef.ItemID
	}
	def := sdmx.ComponentDef{
		ID:          id,
		Role:        role,
		ConceptRef:  conceptRef.ShortURN(),
		Description: pickText(c.Descriptions),
	}
	if c.Local != nil {
		if c.Local.Enumeration != nil && !c.Local.Enumeration.empty() {
			ref, err := c.Local.Enumeration.reference("Codelist")
			if err != nil {
				return sdmx.ComponentDef{}, err
			}
			def.Enumeration = ref.ShortURN()
			def.Facets = c.Local.EnumerationFormat.facets()
			def.DType = c.Local.EnumerationFormat.dtype()
		} else {
			def.Facets = c.Local.TextFormat.facets()
			def.DType = c.Local.TextFormat.dtype()
		}
		if c.Local.MinOccurs != nil || c.Local.MaxOccurs != nil {
			ad := &sdmx.ArrayDef{}
			if c.Local.MinOccurs != nil {
				ad.MinSize = *c.Local.MinOccurs
			}
			if c.Local.MaxOccurs != nil {
				ad.MaxSize = *c.Local.MaxOccurs
			}
			def.ArrayDef = ad
		}
	}
	return def, nil
}

// attachment derives the attachment level from the attribute
// relationship: dataset level for None or Dataflow, observation level for
// PrimaryMeasure or Observation, a comma-joined dimension list otherwise.
func (a attributeXML) attachment() (string, error) {
	rel := a.Relationship
	if rel == nil || rel.None != nil || rel.Dataflow != nil {
		return sdmx.AttachDataset, nil
	}
	if rel.PrimaryMeasure != nil || rel.Observation != nil {
		return sdmx.AttachObservation, nil
	}
	level := ""
	for _, d := range rel.Dimensions {
		var id string
		if d.Ref != nil {
			id = d.Ref.ID
		} else {
			ref, err := d.reference("Dimension")
			if err != nil {
				return "", err
			}
			id = ref.ItemID
			if id == "" {
				id = ref.ID
			}
		}
		if level != "" {
			level += ","
		}
		level += id
	}
	return level, nil
}

type dataflowXML struct {
	maintainableXML
	Structure refContainer `xml:"Structure"`
}

func (d dataflowXML) model() (*sdmx.Dataflow, error) {
	base, err := d.artefact("Dataflow")
	if err != nil {
		return nil, err
	}
	df := &sdmx.Dataflow{MaintainableArtefact: base}
	if !d.Structure.empty() {
		ref, err := d.Structure.reference("DataStructure")
		if err != nil {
			return nil, err
		}
		df.Structure = ref.ShortURN()
	}
	return df, nil
}

type provisionAgreementXML struct {
	maintainableXML
	StructureUsage refContainer `xml:"StructureUsage"`
	DataProvider   refContainer `xml:"DataProvider"`
}

func (p provisionAgreementXML) model() (*sdmx.ProvisionAgreement, error) {
	base, err := p.artefact("ProvisionAgreement")
	if err != nil {
		return nil, err
	}
	pa := &sdmx.ProvisionAgreement{MaintainableArtefact: base}
	if !p.StructureUsage.empty() {
		ref, err := p.StructureUsage.reference("Dataflow")
		if err != nil {
			return nil, err
		}
		pa.Dataflow = ref.ShortURN()
	}
	if !p.DataProvider.empty() {
		ref, err := p.DataProvider.reference("DataProvider")
		if err != nil {
			return nil, err
		}
		pa.Provider = ref.ShortURN()
	}
	return pa, nil
}

type hierarchicalCodeXML struct {
	ID       string                `xml:"id,attr"`
	Names    []textXML             `xml:"Name"`
	Code     refContainer          `xml:"Code"`
	Children []hierarchicalCodeXML `xml:"HierarchicalCode"`
}

func (h hierarchicalCodeXML) model() (sdmx.HierarchicalCode, error) {
	node := sdmx.HierarchicalCode{ID: h.ID, Name: pickText(h.Names)}
	if !h.Code.empty() {
		ref, err := h.Code.reference("Code")
		if err != nil {
			return sdmx.HierarchicalCode{}, err
		}
		node.CodeRef = ref.ShortURN()
	}
	for _, child := range h.Children {
		c, err := child.model()
		if err != nil {
			return sdmx.HierarchicalCode{}, err
		}
		node.Codes = append(node.Codes, c)
	}
	return node, nil
}

type hierarchyXML struct {
	maintainableXML
	Codes []hierarchicalCodeXML `xml:"HierarchicalCode"`
}

func (h hierarchyXML) model() (*sdmx.Hierarchy, error) {
	base, err := h.artefact("Hierarchy")
	if err != nil {
		return nil, err
	}
	out := &sdmx.Hierarchy{MaintainableArtefact: base}
	for _, raw := range h.Codes {
		node, err := raw.model()
		if err != nil {
			return nil, err
		}
		out.Codes = append(out.Codes, node)
	}
	return out, nil
}

type hierarchyAssociationXML struct {
	maintainableXML
	LinkedHierarchy refContainer `xml:"LinkedHierarchy"`
	LinkedObject    refContainer `xml:"LinkedObject"`
	ContextObject   refContainer `xml:"ContextObject"`
	Operator        struct {
		URN   string `xml:"URN"`
		Value string `xml:",chardata"`
	} `xml:"Operator"`
}

func (h hierarchyAssociationXML) model() (*sdmx.HierarchyAssociation, error) {
	base, err := h.artefact("HierarchyAssociation")
	if err != nil {
		return nil, err
	}
	operator := h.Operator.URN
	if operator == "" {
		operator = strings.TrimSpace(h.Operator.Value)
	}
	ha := &sdmx.HierarchyAssociation{MaintainableArtefact: base, Operator: operator}
	if !h.LinkedHierarchy.empty() {
		ref, err := h.LinkedHierarchy.reference("Hierarchy")
		if err != nil {
			return nil, err
		}
		ha.HierarchyRef = ref.ShortURN()
	}
	if !h.LinkedObject.empty() {
		ref, err := h.LinkedObject.reference("Dimension")
		if err != nil {
			return nil, err
		}
		ha.ComponentRef = ref.ShortURN()
	}
	if !h.ContextObject.empty() {
		ref, err := h.ContextObject.reference("Dataflow")
		if err != nil {
			return nil, err
		}
		ha.ContextRef = ref.ShortURN()
	}
	return ha, nil
}

type constraintXML struct {
	maintainableXML
	Attachment struct {
		Dataflow           refContainer `xml:"Dataflow"`
		DataStructure      refContainer `xml:"DataStructure"`
		ProvisionAgreement refContainer `xml:"ProvisionAgreement"`
	} `xml:"ConstraintAttachment"`
	CubeRegions []struct {
		Include   string `xml:"include,attr"`
		KeyValues []struct {
			ID     string   `xml:"id,attr"`
			Values []string `xml:"Value"`
		} `xml:"KeyValue"`
	} `xml:"CubeRegion"`
}

func (c constraintXML) model() (*sdmx.ContentConstraint, error) {
	base, err := c.artefact("ContentConstraint")
	if err != nil {
		return nil, err
	}
	cc := &sdmx.ContentConstraint{MaintainableArtefact: base, CubeRegion: map[string][]string{}}
	switch {
	case !c.Attachment.Dataflow.empty():
		ref, err := c.Attachment.Dataflow.reference("Dataflow")
		if err != nil {
			return nil, err
		}
		cc.Attachment = ref.ShortURN()
	case !c.Attachment.DataStructure.empty():
		ref, err := c.Attachment.DataStructure.reference("DataStructure")
		if err != nil {
			return nil, err
		}
		cc.Attachment = ref.ShortURN()
	case !c.Attachment.ProvisionAgreement.empty():
		ref, err := c.Attachment.ProvisionAgreement.reference("ProvisionAgreement")
		if err != nil {
			return nil, err
		}
		cc.Attachment = ref.ShortURN()
	}
	for _, region := range c.CubeRegions {
		if region.Include == "false" {
			continue
		}
		for _, kv := range region.KeyValues {
			cc.CubeRegion[kv.ID] = append(cc.CubeRegion[kv.ID], kv.Values...)
		}
	}
	return cc, nil
}
