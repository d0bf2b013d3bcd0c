package xmlreader

import (
	"time"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
	"github.com/openstats/sdmx/urn"
)

// Struct tags below use local names only, so elements match whatever
// namespace prefix the document declares.

type textXML struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

// pickText prefers the English variant, then the first one.
func pickText(texts []textXML) string {
	for _, t := range texts {
		if t.Lang == "en" {
			return t.Value
		}
	}
	if len(texts) > 0 {
		return texts[0].Value
	}
	return ""
}

type annotationXML struct {
	ID    string    `xml:"id,attr"`
	Title string    `xml:"AnnotationTitle"`
	Type  string    `xml:"AnnotationType"`
	URL   string    `xml:"AnnotationURL"`
	Texts []textXML `xml:"AnnotationText"`
}

type annotationsXML struct {
	Annotations []annotationXML `xml:"Annotation"`
}

func (a annotationsXML) model() []sdmx.Annotation {
	if len(a.Annotations) == 0 {
		return nil
	}
	out := make([]sdmx.Annotation, 0, len(a.Annotations))
	for _, ann := range a.Annotations {
		out = append(out, sdmx.Annotation{
			ID:    ann.ID,
			Title: ann.Title,
			Type:  ann.Type,
			URL:   ann.URL,
			Text:  pickText(ann.Texts),
		})
	}
	return out
}

type refXML struct {
	AgencyID                  string `xml:"agencyID,attr"`
	ID                        string `xml:"id,attr"`
	Version                   string `xml:"version,attr"`
	MaintainableParentID      string `xml:"maintainableParentID,attr"`
	MaintainableParentVersion string `xml:"maintainableParentVersion,attr"`
	Class                     string `xml:"class,attr"`
}

// refContainer covers the two reference encodings a message may use: an
// inline Ref element or a URN string. Both resolve to the same Reference.
type refContainer struct {
	Ref *refXML `xml:"Ref"`
	URN string  `xml:"URN"`
}

func (rc refContainer) empty() bool {
	return rc.Ref == nil && rc.URN == ""
}

// reference resolves the container, applying defaultClass when the inline
// form does not name one. Item references (class inside a scheme) use the
// maintainable parent for identity and the id as item id.
func (rc refContainer) reference(defaultClass string) (urn.Reference, error) {
	if rc.URN != "" {
		return urn.Parse(rc.URN)
	}
	if rc.Ref == nil {
		return urn.Reference{}, sdmxerrors.Parsef("empty structure reference")
	}
	class := rc.Ref.Class
	if class == "" {
		class = defaultClass
	}
	version := rc.Ref.Version
	if rc.Ref.MaintainableParentID != "" {
		// Item reference: identity comes from the owning scheme.
		if version == "" {
			version = rc.Ref.MaintainableParentVersion
		}
		if version == "" {
			version = sdmx.DefaultVersion
		}
		return urn.Reference{
			SdmxType: class,
			Agency:   rc.Ref.AgencyID,
			ID:       rc.Ref.MaintainableParentID,
			Version:  version,
			ItemID:   rc.Ref.ID,
		}, nil
	}
	if version == "" {
		version = sdmx.DefaultVersion
	}
	return urn.Reference{
		SdmxType: class,
		Agency:   rc.Ref.AgencyID,
		ID:       rc.Ref.ID,
		Version:  version,
	}, nil
}

type maintainableXML struct {
	ID                  string         `xml:"id,attr"`
	AgencyID            string         `xml:"agencyID,attr"`
	Version             string         `xml:"version,attr"`
	IsFinal             bool           `xml:"isFinal,attr"`
	IsExternalReference bool           `xml:"isExternalReference,attr"`
	IsPartial           bool           `xml:"isPartial,attr"`
	ValidFrom           string         `xml:"validFrom,attr"`
	ValidTo             string         `xml:"validTo,attr"`
	ServiceURL          string         `xml:"serviceURL,attr"`
	StructureURL        string         `xml:"structureURL,attr"`
	Names               []textXML      `xml:"Name"`
	Descriptions        []textXML      `xml:"Description"`
	Annotations         annotationsXML `xml:"Annotations"`
}

// artefact validates the mandatory identity fields and builds the shared
// maintainable part. tag names the element for error messages.
func (m maintainableXML) artefact(tag string) (sdmx.MaintainableArtefact, error) {
	if m.ID == "" {
		return sdmx.MaintainableArtefact{}, sdmxerrors.Validationf(tag, "missing mandatory attribute id")
	}
	if m.AgencyID == "" {
		return sdmx.MaintainableArtefact{}, sdmxerrors.Validationf(tag, "missing mandatory attribute agencyID on %q", m.ID)
	}
	version := m.Version
	if version == "" {
		version = sdmx.DefaultVersion
	}
	out := sdmx.MaintainableArtefact{
		ID:                  m.ID,
		Agency:              m.AgencyID,
		Version:             version,
		Name:                pickText(m.Names),
		Description:         pickText(m.Descriptions),
		Annotations:         m.Annotations.model(),
		IsFinal:             m.IsFinal,
		IsExternalReference: m.IsExternalReference,
		ServiceURL:          m.ServiceURL,
		StructureURL:        m.StructureURL,
	}
	out.ValidFrom = parseTime(m.ValidFrom)
	out.ValidTo = parseTime(m.ValidTo)
	return out, nil
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
