// Package jsonreader parses SDMX-JSON 2.0 structure messages (codelists,
// concept schemes, dataflows) into the artefact model. Data messages are
// not part of this reader's surface.
package jsonreader

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
)

type jsonCode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parent      string `json:"parent"`
}

type jsonCodelist struct {
	ID          string     `json:"id"`
	Agency      string     `json:"agencyID"`
	Version     string     `json:"version"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsPartial   bool       `json:"isPartial"`
	Codes       []jsonCode `json:"codes"`
}

type jsonConcept struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parent      string `json:"parent"`
}

type jsonConceptScheme struct {
	ID          string        `json:"id"`
	Agency      string        `json:"agencyID"`
	Version     string        `json:"version"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	IsPartial   bool          `json:"isPartial"`
	Concepts    []jsonConcept `json:"concepts"`
}

type jsonDataflow struct {
	ID          string `json:"id"`
	Agency      string `json:"agencyID"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Structure   string `json:"structure"`
}

type jsonStructureDoc struct {
	Data struct {
		Codelists      []jsonCodelist      `json:"codelists"`
		ValueLists     []jsonCodelist      `json:"valuelists"`
		ConceptSchemes []jsonConceptScheme `json:"conceptSchemes"`
		Dataflows      []jsonDataflow      `json:"dataflows"`
	} `json:"data"`
}

// Reader parses SDMX-JSON structure payloads.
type Reader struct {
	log zerolog.Logger
}

// NewReader returns a Reader logging through the given logger.
func NewReader(log zerolog.Logger) *Reader {
	return &Reader{log: log}
}

// Read parses an SDMX-JSON structure payload with a no-op logger.
func Read(data []byte) (*sdmx.Message, error) {
	return NewReader(zerolog.Nop()).Read(data)
}

// Read parses the payload into a structure message.
func (r *Reader) Read(data []byte) (*sdmx.Message, error) {
	var doc jsonStructureDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, sdmxerrors.Parsef("malformed SDMX-JSON structure message: %v", err)
	}

	msg := &sdmx.Message{}
	if n := len(doc.Data.Codelists) + len(doc.Data.ValueLists); n > 0 {
		msg.Codelists = make(map[string]*sdmx.Codelist, n)
		for _, raw := range doc.Data.Codelists {
			cl, err := raw.model("codelist")
			if err != nil {
				return nil, err
			}
			msg.Codelists[cl.ShortURN()] = cl
		}
		for _, raw := range doc.Data.ValueLists {
			vl, err := raw.model("valuelist")
			if err != nil {
				return nil, err
			}
			msg.Codelists[vl.ShortURN()] = vl
		}
	}
	if len(doc.Data.ConceptSchemes) > 0 {
		msg.Concepts = make(map[string]*sdmx.ConceptScheme, len(doc.Data.ConceptSchemes))
		for _, raw := range doc.Data.ConceptSchemes {
			cs, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.Concepts[cs.ShortURN()] = cs
		}
	}
	if len(doc.Data.Dataflows) > 0 {
		msg.Dataflows = make(map[string]*sdmx.Dataflow, len(doc.Data.Dataflows))
		for _, raw := range doc.Data.Dataflows {
			df, err := raw.model()
			if err != nil {
				return nil, err
			}
			msg.Dataflows[df.ShortURN()] = df
		}
	}

	r.log.Debug().Strs("content", msg.ContentTypes()).Msg("Parsed SDMX-JSON structure message")
	return msg, nil
}

func artefact(tag, id, agency, version, name, description string) (sdmx.MaintainableArtefact, error) {
	if id == "" {
		return sdmx.MaintainableArtefact{}, sdmxerrors.Validationf(tag, "missing mandatory field id")
	}
	if agency == "" {
		return sdmx.MaintainableArtefact{}, sdmxerrors.Validationf(tag, "missing mandatory field agencyID on %q", id)
	}
	if version == "" {
		version = sdmx.DefaultVersion
	}
	return sdmx.MaintainableArtefact{
		ID:          id,
		Agency:      agency,
		Version:     version,
		Name:        name,
		Description: description,
	}, nil
}

func (j jsonCodelist) model(sdmxType string) (*sdmx.Codelist, error) {
	base, err := artefact("codelist", j.ID, j.Agency, j.Version, j.Name, j.Description)
	if err != nil {
		return nil, err
	}
	cl := &sdmx.Codelist{MaintainableArtefact: base, SdmxType: sdmxType, IsPartial: j.IsPartial}
	for _, c := range j.Codes {
		cl.Items = append(cl.Items, sdmx.Code{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Parent:      c.Parent,
		})
	}
	if err := sdmx.CheckParentLinks(cl.ShortURN(), cl.Items); err != nil {
		return nil, sdmxerrors.Validationf("codelist", "%v", err)
	}
	return cl, nil
}

func (j jsonConceptScheme) model() (*sdmx.ConceptScheme, error) {
	base, err := artefact("conceptScheme", j.ID, j.Agency, j.Version, j.Name, j.Description)
	if err != nil {
		return nil, err
	}
	cs := &sdmx.ConceptScheme{MaintainableArtefact: base, IsPartial: j.IsPartial}
	for _, c := range j.Concepts {
		cs.Items = append(cs.Items, sdmx.Concept{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Parent:      c.Parent,
		})
	}
	if err := sdmx.CheckConceptParentLinks(cs.ShortURN(), cs.Items); err != nil {
		return nil, sdmxerrors.Validationf("conceptScheme", "%v", err)
	}
	return cs, nil
}

func (j jsonDataflow) model() (*sdmx.Dataflow, error) {
	base, err := artefact("dataflow", j.ID, j.Agency, j.Version, j.Name, j.Description)
	if err != nil {
		return nil, err
	}
	return &sdmx.Dataflow{MaintainableArtefact: base, Structure: j.Structure}, nil
}
