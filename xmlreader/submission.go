package xmlreader

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
	"github.com/openstats/sdmx/urn"
)

// The registry-interface sub-path only extracts (action, urn, status)
// triples; it never touches the general artefact table.

type registryInterfaceXML struct {
	XMLName  xml.Name `xml:"RegistryInterface"`
	Response *struct {
		Results []struct {
			Submitted struct {
				Action       string `xml:"action,attr"`
				Maintainable struct {
					URN string `xml:"URN"`
				} `xml:"MaintainableObject"`
			} `xml:"SubmittedStructure"`
			StatusMessage struct {
				Status string `xml:"status,attr"`
			} `xml:"StatusMessage"`
		} `xml:"SubmissionResult"`
	} `xml:"SubmitStructureResponse"`
}

func (r *Reader) parseSubmission(data []byte) (map[string]sdmx.SubmissionResult, error) {
	var doc registryInterfaceXML
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, sdmxerrors.Parsef("malformed registry interface message: %v", err)
	}
	if doc.Response == nil {
		return nil, sdmxerrors.Parsef("registry interface message without SubmitStructureResponse")
	}

	out := make(map[string]sdmx.SubmissionResult, len(doc.Response.Results))
	for _, res := range doc.Response.Results {
		ref, err := urn.Parse(strings.TrimSpace(res.Submitted.Maintainable.URN))
		if err != nil {
			return nil, err
		}
		shortURN := urn.Reference{
			SdmxType: ref.SdmxType,
			Agency:   ref.Agency,
			ID:       ref.ID,
			Version:  ref.Version,
		}.ShortURN()
		out[shortURN] = sdmx.SubmissionResult{
			Action:   res.Submitted.Action,
			ShortURN: shortURN,
			Status:   res.StatusMessage.Status,
		}
	}
	r.log.Debug().Int("results", len(out)).Msg("Parsed submission response")
	return out, nil
}

type errorDocXML struct {
	XMLName  xml.Name `xml:"Error"`
	Messages []struct {
		Code  int       `xml:"code,attr"`
		Texts []textXML `xml:"Text"`
	} `xml:"ErrorMessage"`
}

// parseError turns a registry error payload into a RegistryError carrying
// the numeric status and title verbatim.
func (r *Reader) parseError(data []byte) error {
	var doc errorDocXML
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return sdmxerrors.Parsef("malformed error message: %v", err)
	}
	if len(doc.Messages) == 0 {
		return sdmxerrors.Parsef("error message without ErrorMessage element")
	}
	first := doc.Messages[0]
	return &sdmxerrors.RegistryError{Status: first.Code, Title: pickText(first.Texts)}
}
