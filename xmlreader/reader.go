// Package xmlreader parses SDMX-ML messages: structure messages, registry
// submission and error responses, and generic or structure-specific data
// messages in both the series and the flat layouts.
package xmlreader

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/rs/zerolog"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
)

// Mode is the expected message kind. ModeAuto lets the reader detect the
// kind from the root element; any other value pins it, and a payload of a
// different shape is rejected instead of best-effort parsed.
type Mode int

const (
	ModeAuto Mode = iota
	ModeStructure
	ModeSubmission
	ModeError
	ModeGenericData
	ModeStructureSpecificData
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "Auto"
	case ModeStructure:
		return "Structure"
	case ModeSubmission:
		return "Submission"
	case ModeError:
		return "Error"
	case ModeGenericData:
		return "GenericData"
	case ModeStructureSpecificData:
		return "StructureSpecificData"
	default:
		return "Unknown"
	}
}

// Options control a read. The zero value detects the message kind and
// skips the stricter content checks.
type Options struct {
	Mode     Mode
	Validate bool
}

// Result is the outcome of a read. Exactly one of the three sections is
// populated, matching the message kind.
type Result struct {
	Structures  *sdmx.Message
	Submissions map[string]sdmx.SubmissionResult
	Datasets    map[string]*sdmx.Dataset
}

// Reader parses SDMX-ML payloads. It keeps no state between calls, so a
// single Reader may be used from multiple goroutines.
type Reader struct {
	log zerolog.Logger
}

// NewReader returns a Reader logging through the given logger.
func NewReader(log zerolog.Logger) *Reader {
	return &Reader{log: log}
}

// Read parses an SDMX-ML payload with a no-op logger.
func Read(data []byte, opts Options) (*Result, error) {
	return NewReader(zerolog.Nop()).Read(data, opts)
}

// Read parses the payload according to opts. Registry error payloads are
// surfaced as *sdmxerrors.RegistryError, whatever the Validate flag.
func (r *Reader) Read(data []byte, opts Options) (*Result, error) {
	detected, err := detectMode(data)
	if err != nil {
		return nil, err
	}
	if opts.Mode != ModeAuto && opts.Mode != detected {
		return nil, sdmxerrors.Parsef("unable to parse file as %s message", opts.Mode)
	}

	r.log.Debug().Str("mode", detected.String()).Int("bytes", len(data)).Msg("Reading SDMX-ML message")

	switch detected {
	case ModeStructure:
		msg, err := r.parseStructures(data, opts)
		if err != nil {
			return nil, err
		}
		return &Result{Structures: msg}, nil
	case ModeSubmission:
		subs, err := r.parseSubmission(data)
		if err != nil {
			return nil, err
		}
		return &Result{Submissions: subs}, nil
	case ModeError:
		return nil, r.parseError(data)
	case ModeGenericData, ModeStructureSpecificData:
		ds, err := r.parseData(data, detected)
		if err != nil {
			return nil, err
		}
		return &Result{Datasets: ds}, nil
	default:
		return nil, sdmxerrors.Parsef("unable to parse file as %s message", detected)
	}
}

// detectMode inspects the root element only; cost is independent of the
// payload size.
func detectMode(data []byte) (Mode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return ModeAuto, sdmxerrors.Parsef("empty document")
		}
		if err != nil {
			return ModeAuto, sdmxerrors.Parsef("malformed XML: %v", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "Structure":
			return ModeStructure, nil
		case "RegistryInterface":
			return ModeSubmission, nil
		case "Error":
			return ModeError, nil
		case "GenericData":
			return ModeGenericData, nil
		case "StructureSpecificData", "StructureSpecificTimeSeriesData":
			return ModeStructureSpecificData, nil
		default:
			return ModeAuto, sdmxerrors.Parsef("unsupported root element %q", start.Name.Local)
		}
	}
}
