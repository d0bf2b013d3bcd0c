// Package csvreader parses SDMX-CSV payloads into tabular datasets, one
// per distinct structure reference. Both column conventions are handled:
// the 1.0 generation (leading DATAFLOW column) and the 2.0 generation
// (leading STRUCTURE and STRUCTURE_ID columns, optional ACTION).
package csvreader

import (
	"encoding/csv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
	"github.com/openstats/sdmx/urn"
)

// Bookkeeping columns, dropped from the emitted datasets.
const (
	colStructure   = "STRUCTURE"
	colStructureID = "STRUCTURE_ID"
	colAction      = "ACTION"
	colDataflow    = "DATAFLOW"
)

var structureClasses = map[string]string{
	"dataflow":           "Dataflow",
	"datastructure":      "DataStructure",
	"provisionagreement": "ProvisionAgreement",
}

// Reader parses SDMX-CSV payloads. It keeps no state between calls.
type Reader struct {
	log zerolog.Logger
}

// NewReader returns a Reader logging through the given logger.
func NewReader(log zerolog.Logger) *Reader {
	return &Reader{log: log}
}

// Read parses an SDMX-CSV payload with a no-op logger.
func Read(data []byte) (map[string]*sdmx.Dataset, error) {
	return NewReader(zerolog.Nop()).Read(data)
}

// Read detects the CSV generation from the header row and parses the
// payload into one dataset per structure, keyed by short URN.
func (r *Reader) Read(data []byte) (map[string]*sdmx.Dataset, error) {
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, sdmxerrors.Parsef("malformed CSV: %v", err)
	}
	if len(records) < 2 {
		return nil, sdmxerrors.Parsef("CSV payload without data rows")
	}
	header := records[0]
	switch {
	case len(header) >= 2 && header[0] == colStructure && header[1] == colStructureID:
		return r.readV2(header, records[1:])
	case len(header) >= 1 && header[0] == colDataflow:
		return r.readV1(header, records[1:])
	default:
		return nil, sdmxerrors.Parsef("invalid SDMX-CSV 2.0 message: unexpected header %q", strings.Join(header, ","))
	}
}

type csvBuilder struct {
	shortURN string
	actions  []sdmx.ActionType
	columns  []string
	colIdx   []int // indices into the source record
	rows     [][]string
}

func (b *csvBuilder) dataset() (*sdmx.Dataset, error) {
	if len(b.actions) > 1 {
		return nil, sdmxerrors.Validationf(colAction, "cannot have more than one value on ACTION column")
	}
	ds := &sdmx.Dataset{Structure: b.shortURN, Columns: b.columns, Rows: b.rows}
	if len(b.actions) == 1 {
		ds.Action = b.actions[0]
	}
	return ds, nil
}

func (r *Reader) readV2(header []string, rows [][]string) (map[string]*sdmx.Dataset, error) {
	actionIdx := -1
	dataStart := 2
	if len(header) > 2 && header[2] == colAction {
		actionIdx = 2
		dataStart = 3
	}
	dataCols := header[dataStart:]

	builders := map[string]*csvBuilder{}
	var order []string
	for _, row := range rows {
		if len(row) != len(header) {
			return nil, sdmxerrors.Parsef("invalid SDMX-CSV 2.0 message: row has %d fields, header has %d", len(row), len(header))
		}
		class, ok := structureClasses[strings.ToLower(row[0])]
		if !ok {
			return nil, sdmxerrors.Validationf(colStructure, "must have proper values on STRUCTURE column")
		}
		shortURN, err := structureURN(class, row[1])
		if err != nil {
			return nil, err
		}
		builder, ok := builders[shortURN]
		if !ok {
			cols := make([]string, len(dataCols))
			copy(cols, dataCols)
			idx := make([]int, len(dataCols))
			for i := range idx {
				idx[i] = dataStart + i
			}
			builder = &csvBuilder{shortURN: shortURN, columns: cols, colIdx: idx}
			builders[shortURN] = builder
			order = append(order, shortURN)
		}
		if actionIdx >= 0 {
			action, err := sdmx.ParseActionType(row[actionIdx])
			if err != nil {
				return nil, sdmxerrors.Validationf(colAction, "must have proper values on ACTION column")
			}
			if !slices.Contains(builder.actions, action) {
				builder.actions = append(builder.actions, action)
			}
		}
		builder.appendRow(row)
	}
	return r.collect(order, builders)
}

func (r *Reader) readV1(header []string, rows [][]string) (map[string]*sdmx.Dataset, error) {
	actionIdx := -1
	var dataCols []string
	var dataIdx []int
	for i, col := range header[1:] {
		if col == colAction {
			actionIdx = i + 1
			continue
		}
		dataCols = append(dataCols, col)
		dataIdx = append(dataIdx, i+1)
	}

	builders := map[string]*csvBuilder{}
	var order []string
	for _, row := range rows {
		if len(row) != len(header) {
			return nil, sdmxerrors.Parsef("invalid SDMX-CSV 1.0 message: row has %d fields, header has %d", len(row), len(header))
		}
		shortURN, err := structureURN("Dataflow", row[0])
		if err != nil {
			return nil, err
		}
		builder, ok := builders[shortURN]
		if !ok {
			builder = &csvBuilder{shortURN: shortURN, columns: dataCols, colIdx: dataIdx}
			builders[shortURN] = builder
			order = append(order, shortURN)
		}
		if actionIdx >= 0 {
			action, err := sdmx.ParseActionType(row[actionIdx])
			if err != nil {
				return nil, sdmxerrors.Validationf(colAction, "must have proper values on ACTION column")
			}
			if !slices.Contains(builder.actions, action) {
				builder.actions = append(builder.actions, action)
			}
		}
		builder.appendRow(row)
	}
	return r.collect(order, builders)
}

func (b *csvBuilder) appendRow(record []string) {
	row := make([]string, len(b.colIdx))
	for i, src := range b.colIdx {
		row[i] = record[src]
	}
	b.rows = append(b.rows, row)
}

func (r *Reader) collect(order []string, builders map[string]*csvBuilder) (map[string]*sdmx.Dataset, error) {
	out := make(map[string]*sdmx.Dataset, len(builders))
	for _, key := range order {
		ds, err := builders[key].dataset()
		if err != nil {
			return nil, err
		}
		out[key] = ds
		r.log.Debug().Str("structure", key).Int("rows", len(ds.Rows)).Msg("Parsed CSV dataset")
	}
	return out, nil
}

// structureURN builds the short URN for a STRUCTURE_ID (or v1 DATAFLOW)
// value of the form agency:id(version), optionally followed by :itemID.
func structureURN(class, value string) (string, error) {
	ref, err := urn.Parse(class + "=" + strings.TrimSpace(value))
	if err != nil {
		return "", sdmxerrors.Validationf(colStructureID, "cannot parse structure identifier %q", value)
	}
	return ref.ShortURN(), nil
}
