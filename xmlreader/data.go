package xmlreader

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
)

// The data path is token-streamed: series and observations are decoded
// one element at a time, so peak memory is bounded by the widest series
// rather than the payload size.

type dataHeaderXML struct {
	Structures []struct {
		StructureID            string        `xml:"structureID,attr"`
		DimensionAtObservation string        `xml:"dimensionAtObservation,attr"`
		Structure              *refContainer `xml:"Structure"`
		StructureUsage         *refContainer `xml:"StructureUsage"`
		ProvisionAgrement      *refContainer `xml:"ProvisionAgrement"`
	} `xml:"Structure"`
	Action string `xml:"DataSetAction"`
}

type headerStructure struct {
	shortURN     string
	obsDimension string
}

type genericValueXML struct {
	ID    string `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

type genericObsXML struct {
	ObsDimension *struct {
		ID    string `xml:"id,attr"`
		Value string `xml:"value,attr"`
	} `xml:"ObsDimension"`
	ObsKey *struct {
		Values []genericValueXML `xml:"Value"`
	} `xml:"ObsKey"`
	ObsValue *struct {
		Value string `xml:"value,attr"`
	} `xml:"ObsValue"`
	Attributes struct {
		Values []genericValueXML `xml:"Value"`
	} `xml:"Attributes"`
}

type genericSeriesXML struct {
	SeriesKey struct {
		Values []genericValueXML `xml:"Value"`
	} `xml:"SeriesKey"`
	Attributes struct {
		Values []genericValueXML `xml:"Value"`
	} `xml:"Attributes"`
	Obs []genericObsXML `xml:"Obs"`
}

type cell struct {
	col string
	val string
}

// tableBuilder accumulates rows, growing the column set as new ids
// appear. Earlier rows are padded so every row has one value per column.
type tableBuilder struct {
	shortURN string
	action   sdmx.ActionType
	cols     []string
	index    map[string]int
	rows     [][]string
}

func newTableBuilder(shortURN string) *tableBuilder {
	return &tableBuilder{shortURN: shortURN, index: map[string]int{}}
}

func (b *tableBuilder) add(cells []cell) {
	row := make([]string, len(b.cols))
	for _, c := range cells {
		i, ok := b.index[c.col]
		if !ok {
			i = len(b.cols)
			b.cols = append(b.cols, c.col)
			b.index[c.col] = i
			for ri := range b.rows {
				b.rows[ri] = append(b.rows[ri], "")
			}
			row = append(row, "")
		}
		row[i] = c.val
	}
	b.rows = append(b.rows, row)
}

func (b *tableBuilder) dataset() *sdmx.Dataset {
	return &sdmx.Dataset{
		Structure: b.shortURN,
		Action:    b.action,
		Columns:   b.cols,
		Rows:      b.rows,
	}
}

func (r *Reader) parseData(data []byte, mode Mode) (map[string]*sdmx.Dataset, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	structures := map[string]headerStructure{}
	builders := map[string]*tableBuilder{}
	var order []string
	headerAction := sdmx.ActionType("")

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, sdmxerrors.Parsef("malformed data message: %v", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "Header":
			var header dataHeaderXML
			if err := dec.DecodeElement(&header, &start); err != nil {
				return nil, sdmxerrors.Parsef("malformed data message header: %v", err)
			}
			if header.Action != "" {
				action, err := sdmx.ParseActionType(header.Action)
				if err != nil {
					return nil, sdmxerrors.Validationf("ACTION", "must have proper values on ACTION column")
				}
				headerAction = action
			}
			for _, hs := range header.Structures {
				if hs.ProvisionAgrement != nil {
					return nil, &sdmxerrors.UnsupportedConstructError{Construct: "ProvisionAgrement"}
				}
				var rc *refContainer
				class := "DataStructure"
				if hs.StructureUsage != nil {
					rc = hs.StructureUsage
					class = "Dataflow"
				} else if hs.Structure != nil {
					rc = hs.Structure
				}
				if rc == nil {
					return nil, sdmxerrors.Parsef("header structure %q without structure reference", hs.StructureID)
				}
				ref, err := rc.reference(class)
				if err != nil {
					return nil, err
				}
				obsDim := hs.DimensionAtObservation
				if obsDim == "" || obsDim == "AllDimensions" {
					obsDim = "TIME_PERIOD"
				}
				structures[hs.StructureID] = headerStructure{
					shortURN:     ref.ShortURN(),
					obsDimension: obsDim,
				}
			}
		case "DataSet":
			structureRef := attrValue(start, "structureRef")
			hs, ok := structures[structureRef]
			if !ok {
				return nil, sdmxerrors.Validationf("DataSet",
					"cannot find the structure reference of this dataset:%s", structureRef)
			}
			builder, ok := builders[hs.shortURN]
			if !ok {
				builder = newTableBuilder(hs.shortURN)
				builder.action = headerAction
				builders[hs.shortURN] = builder
				order = append(order, hs.shortURN)
			}
			if action := attrValue(start, "action"); action != "" {
				parsed, err := sdmx.ParseActionType(action)
				if err != nil {
					return nil, sdmxerrors.Validationf("ACTION", "must have proper values on ACTION column")
				}
				builder.action = parsed
			}
			if err := r.parseDataSet(dec, start, mode, hs, builder); err != nil {
				return nil, err
			}
		}
	}

	out := make(map[string]*sdmx.Dataset, len(builders))
	for _, key := range order {
		out[key] = builders[key].dataset()
		r.log.Debug().Str("structure", key).
			Int("rows", len(out[key].Rows)).
			Int("columns", len(out[key].Columns)).
			Msg("Parsed dataset")
	}
	return out, nil
}

// parseDataSet consumes tokens until the matching DataSet end element,
// emitting one row per observation whatever the wire layout (series or
// flat) so both layouts produce row-equivalent output.
func (r *Reader) parseDataSet(dec *xml.Decoder, parent xml.StartElement, mode Mode, hs headerStructure, builder *tableBuilder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return sdmxerrors.Parsef("malformed dataset: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Series":
				if mode == ModeGenericData {
					if err := r.genericSeries(dec, t, hs, builder); err != nil {
						return err
					}
				} else {
					if err := r.specificSeries(dec, t, builder); err != nil {
						return err
					}
				}
			case "Obs":
				if mode == ModeGenericData {
					var obs genericObsXML
					if err := dec.DecodeElement(&obs, &t); err != nil {
						return sdmxerrors.Parsef("malformed observation: %v", err)
					}
					builder.add(genericObsCells(nil, obs, hs.obsDimension))
				} else {
					builder.add(attrCells(t, nil))
				}
			default:
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == parent.Name.Local && depth == 0 {
				return nil
			}
			if depth > 0 {
				depth--
			}
		}
	}
}

func (r *Reader) genericSeries(dec *xml.Decoder, start xml.StartElement, hs headerStructure, builder *tableBuilder) error {
	var series genericSeriesXML
	if err := dec.DecodeElement(&series, &start); err != nil {
		return sdmxerrors.Parsef("malformed series: %v", err)
	}
	base := make([]cell, 0, len(series.SeriesKey.Values)+len(series.Attributes.Values))
	for _, v := range series.SeriesKey.Values {
		base = append(base, cell{col: v.ID, val: v.Value})
	}
	for _, v := range series.Attributes.Values {
		base = append(base, cell{col: v.ID, val: v.Value})
	}
	for _, obs := range series.Obs {
		builder.add(genericObsCells(base, obs, hs.obsDimension))
	}
	return nil
}

func genericObsCells(base []cell, obs genericObsXML, obsDimension string) []cell {
	cells := make([]cell, 0, len(base)+4)
	cells = append(cells, base...)
	if obs.ObsKey != nil {
		for _, v := range obs.ObsKey.Values {
			cells = append(cells, cell{col: v.ID, val: v.Value})
		}
	}
	if obs.ObsDimension != nil {
		col := obs.ObsDimension.ID
		if col == "" {
			col = obsDimension
		}
		cells = append(cells, cell{col: col, val: obs.ObsDimension.Value})
	}
	if obs.ObsValue != nil {
		cells = append(cells, cell{col: "OBS_VALUE", val: obs.ObsValue.Value})
	}
	for _, v := range obs.Attributes.Values {
		cells = append(cells, cell{col: v.ID, val: v.Value})
	}
	return cells
}

func (r *Reader) specificSeries(dec *xml.Decoder, start xml.StartElement, builder *tableBuilder) error {
	base := attrCells(start, nil)
	for {
		tok, err := dec.Token()
		if err != nil {
			return sdmxerrors.Parsef("malformed series: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Obs" {
				builder.add(attrCells(t, base))
				if err := dec.Skip(); err != nil {
					return sdmxerrors.Parsef("malformed observation: %v", err)
				}
			} else {
				if err := dec.Skip(); err != nil {
					return sdmxerrors.Parsef("malformed series: %v", err)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "Series" {
				return nil
			}
		}
	}
}

// attrCells turns the element attributes into cells, skipping namespaced
// attributes (xsi:type and friends) and the structural bookkeeping ones.
func attrCells(start xml.StartElement, base []cell) []cell {
	cells := make([]cell, 0, len(base)+len(start.Attr))
	cells = append(cells, base...)
	for _, attr := range start.Attr {
		if attr.Name.Space != "" {
			continue
		}
		switch attr.Name.Local {
		case "structureRef", "action", "dataScope", "xmlns":
			continue
		}
		cells = append(cells, cell{col: attr.Name.Local, val: attr.Value})
	}
	return cells
}

func attrValue(start xml.StartElement, name string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
