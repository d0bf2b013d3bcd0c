package jsonreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstats/sdmx/sdmxerrors"
)

const structureDocument = `{
  "data": {
    "codelists": [
      {
        "id": "CL_FREQ",
        "agencyID": "SDMX",
        "version": "2.0",
        "name": "Frequency",
        "codes": [
          {"id": "A", "name": "Annual"},
          {"id": "M", "name": "Monthly", "parent": "A"}
        ]
      }
    ],
    "valuelists": [
      {
        "id": "VL_CURRENCY",
        "agencyID": "ESTAT",
        "version": "1.0.0",
        "codes": [{"id": "EUR"}, {"id": "USD"}]
      }
    ],
    "conceptSchemes": [
      {
        "id": "STANDALONE_CS",
        "agencyID": "BIS",
        "version": "1.0",
        "concepts": [{"id": "FREQ", "name": "Frequency"}]
      }
    ],
    "dataflows": [
      {
        "id": "CBS",
        "agencyID": "BIS",
        "version": "1.0",
        "structure": "DataStructure=BIS:BIS_CBS(1.0)"
      }
    ]
  }
}`

func TestReadStructureDocument(t *testing.T) {
	msg, err := Read([]byte(structureDocument))
	require.NoError(t, err)

	require.Len(t, msg.Codelists, 2)
	cl := msg.Codelists["Codelist=SDMX:CL_FREQ(2.0)"]
	require.NotNil(t, cl)
	assert.Equal(t, "Frequency", cl.Name)
	assert.Equal(t, "A", cl.Item("M").Parent)

	vl := msg.Codelists["ValueList=ESTAT:VL_CURRENCY(1.0.0)"]
	require.NotNil(t, vl)
	assert.Equal(t, "valuelist", vl.SdmxType)
	assert.Equal(t, 2, vl.Len())

	cs := msg.Concepts["ConceptScheme=BIS:STANDALONE_CS(1.0)"]
	require.NotNil(t, cs)
	require.NotNil(t, cs.Item("FREQ"))

	df := msg.Dataflows["Dataflow=BIS:CBS(1.0)"]
	require.NotNil(t, df)
	assert.Equal(t, "DataStructure=BIS:BIS_CBS(1.0)", df.Structure)
}

func TestReadDefaultsVersion(t *testing.T) {
	payload := `{"data": {"codelists": [{"id": "CL_X", "agencyID": "T"}]}}`
	msg, err := Read([]byte(payload))
	require.NoError(t, err)
	assert.Contains(t, msg.Codelists, "Codelist=T:CL_X(1.0)")
}

func TestReadMissingID(t *testing.T) {
	payload := `{"data": {"codelists": [{"agencyID": "T"}]}}`
	_, err := Read([]byte(payload))
	var vErr *sdmxerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "missing mandatory field id")
}

func TestReadDanglingParent(t *testing.T) {
	payload := `{"data": {"codelists": [
      {"id": "CL_X", "agencyID": "T", "version": "1.0",
       "codes": [{"id": "A", "parent": "MISSING"}]}
    ]}}`
	_, err := Read([]byte(payload))
	var vErr *sdmxerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "dangling parent reference")
}

func TestReadDanglingConceptParent(t *testing.T) {
	payload := `{"data": {"conceptSchemes": [
      {"id": "CS", "agencyID": "T", "version": "1.0",
       "concepts": [{"id": "GDP", "parent": "MISSING"}]}
    ]}}`
	_, err := Read([]byte(payload))
	var vErr *sdmxerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "dangling parent reference")
}

func TestReadMalformedDocument(t *testing.T) {
	_, err := Read([]byte(`{not json`))
	var pErr *sdmxerrors.ParseError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, pErr.Error(), "malformed SDMX-JSON")
}

func TestReadEmptyDocument(t *testing.T) {
	msg, err := Read([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, msg.ContentTypes())
}
