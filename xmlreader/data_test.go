package xmlreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
)

const genericSeriesMessage = `<?xml version="1.0" encoding="UTF-8"?>
<mes:GenericData xmlns:mes="m" xmlns:gen="g" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="TIME_PERIOD">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
    <mes:DataSetAction>Append</mes:DataSetAction>
  </mes:Header>
  <mes:DataSet structureRef="BIS_CBS">
    <gen:Series>
      <gen:SeriesKey>
        <gen:Value id="FREQ" value="A"/>
        <gen:Value id="REF_AREA" value="DE"/>
      </gen:SeriesKey>
      <gen:Attributes>
        <gen:Value id="UNIT" value="USD"/>
      </gen:Attributes>
      <gen:Obs>
        <gen:ObsDimension value="2020"/>
        <gen:ObsValue value="3.14"/>
        <gen:Attributes><gen:Value id="OBS_STATUS" value="A"/></gen:Attributes>
      </gen:Obs>
      <gen:Obs>
        <gen:ObsDimension value="2021"/>
        <gen:ObsValue value="2.71"/>
        <gen:Attributes><gen:Value id="OBS_STATUS" value="E"/></gen:Attributes>
      </gen:Obs>
    </gen:Series>
  </mes:DataSet>
</mes:GenericData>`

const genericFlatMessage = `<?xml version="1.0" encoding="UTF-8"?>
<mes:GenericData xmlns:mes="m" xmlns:gen="g" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="AllDimensions">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
    <mes:DataSetAction>Append</mes:DataSetAction>
  </mes:Header>
  <mes:DataSet structureRef="BIS_CBS">
    <gen:Obs>
      <gen:ObsKey>
        <gen:Value id="FREQ" value="A"/>
        <gen:Value id="REF_AREA" value="DE"/>
        <gen:Value id="TIME_PERIOD" value="2020"/>
      </gen:ObsKey>
      <gen:ObsValue value="3.14"/>
      <gen:Attributes>
        <gen:Value id="UNIT" value="USD"/>
        <gen:Value id="OBS_STATUS" value="A"/>
      </gen:Attributes>
    </gen:Obs>
    <gen:Obs>
      <gen:ObsKey>
        <gen:Value id="FREQ" value="A"/>
        <gen:Value id="REF_AREA" value="DE"/>
        <gen:Value id="TIME_PERIOD" value="2021"/>
      </gen:ObsKey>
      <gen:ObsValue value="2.71"/>
      <gen:Attributes>
        <gen:Value id="UNIT" value="USD"/>
        <gen:Value id="OBS_STATUS" value="E"/>
      </gen:Attributes>
    </gen:Obs>
  </mes:DataSet>
</mes:GenericData>`

const specificSeriesMessage = `<?xml version="1.0" encoding="UTF-8"?>
<mes:StructureSpecificData xmlns:mes="m" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="TIME_PERIOD">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
    <mes:DataSetAction>Append</mes:DataSetAction>
  </mes:Header>
  <mes:DataSet structureRef="BIS_CBS">
    <Series FREQ="A" REF_AREA="DE" UNIT="USD">
      <Obs TIME_PERIOD="2020" OBS_VALUE="3.14" OBS_STATUS="A"/>
      <Obs TIME_PERIOD="2021" OBS_VALUE="2.71" OBS_STATUS="E"/>
    </Series>
  </mes:DataSet>
</mes:StructureSpecificData>`

const specificFlatMessage = `<?xml version="1.0" encoding="UTF-8"?>
<mes:StructureSpecificData xmlns:mes="m" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="AllDimensions">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
    <mes:DataSetAction>Append</mes:DataSetAction>
  </mes:Header>
  <mes:DataSet structureRef="BIS_CBS">
    <Obs FREQ="A" REF_AREA="DE" TIME_PERIOD="2020" OBS_VALUE="3.14" UNIT="USD" OBS_STATUS="A"/>
    <Obs FREQ="A" REF_AREA="DE" TIME_PERIOD="2021" OBS_VALUE="2.71" UNIT="USD" OBS_STATUS="E"/>
  </mes:DataSet>
</mes:StructureSpecificData>`

// rowMaps projects a dataset to column-keyed rows so layouts with
// different column orders can be compared.
func rowMaps(t *testing.T, ds *sdmx.Dataset) []map[string]string {
	t.Helper()
	out := make([]map[string]string, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		require.Len(t, row, len(ds.Columns))
		m := map[string]string{}
		for i, col := range ds.Columns {
			if row[i] != "" {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

func TestReadGenericSeriesData(t *testing.T) {
	result, err := Read([]byte(genericSeriesMessage), Options{})
	require.NoError(t, err)
	require.Len(t, result.Datasets, 1)

	ds := result.Datasets["DataStructure=BIS:BIS_CBS(1.0)"]
	require.NotNil(t, ds)
	assert.Equal(t, sdmx.ActionAppend, ds.Action)
	require.Len(t, ds.Rows, 2)

	rows := rowMaps(t, ds)
	assert.Equal(t, map[string]string{
		"FREQ": "A", "REF_AREA": "DE", "UNIT": "USD",
		"TIME_PERIOD": "2020", "OBS_VALUE": "3.14", "OBS_STATUS": "A",
	}, rows[0])
	assert.Equal(t, "2021", rows[1]["TIME_PERIOD"])
}

func TestGenericLayoutsAreRowEquivalent(t *testing.T) {
	series, err := Read([]byte(genericSeriesMessage), Options{})
	require.NoError(t, err)
	flat, err := Read([]byte(genericFlatMessage), Options{})
	require.NoError(t, err)

	key := "DataStructure=BIS:BIS_CBS(1.0)"
	assert.Equal(t,
		rowMaps(t, series.Datasets[key]),
		rowMaps(t, flat.Datasets[key]))
}

func TestSpecificLayoutsAreRowEquivalent(t *testing.T) {
	series, err := Read([]byte(specificSeriesMessage), Options{})
	require.NoError(t, err)
	flat, err := Read([]byte(specificFlatMessage), Options{})
	require.NoError(t, err)

	key := "DataStructure=BIS:BIS_CBS(1.0)"
	assert.Equal(t,
		rowMaps(t, series.Datasets[key]),
		rowMaps(t, flat.Datasets[key]))
}

func TestGenericAndSpecificAgree(t *testing.T) {
	generic, err := Read([]byte(genericSeriesMessage), Options{})
	require.NoError(t, err)
	specific, err := Read([]byte(specificSeriesMessage), Options{})
	require.NoError(t, err)

	key := "DataStructure=BIS:BIS_CBS(1.0)"
	assert.Equal(t,
		rowMaps(t, generic.Datasets[key]),
		rowMaps(t, specific.Datasets[key]))
}

func TestReadDataDataflowReference(t *testing.T) {
	payload := `<mes:GenericData xmlns:mes="m" xmlns:gen="g" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="DF" dimensionAtObservation="TIME_PERIOD">
      <com:StructureUsage><Ref agencyID="BIS" id="CBS" version="1.0"/></com:StructureUsage>
    </mes:Structure>
  </mes:Header>
  <mes:DataSet structureRef="DF">
    <gen:Obs><gen:ObsDimension value="2020"/><gen:ObsValue value="1"/></gen:Obs>
  </mes:DataSet>
</mes:GenericData>`
	result, err := Read([]byte(payload), Options{})
	require.NoError(t, err)
	ds := result.Datasets["Dataflow=BIS:CBS(1.0)"]
	require.NotNil(t, ds)
	// Without an explicit id the observation dimension comes from the
	// header default.
	assert.Equal(t, []map[string]string{{"TIME_PERIOD": "2020", "OBS_VALUE": "1"}}, rowMaps(t, ds))
}

func TestReadDataUnknownStructureRef(t *testing.T) {
	payload := `<mes:GenericData xmlns:mes="m" xmlns:gen="g" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="TIME_PERIOD">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
  </mes:Header>
  <mes:DataSet structureRef="OTHER"/>
</mes:GenericData>`
	_, err := Read([]byte(payload), Options{})
	var vErr *sdmxerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "DataSet: cannot find the structure reference of this dataset:OTHER", vErr.Error())
}

func TestReadDataProvisionAgreementHeader(t *testing.T) {
	// The header element is misspelled in the standard itself.
	payload := `<mes:GenericData xmlns:mes="m" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="PA" dimensionAtObservation="TIME_PERIOD">
      <com:ProvisionAgrement><Ref agencyID="BIS" id="PA1" version="1.0"/></com:ProvisionAgrement>
    </mes:Structure>
  </mes:Header>
</mes:GenericData>`
	_, err := Read([]byte(payload), Options{})
	var uErr *sdmxerrors.UnsupportedConstructError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, "not implemented: ProvisionAgrement", uErr.Error())
}

func TestReadDataDataSetActionOverridesHeader(t *testing.T) {
	payload := `<mes:GenericData xmlns:mes="m" xmlns:gen="g" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="TIME_PERIOD">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
    <mes:DataSetAction>Append</mes:DataSetAction>
  </mes:Header>
  <mes:DataSet structureRef="BIS_CBS" action="Replace">
    <gen:Obs><gen:ObsDimension value="2020"/><gen:ObsValue value="1"/></gen:Obs>
  </mes:DataSet>
</mes:GenericData>`
	result, err := Read([]byte(payload), Options{})
	require.NoError(t, err)
	assert.Equal(t, sdmx.ActionReplace, result.Datasets["DataStructure=BIS:BIS_CBS(1.0)"].Action)
}

func TestReadDataInvalidAction(t *testing.T) {
	payload := `<mes:GenericData xmlns:mes="m" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="TIME_PERIOD">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
    <mes:DataSetAction>Upsert</mes:DataSetAction>
  </mes:Header>
</mes:GenericData>`
	_, err := Read([]byte(payload), Options{})
	var vErr *sdmxerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "ACTION")
}

func TestReadDataRaggedObservations(t *testing.T) {
	// A column appearing only in later observations back-fills earlier
	// rows with empty values.
	payload := `<mes:StructureSpecificData xmlns:mes="m" xmlns:com="c">
  <mes:Header>
    <mes:Structure structureID="BIS_CBS" dimensionAtObservation="AllDimensions">
      <com:Structure><Ref agencyID="BIS" id="BIS_CBS" version="1.0"/></com:Structure>
    </mes:Structure>
  </mes:Header>
  <mes:DataSet structureRef="BIS_CBS">
    <Obs FREQ="A" TIME_PERIOD="2020" OBS_VALUE="1"/>
    <Obs FREQ="A" TIME_PERIOD="2021" OBS_VALUE="2" OBS_CONF="F"/>
  </mes:DataSet>
</mes:StructureSpecificData>`
	result, err := Read([]byte(payload), Options{})
	require.NoError(t, err)
	ds := result.Datasets["DataStructure=BIS:BIS_CBS(1.0)"]
	require.NotNil(t, ds)
	require.Len(t, ds.Columns, 4)
	require.Len(t, ds.Rows, 2)
	assert.Len(t, ds.Rows[0], 4)
	assert.Equal(t, "", ds.Rows[0][3])
	assert.Equal(t, "F", ds.Rows[1][3])
}
