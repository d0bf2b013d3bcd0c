package urn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullURN(t *testing.T) {
	ref, err := Parse("urn:sdmx:org.sdmx.infomodel.codelist.Codelist=SDMX:CL_FREQ(2.0)")
	require.NoError(t, err)
	assert.Equal(t, "Codelist", ref.SdmxType)
	assert.Equal(t, "SDMX", ref.Agency)
	assert.Equal(t, "CL_FREQ", ref.ID)
	assert.Equal(t, "2.0", ref.Version)
	assert.Empty(t, ref.ItemID)
}

func TestParseFullURNWithItem(t *testing.T) {
	ref, err := Parse("urn:sdmx:org.sdmx.infomodel.conceptscheme.Concept=BIS:STANDALONE_CS(1.0).FREQ")
	require.NoError(t, err)
	assert.Equal(t, "Concept", ref.SdmxType)
	assert.Equal(t, "STANDALONE_CS", ref.ID)
	assert.Equal(t, "FREQ", ref.ItemID)
}

func TestParseShortURN(t *testing.T) {
	ref, err := Parse("Dataflow=BIS:CBS(1.0)")
	require.NoError(t, err)
	assert.Equal(t, "Dataflow", ref.SdmxType)
	assert.Equal(t, "BIS", ref.Agency)
	assert.Equal(t, "CBS", ref.ID)
	assert.Equal(t, "1.0", ref.Version)
}

func TestParseShortURNWithItem(t *testing.T) {
	ref, err := Parse("Code=SDMX:CL_FREQ(2.0):A")
	require.NoError(t, err)
	assert.Equal(t, "A", ref.ItemID)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{
		"",
		"not a urn",
		"Dataflow=BIS:CBS",         // no version
		"Dataflow=BIS(1.0)",        // no id
		"urn:sdmx:Dataflow=X(1.0)", // truncated full form
	} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestShortURNRoundTrip(t *testing.T) {
	inputs := []string{
		"Codelist=SDMX:CL_FREQ(2.0)",
		"Dataflow=BIS:CBS(1.0)",
		"Code=SDMX:CL_FREQ(2.0):A",
		"ValueList=ESTAT:VL_CURRENCY(1.0.0)",
	}
	for _, input := range inputs {
		ref, err := Parse(input)
		require.NoError(t, err)
		assert.Equal(t, input, ref.ShortURN())

		again, err := Parse(ref.ShortURN())
		require.NoError(t, err)
		assert.Equal(t, ref, again)
	}
}

func TestFullURNFormatsAsShort(t *testing.T) {
	ref, err := Parse("urn:sdmx:org.sdmx.infomodel.datastructure.DataStructure=BIS:BIS_CBS(1.0)")
	require.NoError(t, err)
	assert.Equal(t, "DataStructure=BIS:BIS_CBS(1.0)", ref.String())
}

func TestPackageShortURN(t *testing.T) {
	assert.Equal(t, "Codelist=SDMX:CL_FREQ(2.0)", ShortURN("Codelist", "SDMX", "CL_FREQ", "2.0"))
}
