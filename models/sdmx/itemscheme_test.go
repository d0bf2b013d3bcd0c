package sdmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodelistShortURN(t *testing.T) {
	cl := &Codelist{
		MaintainableArtefact: MaintainableArtefact{ID: "CL_FREQ", Agency: "SDMX", Version: "2.0"},
		SdmxType:             "codelist",
	}
	assert.Equal(t, "Codelist=SDMX:CL_FREQ(2.0)", cl.ShortURN())

	cl.SdmxType = "valuelist"
	assert.Equal(t, "ValueList=SDMX:CL_FREQ(2.0)", cl.ShortURN())
}

func TestCodelistItem(t *testing.T) {
	cl := &Codelist{Items: []Code{{ID: "A", Name: "Annual"}, {ID: "M", Name: "Monthly"}}}
	require.Equal(t, 2, cl.Len())

	code := cl.Item("M")
	require.NotNil(t, code)
	assert.Equal(t, "Monthly", code.Name)
	assert.Nil(t, cl.Item("Q"))
}

func TestConceptSchemeItem(t *testing.T) {
	cs := &ConceptScheme{
		MaintainableArtefact: MaintainableArtefact{ID: "CS", Agency: "BIS", Version: "1.0"},
		Items:                []Concept{{ID: "FREQ", DType: DTypeString}},
	}
	assert.Equal(t, "ConceptScheme=BIS:CS(1.0)", cs.ShortURN())
	require.NotNil(t, cs.Item("FREQ"))
	assert.Nil(t, cs.Item("UNIT"))
}

func TestCheckParentLinksForest(t *testing.T) {
	items := []Code{
		{ID: "EU"},
		{ID: "DE", Parent: "EU"},
		{ID: "FR", Parent: "EU"},
		{ID: "US"},
	}
	assert.NoError(t, CheckParentLinks("Codelist=T:CL(1.0)", items))
}

func TestCheckParentLinksChildBeforeParent(t *testing.T) {
	// Declaration order must not matter.
	items := []Code{
		{ID: "DE", Parent: "EU"},
		{ID: "EU"},
	}
	assert.NoError(t, CheckParentLinks("Codelist=T:CL(1.0)", items))
}

func TestCheckParentLinksDangling(t *testing.T) {
	items := []Code{{ID: "DE", Parent: "EU"}}
	err := CheckParentLinks("Codelist=T:CL(1.0)", items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling parent reference")
	assert.Contains(t, err.Error(), "Codelist=T:CL(1.0)")
}

func TestCheckParentLinksCycle(t *testing.T) {
	items := []Code{
		{ID: "A", Parent: "B"},
		{ID: "B", Parent: "A"},
	}
	err := CheckParentLinks("Codelist=T:CL(1.0)", items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestCheckParentLinksSelfCycle(t *testing.T) {
	err := CheckParentLinks("Codelist=T:CL(1.0)", []Code{{ID: "A", Parent: "A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestCheckConceptParentLinksForest(t *testing.T) {
	items := []Concept{
		{ID: "ECO"},
		{ID: "GDP", Parent: "ECO"},
	}
	assert.NoError(t, CheckConceptParentLinks("ConceptScheme=T:CS(1.0)", items))
}

func TestCheckConceptParentLinksDangling(t *testing.T) {
	items := []Concept{{ID: "GDP", Parent: "MISSING"}}
	err := CheckConceptParentLinks("ConceptScheme=T:CS(1.0)", items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling parent reference")
	assert.Contains(t, err.Error(), "ConceptScheme=T:CS(1.0)")
}

func TestCheckConceptParentLinksCycle(t *testing.T) {
	items := []Concept{
		{ID: "A", Parent: "B"},
		{ID: "B", Parent: "A"},
	}
	err := CheckConceptParentLinks("ConceptScheme=T:CS(1.0)", items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestHierarchyLenCountsNestedNodes(t *testing.T) {
	h := &Hierarchy{
		MaintainableArtefact: MaintainableArtefact{ID: "H", Agency: "BIS", Version: "1.0"},
		Codes: []HierarchicalCode{
			{ID: "TOTAL", Codes: []HierarchicalCode{
				{ID: "A"},
				{ID: "B", Codes: []HierarchicalCode{{ID: "B1"}}},
			}},
			{ID: "OTHER"},
		},
	}
	assert.Equal(t, 5, h.Len())
	assert.Equal(t, "Hierarchy=BIS:H(1.0)", h.ShortURN())
}

func TestHierarchyLenDeduplicatesAcrossBranches(t *testing.T) {
	// The same code may hang off several parents; it is still one code.
	h := &Hierarchy{Codes: []HierarchicalCode{
		{ID: "EU", CodeRef: "Code=BIS:CL_AREA(1.0):EU", Codes: []HierarchicalCode{
			{ID: "DE", CodeRef: "Code=BIS:CL_AREA(1.0):DE"},
		}},
		{ID: "G10", CodeRef: "Code=BIS:CL_AREA(1.0):G10", Codes: []HierarchicalCode{
			{ID: "DE2", CodeRef: "Code=BIS:CL_AREA(1.0):DE"},
		}},
	}}
	assert.Equal(t, 3, h.Len())
}

func TestCodeSetImplementations(t *testing.T) {
	// Both enumerated representations satisfy the CodeSet contract.
	var _ CodeSet = &Codelist{}
	var _ CodeSet = &Hierarchy{}
}
