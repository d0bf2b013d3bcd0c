package sdmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testComponents() Components {
	return Components{
		{ID: "FREQ", Role: RoleDimension, Concept: Concept{ID: "FREQ"}, Required: true},
		{ID: "REF_AREA", Role: RoleDimension, Concept: Concept{ID: "REF_AREA"}, Required: true},
		{ID: "TIME_PERIOD", Role: RoleDimension, Concept: Concept{ID: "TIME_PERIOD"}, Required: true},
		{ID: "OBS_VALUE", Role: RoleMeasure, Concept: Concept{ID: "OBS_VALUE"}, Required: true},
		{ID: "OBS_STATUS", Role: RoleAttribute, Concept: Concept{ID: "OBS_STATUS"}, AttachmentLevel: AttachObservation},
		{ID: "UNIT", Role: RoleAttribute, Concept: Concept{ID: "UNIT"}, AttachmentLevel: AttachDataset},
	}
}

func TestComponentsPartition(t *testing.T) {
	comps := testComponents()

	assert.Equal(t, []string{"FREQ", "REF_AREA", "TIME_PERIOD", "OBS_VALUE", "OBS_STATUS", "UNIT"}, comps.IDs())
	assert.Len(t, comps.Dimensions(), 3)
	assert.Len(t, comps.Measures(), 1)
	assert.Len(t, comps.Attributes(), 2)
	// Every component lands in exactly one bucket.
	assert.Equal(t, len(comps), len(comps.Dimensions())+len(comps.Measures())+len(comps.Attributes()))
}

func TestComponentsGet(t *testing.T) {
	comps := testComponents()

	comp, ok := comps.Get("OBS_VALUE")
	require.True(t, ok)
	assert.Equal(t, RoleMeasure, comp.Role)

	_, ok = comps.Get("NOPE")
	assert.False(t, ok)
}

func TestComponentsValidate(t *testing.T) {
	assert.NoError(t, testComponents().Validate())
}

func TestComponentsValidateDuplicateID(t *testing.T) {
	comps := append(testComponents(), Component{ID: "FREQ", Role: RoleAttribute, Concept: Concept{ID: "FREQ"}})
	err := comps.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate component id")
}

func TestComponentsValidateUnknownRole(t *testing.T) {
	comps := Components{{ID: "X", Role: "Z", Concept: Concept{ID: "X"}}}
	err := comps.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestComponentsValidateConceptMismatch(t *testing.T) {
	comps := Components{{ID: "X", Role: RoleDimension, Concept: Concept{ID: "Y"}}}
	err := comps.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match its concept id")
}
