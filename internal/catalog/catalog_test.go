package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInheritsOperatorDefaults(t *testing.T) {
	cat := New([]Property{
		{Value: "distance", Type: TypeNumber},
		{Value: "sport_type", Type: TypeText, Operators: []string{OpEquals}},
	}, nil)

	prop, ok := cat.Property("distance")
	require.True(t, ok)
	require.Equal(t, []string{OpEquals, OpNotEquals, OpGreater, OpGreaterEq, OpLess, OpLessEq}, prop.Operators)

	prop, ok = cat.Property("sport_type")
	require.True(t, ok)
	require.Equal(t, []string{OpEquals}, prop.Operators, "explicit operator lists are preserved")
}

func TestValidOperator(t *testing.T) {
	cat := Default()

	require.True(t, cat.ValidOperator(PropertyDistance, OpGreater))
	require.False(t, cat.ValidOperator(PropertyDistance, OpContains))
	require.True(t, cat.ValidOperator(PropertySportType, OpEquals))
	require.False(t, cat.ValidOperator(PropertySportType, OpLike), "sport type only supports equality")
	require.True(t, cat.ValidOperator(PropertyStartLoc, OpNear))
	require.False(t, cat.ValidOperator("unknown", OpEquals))
}

func TestDefaultCatalogCoversBuiltinHandlers(t *testing.T) {
	cat := Default()

	for _, name := range []string{
		PropertySportType, PropertyGear, PropertyWeekday, PropertyNewRecords,
		PropertyFirstOfDay, PropertyStartDate, PropertyTimeOfDay,
		PropertyStartLoc, PropertyEndLoc, PropertyCity, PropertyDistance,
	} {
		_, ok := cat.Property(name)
		require.True(t, ok, "property %s missing from default catalog", name)
	}

	for _, name := range []string{
		ActionMarkCommute, ActionMarkTrainer, ActionHideFromHome, ActionMute,
		ActionSetName, ActionSetDescription, ActionSetGear, ActionSetSportType,
		ActionSetWorkoutType, ActionSetMapStyle, ActionWebhook,
	} {
		_, ok := cat.Action(name)
		require.True(t, ok, "action %s missing from default catalog", name)
	}
}

func TestPropertiesSorted(t *testing.T) {
	props := Default().Properties()
	for i := 1; i < len(props); i++ {
		require.Less(t, props[i-1].Value, props[i].Value)
	}
}
