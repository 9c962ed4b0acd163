package engine

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/recipe"
	"example.com/recipes/internal/stats"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append(opts, WithLogger(log.New(testWriter{t}, "", 0)))
	return New(catalog.Default(), nil, stats.NewMemoryRecorder(), opts...)
}

func rideActivity(fields map[string]any) *activity.Activity {
	base := map[string]any{
		activity.FieldSportType: "Ride",
		"start_date":            "2025-06-02T07:30:00Z", // a Monday
		"distance":              42.0,
	}
	for k, v := range fields {
		base[k] = v
	}
	return activity.New("act-1", base)
}

func TestMatchesAndAcrossGroups(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:             "r1",
		Title:          "long rides",
		Op:             recipe.OpAnd,
		SamePropertyOp: recipe.OpAnd,
		Conditions: []recipe.Condition{
			{Property: catalog.PropertySportType, Operator: catalog.OpEquals, Value: "Ride"},
			{Property: catalog.PropertyDistance, Operator: catalog.OpGreater, Value: 40},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(nil)))
	require.False(t, eng.matches(context.Background(), rec, rideActivity(map[string]any{"distance": 10.0})))
}

func TestMatchesSamePropertyOr(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:             "r2",
		Title:          "either bike",
		Op:             recipe.OpAnd,
		SamePropertyOp: recipe.OpOr,
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyGear, Operator: catalog.OpEquals, Value: "bike1"},
			{Property: catalog.PropertyGear, Operator: catalog.OpEquals, Value: "bike2"},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(map[string]any{catalog.PropertyGear: "bike2"})))
	require.False(t, eng.matches(context.Background(), rec, rideActivity(map[string]any{catalog.PropertyGear: "bike3"})))
}

func TestMatchesOrAcrossGroups(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:             "r3",
		Title:          "long or running",
		Op:             recipe.OpOr,
		SamePropertyOp: recipe.OpAnd,
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyDistance, Operator: catalog.OpGreater, Value: 100},
			{Property: catalog.PropertySportType, Operator: catalog.OpEquals, Value: "Ride"},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(nil)))
}

func TestMatchesDefaultForBySportOnly(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:         "r4",
		Title:      "default ride",
		DefaultFor: "ride",
		// Conditions would fail; defaultFor bypasses them entirely.
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyDistance, Operator: catalog.OpGreater, Value: 10000},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(nil)))
	require.False(t, eng.matches(context.Background(), rec, activity.New("act-2", map[string]any{activity.FieldSportType: "Run"})))
}

func TestMatchesDisabledRecipe(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:       "r5",
		Title:    "switched off",
		Disabled: true,
		Conditions: []recipe.Condition{
			{Property: catalog.PropertySportType, Operator: catalog.OpEquals, Value: "Ride"},
		},
	}

	require.False(t, eng.matches(context.Background(), rec, rideActivity(nil)))
}

func TestCheckerErrorFailsClosed(t *testing.T) {
	eng := newTestEngine(t, WithChecker("weather", func(context.Context, *activity.Activity, recipe.Condition) (bool, error) {
		return true, errors.New("weather service unavailable")
	}))

	rec := recipe.Recipe{
		ID:    "r6",
		Title: "warm rides",
		Op:    recipe.OpAnd,
		Conditions: []recipe.Condition{
			{Property: "weather.temperature", Operator: catalog.OpGreater, Value: 15},
		},
	}

	require.False(t, eng.matches(context.Background(), rec, rideActivity(nil)))
}

func TestSamePropertyOrShortCircuits(t *testing.T) {
	calls := 0
	eng := newTestEngine(t, WithChecker("garmin", func(context.Context, *activity.Activity, recipe.Condition) (bool, error) {
		calls++
		return true, nil
	}))

	rec := recipe.Recipe{
		ID:             "r7",
		Title:          "rested",
		Op:             recipe.OpAnd,
		SamePropertyOp: recipe.OpOr,
		Conditions: []recipe.Condition{
			{Property: "garmin.sleep_score", Operator: catalog.OpGreater, Value: 50},
			{Property: "garmin.sleep_score", Operator: catalog.OpGreater, Value: 80},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(nil)))
	require.Equal(t, 1, calls, "second same-property condition must not be evaluated")
}

func TestCheckWeekday(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:    "r8",
		Title: "commute days",
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyWeekday, Operator: catalog.OpEquals, Value: "monday,wednesday"},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(nil)))

	sunday := rideActivity(map[string]any{"start_date": "2025-06-01T07:30:00Z"})
	require.False(t, eng.matches(context.Background(), rec, sunday))
}

func TestCheckTimeOfDay(t *testing.T) {
	eng := newTestEngine(t)

	rec := recipe.Recipe{
		ID:    "r9",
		Title: "morning sessions",
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyTimeOfDay, Operator: catalog.OpBefore, Value: "09:00"},
		},
	}

	require.True(t, eng.matches(context.Background(), rec, rideActivity(nil)))

	evening := rideActivity(map[string]any{"start_date": "2025-06-02T19:30:00Z"})
	require.False(t, eng.matches(context.Background(), rec, evening))
}

func TestCheckLocationNear(t *testing.T) {
	eng := newTestEngine(t)

	home := rideActivity(map[string]any{catalog.PropertyStartLoc: []any{52.52, 13.405}})

	rec := recipe.Recipe{
		ID:    "r10",
		Title: "from home",
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyStartLoc, Operator: catalog.OpNear, Value: "52.5201,13.4051"},
		},
	}
	require.True(t, eng.matches(context.Background(), rec, home))

	farAway := recipe.Recipe{
		ID:    "r11",
		Title: "from office",
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyStartLoc, Operator: catalog.OpNear, Value: "48.8566,2.3522"},
		},
	}
	require.False(t, eng.matches(context.Background(), farAway, home))

	wideRadius := recipe.Recipe{
		ID:    "r12",
		Title: "same continent",
		Conditions: []recipe.Condition{
			{Property: catalog.PropertyStartLoc, Operator: catalog.OpNear, Value: "48.8566,2.3522,2000000"},
		},
	}
	require.True(t, eng.matches(context.Background(), wideRadius, home))
}

func TestDescribeActivityValueRedactsPolyline(t *testing.T) {
	act := rideActivity(map[string]any{catalog.PropertyPolyline: "abcdef123456"})
	cond := recipe.Condition{Property: catalog.PropertyPolyline}
	require.Equal(t, "<polyline omitted>", describeActivityValue(act, cond))

	cond = recipe.Condition{Property: "start_date"}
	require.Equal(t, "2025-06-02T07:30:00Z", describeActivityValue(act, cond))
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
