package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/recipe"
)

// CompareNumbers applies a numeric operator. Exposed so enrichment checkers
// can reuse the engine's comparison semantics.
func CompareNumbers(op string, have, want float64) (bool, error) {
	switch op {
	case catalog.OpEquals:
		return have == want, nil
	case catalog.OpNotEquals:
		return have != want, nil
	case catalog.OpGreater:
		return have > want, nil
	case catalog.OpGreaterEq:
		return have >= want, nil
	case catalog.OpLess:
		return have < want, nil
	case catalog.OpLessEq:
		return have <= want, nil
	}
	return false, fmt.Errorf("operator %q is not numeric", op)
}

// CompareText applies a text operator. "like" is a case-insensitive
// contains; "contains" is case-sensitive.
func CompareText(op, have, want string) (bool, error) {
	switch op {
	case catalog.OpEquals:
		return have == want, nil
	case catalog.OpNotEquals:
		return have != want, nil
	case catalog.OpContains:
		return strings.Contains(have, want), nil
	case catalog.OpNotContains:
		return !strings.Contains(have, want), nil
	case catalog.OpLike:
		return strings.Contains(strings.ToLower(have), strings.ToLower(want)), nil
	}
	return false, fmt.Errorf("operator %q is not textual", op)
}

// CompareBools applies a boolean operator.
func CompareBools(op string, have, want bool) (bool, error) {
	switch op {
	case catalog.OpEquals:
		return have == want, nil
	case catalog.OpNotEquals:
		return have != want, nil
	}
	return false, fmt.Errorf("operator %q is not boolean", op)
}

// CompareTimes applies a time operator.
func CompareTimes(op string, have, want time.Time) (bool, error) {
	switch op {
	case catalog.OpBefore:
		return have.Before(want), nil
	case catalog.OpAfter:
		return have.After(want), nil
	case catalog.OpEquals:
		return have.Equal(want), nil
	}
	return false, fmt.Errorf("operator %q is not temporal", op)
}

// checkScalar is the fallback checker, dispatching on the runtime shape of
// the activity value: boolean, then numeric, else text. A missing property
// is simply not matched.
func checkScalar(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	value, ok := act.Get(cond.Property)
	if !ok {
		return false, nil
	}
	switch v := value.(type) {
	case bool:
		want, ok := activity.ToBool(cond.Value)
		if !ok {
			return false, fmt.Errorf("condition value %v is not a boolean", cond.Value)
		}
		return CompareBools(cond.Operator, v, want)
	case float64, float32, int, int64:
		have, _ := activity.ToFloat(v)
		want, ok := activity.ToFloat(cond.Value)
		if !ok {
			return false, fmt.Errorf("condition value %v is not a number", cond.Value)
		}
		return CompareNumbers(cond.Operator, have, want)
	default:
		have, _ := act.String(cond.Property)
		return CompareText(cond.Operator, have, fmt.Sprintf("%v", cond.Value))
	}
}

func checkSportType(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	want := fmt.Sprintf("%v", cond.Value)
	equal := strings.EqualFold(act.SportType(), want)
	if cond.Operator == catalog.OpNotEquals {
		return !equal, nil
	}
	return equal, nil
}

func checkGear(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	have, _ := act.String(catalog.PropertyGear)
	want := fmt.Sprintf("%v", cond.Value)
	if cond.Operator == catalog.OpNotEquals {
		return have != want, nil
	}
	return have == want, nil
}

// checkWeekday matches the activity start weekday against a comma-separated
// list of day names ("monday,wednesday").
func checkWeekday(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	started, ok := act.StartedAt()
	if !ok {
		return false, nil
	}
	day := strings.ToLower(started.Weekday().String())
	member := false
	for _, candidate := range strings.Split(fmt.Sprintf("%v", cond.Value), ",") {
		if strings.EqualFold(strings.TrimSpace(candidate), day) {
			member = true
			break
		}
	}
	if cond.Operator == catalog.OpNotEquals {
		return !member, nil
	}
	return member, nil
}

// checkNewRecords treats the new_records property as truthy when the
// activity carries any record count.
func checkNewRecords(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	have := false
	if count, ok := act.Float(catalog.PropertyNewRecords); ok {
		have = count > 0
	} else if flag, ok := act.Bool(catalog.PropertyNewRecords); ok {
		have = flag
	}
	want, ok := activity.ToBool(cond.Value)
	if !ok {
		return false, fmt.Errorf("condition value %v is not a boolean", cond.Value)
	}
	return CompareBools(cond.Operator, have, want)
}

// checkFirstOfDay matches the first-activity-of-day flag. The condition
// value "same_sport" selects the same-sport refinement computed upstream.
func checkFirstOfDay(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	field := catalog.PropertyFirstOfDay
	want := true
	raw := strings.TrimSpace(strings.ToLower(fmt.Sprintf("%v", cond.Value)))
	if raw == "same_sport" {
		field = "first_of_day_same_sport"
	} else if parsed, ok := activity.ToBool(raw); ok {
		want = parsed
	}
	have, _ := act.Bool(field)
	return CompareBools(cond.Operator, have, want)
}

// checkTime builds the checker for a time-typed property. start_date
// compares calendar instants; time_of_day compares the clock component of
// the activity start.
func checkTime(property string) CheckerFunc {
	return func(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
		started, ok := act.StartedAt()
		if !ok {
			return false, nil
		}
		raw := strings.TrimSpace(fmt.Sprintf("%v", cond.Value))
		if property == catalog.PropertyTimeOfDay {
			want, err := time.Parse("15:04", raw)
			if err != nil {
				return false, fmt.Errorf("parse time of day %q: %w", raw, err)
			}
			have := time.Date(0, 1, 1, started.Hour(), started.Minute(), 0, 0, time.UTC)
			wantClock := time.Date(0, 1, 1, want.Hour(), want.Minute(), 0, 0, time.UTC)
			return CompareTimes(cond.Operator, have, wantClock)
		}

		want, err := parseDate(raw)
		if err != nil {
			return false, err
		}
		if cond.Operator == catalog.OpEquals {
			// Date-only equality: same calendar day.
			return started.UTC().Truncate(24 * time.Hour).Equal(want.UTC().Truncate(24 * time.Hour)), nil
		}
		return CompareTimes(cond.Operator, started, want)
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", raw)
}

// checkLocation implements the "near" geofence test: the activity point is
// within the configured radius of the condition point. The condition value
// is "lat,lon" with an optional third radius-in-meters component.
func (e *Engine) checkLocation(_ context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
	point, ok := act.Get(cond.Property)
	if !ok {
		return false, nil
	}
	lat, lon, ok := coordinates(point)
	if !ok {
		return false, fmt.Errorf("activity property %s is not a coordinate pair", cond.Property)
	}

	parts := strings.Split(fmt.Sprintf("%v", cond.Value), ",")
	if len(parts) < 2 {
		return false, fmt.Errorf("condition value %v is not a coordinate pair", cond.Value)
	}
	wantLat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	wantLon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return false, fmt.Errorf("condition value %v is not a coordinate pair", cond.Value)
	}
	radius := e.nearRadius
	if len(parts) > 2 {
		if r, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err == nil && r > 0 {
			radius = r
		}
	}

	return haversineMeters(lat, lon, wantLat, wantLon) <= radius, nil
}

func coordinates(value any) (lat, lon float64, ok bool) {
	switch v := value.(type) {
	case []any:
		if len(v) != 2 {
			return 0, 0, false
		}
		lat, latOK := activity.ToFloat(v[0])
		lon, lonOK := activity.ToFloat(v[1])
		return lat, lon, latOK && lonOK
	case []float64:
		if len(v) != 2 {
			return 0, 0, false
		}
		return v[0], v[1], true
	case string:
		parts := strings.Split(v, ",")
		if len(parts) != 2 {
			return 0, 0, false
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		return lat, lon, err1 == nil && err2 == nil
	}
	return 0, 0, false
}

const earthRadiusMeters = 6371000.0

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
