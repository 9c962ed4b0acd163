// Package activity models the open property bag that recipes are evaluated
// against. The bag is produced upstream (ingest pipeline plus enrichment
// lookups); this package only reads named properties and tracks which of the
// known mutable fields an action pipeline has changed.
package activity

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Mutable field names an executor is allowed to write.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldGear        = "gear_id"
	FieldSportType   = "sport_type"
	FieldWorkoutType = "workout_type"
	FieldMapStyle    = "map_style"
	FieldCommute     = "commute"
	FieldTrainer     = "trainer"
	FieldHideHome    = "hide_from_home"
	FieldMuted       = "muted"
)

// Activity is a single workout record keyed by string property names.
// Nested lookups use dotted names ("weather.temperature").
type Activity struct {
	ID     string
	Fields map[string]any

	// updated accumulates the names of fields changed by action executors,
	// in change order, without duplicates. Used downstream for partial
	// persistence. Never cleared mid-evaluation.
	updated []string
}

// New builds an Activity over the given field map. A nil map is allowed.
func New(id string, fields map[string]any) *Activity {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Activity{ID: id, Fields: fields, updated: []string{}}
}

// EnsureUpdatedFields initializes the accumulator if absent.
func (a *Activity) EnsureUpdatedFields() {
	if a.updated == nil {
		a.updated = []string{}
	}
}

// UpdatedFields returns the accumulated changed field names.
func (a *Activity) UpdatedFields() []string {
	return a.updated
}

// Get resolves a possibly dotted property name against the field map.
func (a *Activity) Get(name string) (any, bool) {
	if v, ok := a.Fields[name]; ok {
		return v, true
	}
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return nil, false
	}
	var current any = a.Fields
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes a mutable field and records the change. It reports whether the
// value actually changed; writing an already-present value is a no-op.
func (a *Activity) Set(name string, value any) bool {
	if existing, ok := a.Fields[name]; ok && existing == value {
		return false
	}
	a.Fields[name] = value
	a.EnsureUpdatedFields()
	for _, f := range a.updated {
		if f == name {
			return true
		}
	}
	a.updated = append(a.updated, name)
	return true
}

// String returns the property coerced to string.
func (a *Activity) String(name string) (string, bool) {
	v, ok := a.Get(name)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// Float returns the property coerced to float64. JSON numbers arrive as
// float64; ints and numeric strings are accepted too.
func (a *Activity) Float(name string) (float64, bool) {
	v, ok := a.Get(name)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Bool returns the property coerced to bool.
func (a *Activity) Bool(name string) (bool, bool) {
	v, ok := a.Get(name)
	if !ok {
		return false, false
	}
	return ToBool(v)
}

// Strings returns the property coerced to a string slice.
func (a *Activity) Strings(name string) ([]string, bool) {
	v, ok := a.Get(name)
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Time returns the property parsed as a timestamp.
func (a *Activity) Time(name string) (time.Time, bool) {
	v, ok := a.Get(name)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	}
	return time.Time{}, false
}

// SportType is a convenience accessor for the sport type field.
func (a *Activity) SportType() string {
	s, _ := a.String(FieldSportType)
	return s
}

// StartedAt is a convenience accessor for the start timestamp.
func (a *Activity) StartedAt() (time.Time, bool) {
	return a.Time("start_date")
}

// MarshalJSON renders the field map plus the updated_fields accumulator,
// which is the payload shape webhook deliveries and result events carry.
func (a *Activity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Fields)+2)
	for k, v := range a.Fields {
		out[k] = v
	}
	out["activity_id"] = a.ID
	out["updated_fields"] = a.UpdatedFields()
	return json.Marshal(out)
}

// ToFloat coerces a raw property value to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// ToBool coerces a raw property value to bool. Numeric values follow the
// "non-zero is true" convention used for record counts.
func ToBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(t)))
		return b, err == nil
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	}
	return false, false
}
