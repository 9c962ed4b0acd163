package recipe

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/catalog"
)

// MaxTitleLength bounds recipe titles.
const MaxTitleLength = 120

var (
	recipeFields    = fieldSet("id", "title", "order", "conditions", "actions", "op", "same_property_op", "default_for", "disabled", "kill_switch")
	conditionFields = fieldSet("property", "operator", "value", "friendly_value")
	actionFields    = fieldSet("type", "value", "friendly_value")
)

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// ParseDefinition decodes a persisted or submitted recipe definition,
// dropping unknown object fields (schema whitelisting). Dropped fields are
// not an error; they are reported as warnings so the save flow can surface
// them.
func ParseDefinition(data []byte) (Recipe, []string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Recipe{}, nil, fmt.Errorf("parse recipe definition: %w", err)
	}

	var warnings []string
	pruneUnknown(raw, recipeFields, "", &warnings)

	if items, ok := raw["conditions"].([]any); ok {
		for i, item := range items {
			if obj, ok := item.(map[string]any); ok {
				pruneUnknown(obj, conditionFields, fmt.Sprintf("conditions[%d]", i), &warnings)
			}
		}
	}
	if items, ok := raw["actions"].([]any); ok {
		for i, item := range items {
			if obj, ok := item.(map[string]any); ok {
				pruneUnknown(obj, actionFields, fmt.Sprintf("actions[%d]", i), &warnings)
			}
		}
	}

	pruned, err := json.Marshal(raw)
	if err != nil {
		return Recipe{}, nil, err
	}
	var rec Recipe
	if err := json.Unmarshal(pruned, &rec); err != nil {
		return Recipe{}, nil, fmt.Errorf("decode recipe definition: %w", err)
	}
	return rec, warnings, nil
}

func pruneUnknown(obj map[string]any, allowed map[string]struct{}, prefix string, warnings *[]string) {
	var dropped []string
	for key := range obj {
		if _, ok := allowed[key]; !ok {
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	for _, key := range dropped {
		delete(obj, key)
		if prefix == "" {
			*warnings = append(*warnings, fmt.Sprintf("dropped unknown field %q", key))
		} else {
			*warnings = append(*warnings, fmt.Sprintf("%s: dropped unknown field %q", prefix, key))
		}
	}
}

// Sanitize validates the recipe against the catalog and returns its
// normalized form: empty conditions and actions pruned, operator defaults
// applied, and default-sport forcing performed. The receiver is not
// modified. Sanitizing an already-sanitized recipe returns an equal value.
//
// Structural checks (title, order, actions present) run before per-condition
// and per-action checks so the first reported error is the most fundamental.
func (r Recipe) Sanitize(cat *catalog.Catalog) (Recipe, error) {
	out := r
	out.Conditions = pruneConditions(r.Conditions)
	out.Actions = pruneActions(r.Actions)

	if strings.TrimSpace(out.Title) == "" {
		return Recipe{}, validationErrorf("title", "must not be empty")
	}
	if len(out.Title) > MaxTitleLength {
		return Recipe{}, validationErrorf("title", "must be at most %d characters", MaxTitleLength)
	}
	if out.Order < 0 {
		return Recipe{}, validationErrorf("order", "must not be negative")
	}
	if len(out.Actions) == 0 {
		return Recipe{}, validationErrorf("actions", "at least one action is required")
	}

	switch out.Op {
	case "":
		out.Op = OpAnd
	case OpAnd, OpOr:
	default:
		return Recipe{}, validationErrorf("op", "must be AND or OR")
	}
	switch out.SamePropertyOp {
	case "":
		out.SamePropertyOp = out.Op
	case OpAnd, OpOr:
	default:
		return Recipe{}, validationErrorf("same_property_op", "must be AND or OR")
	}

	if out.DefaultFor != "" {
		// Default-sport recipes match purely on sport type; conditions
		// and ordering are forced, not validated.
		out.Order = 0
		out.Conditions = nil
	} else {
		if len(out.Conditions) == 0 {
			return Recipe{}, validationErrorf("conditions", "at least one condition is required")
		}
		for i, cond := range out.Conditions {
			if err := validateCondition(cat, i, cond); err != nil {
				return Recipe{}, err
			}
		}
	}

	for i, act := range out.Actions {
		if err := validateAction(cat, i, act); err != nil {
			return Recipe{}, err
		}
	}

	return out, nil
}

func pruneConditions(conditions []Condition) []Condition {
	if len(conditions) == 0 {
		return nil
	}
	out := make([]Condition, 0, len(conditions))
	for _, c := range conditions {
		if c.Property == "" && c.Operator == "" && isEmptyValue(c.Value) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func pruneActions(actions []Action) []Action {
	if len(actions) == 0 {
		return nil
	}
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.Type == "" {
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func validateCondition(cat *catalog.Catalog, index int, cond Condition) error {
	field := fmt.Sprintf("conditions[%d]", index)
	prop, ok := cat.Property(cond.Property)
	if !ok {
		return validationErrorf(field, "unknown property %q", cond.Property)
	}
	if !cat.ValidOperator(cond.Property, cond.Operator) {
		return validationErrorf(field, "operator %q is not valid for property %q", cond.Operator, cond.Property)
	}
	if isEmptyValue(cond.Value) {
		return validationErrorf(field, "value must not be empty")
	}
	switch prop.Type {
	case catalog.TypeNumber:
		if _, ok := activity.ToFloat(cond.Value); !ok {
			return validationErrorf(field, "value %v is not a number", cond.Value)
		}
	case catalog.TypeBoolean:
		if _, ok := activity.ToBool(cond.Value); !ok {
			return validationErrorf(field, "value %v is not a boolean", cond.Value)
		}
	}
	return nil
}

func validateAction(cat *catalog.Catalog, index int, act Action) error {
	field := fmt.Sprintf("actions[%d]", index)
	meta, ok := cat.Action(act.Type)
	if !ok {
		return validationErrorf(field, "unknown action type %q", act.Type)
	}
	if !meta.Flag && strings.TrimSpace(act.Value) == "" {
		return validationErrorf(field, "value is required for action %q", act.Type)
	}
	if act.Type == catalog.ActionWebhook {
		parsed, err := url.Parse(act.Value)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return validationErrorf(field, "webhook value must be a valid http(s) URL")
		}
	}
	return nil
}
