package recipe

import (
	"fmt"
	"strings"

	"example.com/recipes/internal/catalog"
)

var operatorText = map[string]string{
	catalog.OpEquals:      "is",
	catalog.OpNotEquals:   "is not",
	catalog.OpGreater:     "is greater than",
	catalog.OpGreaterEq:   "is at least",
	catalog.OpLess:        "is less than",
	catalog.OpLessEq:      "is at most",
	catalog.OpContains:    "contains",
	catalog.OpNotContains: "does not contain",
	catalog.OpLike:        "is like",
	catalog.OpBefore:      "is before",
	catalog.OpAfter:       "is after",
	catalog.OpNear:        "is near",
}

// ConditionSummary renders a single condition for UI display. FriendlyValue
// wins over the raw value when present.
func ConditionSummary(cat *catalog.Catalog, cond Condition) string {
	label := cond.Property
	if prop, ok := cat.Property(cond.Property); ok && prop.Text != "" {
		label = prop.Text
	}
	op := cond.Operator
	if text, ok := operatorText[cond.Operator]; ok {
		op = text
	}
	value := cond.FriendlyValue
	if value == "" {
		value = fmt.Sprintf("%v", cond.Value)
	}
	return fmt.Sprintf("%s %s %s", label, op, value)
}

// ActionSummary renders a single action for UI display.
func ActionSummary(cat *catalog.Catalog, act Action) string {
	label := act.Type
	flag := false
	if meta, ok := cat.Action(act.Type); ok {
		if meta.Text != "" {
			label = meta.Text
		}
		flag = meta.Flag
	}
	value := act.FriendlyValue
	if value == "" {
		value = act.Value
	}
	if flag || value == "" {
		return label
	}
	return fmt.Sprintf("%s: %s", label, value)
}

// Summary renders a one-line description of the whole recipe.
func (r Recipe) Summary(cat *catalog.Catalog) string {
	if r.DefaultFor != "" {
		return fmt.Sprintf("%s: default for %s activities, %s", r.Title, r.DefaultFor, summarizeActions(cat, r.Actions))
	}
	joiner := " and "
	if r.Op == OpOr {
		joiner = " or "
	}
	parts := make([]string, 0, len(r.Conditions))
	for _, cond := range r.Conditions {
		parts = append(parts, ConditionSummary(cat, cond))
	}
	return fmt.Sprintf("%s: if %s then %s", r.Title, strings.Join(parts, joiner), summarizeActions(cat, r.Actions))
}

func summarizeActions(cat *catalog.Catalog, actions []Action) string {
	parts := make([]string, 0, len(actions))
	for _, act := range actions {
		parts = append(parts, ActionSummary(cat, act))
	}
	return strings.Join(parts, ", ")
}
