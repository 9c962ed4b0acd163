package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/recipe"
)

// propertyGroup collects the conditions sharing one property, in the order
// they first appear in the recipe. Group order only affects which failing
// condition gets logged, not correctness.
type propertyGroup struct {
	property   string
	conditions []recipe.Condition
}

func groupByProperty(conditions []recipe.Condition) []propertyGroup {
	groups := make([]propertyGroup, 0, len(conditions))
	index := make(map[string]int, len(conditions))
	for _, cond := range conditions {
		if i, ok := index[cond.Property]; ok {
			groups[i].conditions = append(groups[i].conditions, cond)
			continue
		}
		index[cond.Property] = len(groups)
		groups = append(groups, propertyGroup{property: cond.Property, conditions: []recipe.Condition{cond}})
	}
	return groups
}

// matches reports whether the recipe's conditions hold for the activity.
// Disabled recipes never match. Default-sport recipes match purely on sport
// type equality. Everything else goes through two-level boolean grouping
// with short-circuit evaluation, so an external lookup never fires once the
// group's result is already determined.
func (e *Engine) matches(ctx context.Context, rec recipe.Recipe, act *activity.Activity) bool {
	if rec.Disabled {
		e.logger.Printf("recipe %s (%s) is disabled, skipping", rec.ID, rec.Title)
		return false
	}
	if rec.DefaultFor != "" {
		return strings.EqualFold(act.SportType(), rec.DefaultFor)
	}

	groups := groupByProperty(rec.Conditions)
	result := rec.Op != recipe.OpOr
	var lastFailed *recipe.Condition

	for _, group := range groups {
		groupResult := rec.SamePropertyOp != recipe.OpOr
		for i := range group.conditions {
			cond := group.conditions[i]
			ok := e.check(ctx, act, cond)
			if !ok {
				lastFailed = &group.conditions[i]
			}
			if rec.SamePropertyOp == recipe.OpOr {
				if ok {
					groupResult = true
					break
				}
				groupResult = false
			} else {
				if !ok {
					groupResult = false
					break
				}
			}
		}

		if rec.Op == recipe.OpOr {
			if groupResult {
				result = true
				break
			}
			result = false
		} else {
			if !groupResult {
				result = false
				break
			}
		}
	}

	if !result && lastFailed != nil {
		e.logger.Printf("recipe %s (%s) not matched: %s %s %v (activity value: %s)",
			rec.ID, rec.Title, lastFailed.Property, lastFailed.Operator, lastFailed.Value,
			describeActivityValue(act, *lastFailed))
	}
	return result
}

// check dispatches the condition to its resolved checker. A checker error is
// converted to "not matched" so a flaky external lookup cannot crash rule
// evaluation for unrelated conditions.
func (e *Engine) check(ctx context.Context, act *activity.Activity, cond recipe.Condition) bool {
	fn, ok := e.checkers[cond.Property]
	if !ok {
		fn = checkScalar
	}
	matched, err := fn(ctx, act, cond)
	if err != nil {
		recordCheckerFailure(categoryOf(cond.Property))
		e.logger.Printf("checker failed (property=%s, activity=%s): %v", cond.Property, act.ID, err)
		return false
	}
	return matched
}

func categoryOf(property string) string {
	if idx := strings.IndexByte(property, '.'); idx > 0 {
		return property[:idx]
	}
	return property
}

// describeActivityValue renders the activity-side value of a condition for
// diagnostic logs. Polylines are never echoed verbatim, timestamps are
// formatted, and arrays are reported by length.
func describeActivityValue(act *activity.Activity, cond recipe.Condition) string {
	if strings.Contains(cond.Property, "polyline") {
		return "<polyline omitted>"
	}
	value, ok := act.Get(cond.Property)
	if !ok {
		return "<absent>"
	}
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []any:
		return fmt.Sprintf("<array of %d>", len(v))
	case []string:
		return fmt.Sprintf("<array of %d>", len(v))
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
