package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/recipe"
)

// dispatch executes the recipe's actions in deterministic order and reports
// overall success: the AND of every executor's changed result. A failed or
// no-op action demotes the result but never stops the remaining actions.
func (e *Engine) dispatch(ctx context.Context, user User, act *activity.Activity, rec recipe.Recipe) bool {
	overall := true
	for _, action := range orderActions(rec.Actions) {
		exec, ok := e.executors[action.Type]
		if !ok {
			e.logger.Printf("no executor registered for action %q (recipe=%s)", action.Type, rec.ID)
			recordExecutorFailure(action.Type)
			overall = false
			continue
		}
		changed, err := exec(ctx, user, act, rec, action)
		if err != nil {
			e.logger.Printf("executor failed (action=%s, recipe=%s, activity=%s): %v", action.Type, rec.ID, act.ID, err)
			recordExecutorFailure(action.Type)
			overall = false
			continue
		}
		recordActionExecuted(action.Type, changed)
		if !changed {
			overall = false
		}
	}
	return overall
}

// orderActions stable-sorts actions by type, forcing webhooks last so the
// delivered payload reflects the activity after all other mutations.
func orderActions(actions []recipe.Action) []recipe.Action {
	out := make([]recipe.Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool {
		iWebhook := out[i].Type == catalog.ActionWebhook
		jWebhook := out[j].Type == catalog.ActionWebhook
		if iWebhook != jWebhook {
			return jWebhook
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func (e *Engine) registerBuiltinExecutors() {
	flags := map[string]string{
		catalog.ActionMarkCommute:  activity.FieldCommute,
		catalog.ActionMarkTrainer:  activity.FieldTrainer,
		catalog.ActionHideFromHome: activity.FieldHideHome,
		catalog.ActionMute:         activity.FieldMuted,
	}
	for actionType, field := range flags {
		e.executors[actionType] = flagExecutor(field)
	}

	fields := map[string]string{
		catalog.ActionSetName:        activity.FieldName,
		catalog.ActionSetDescription: activity.FieldDescription,
		catalog.ActionSetGear:        activity.FieldGear,
		catalog.ActionSetSportType:   activity.FieldSportType,
		catalog.ActionSetWorkoutType: activity.FieldWorkoutType,
		catalog.ActionSetMapStyle:    activity.FieldMapStyle,
	}
	for actionType, field := range fields {
		e.executors[actionType] = setFieldExecutor(field)
	}

	e.executors[catalog.ActionWebhook] = e.webhookExecutor
}

// flagExecutor toggles a boolean activity field. An omitted value means
// true. Setting an already-present value reports no change.
func flagExecutor(field string) ExecutorFunc {
	return func(_ context.Context, _ User, act *activity.Activity, _ recipe.Recipe, action recipe.Action) (bool, error) {
		desired := true
		if action.Value != "" {
			parsed, ok := activity.ToBool(action.Value)
			if !ok {
				return false, fmt.Errorf("action value %q is not a boolean", action.Value)
			}
			desired = parsed
		}
		return act.Set(field, desired), nil
	}
}

// setFieldExecutor writes a templated value to a mutable activity field.
func setFieldExecutor(field string) ExecutorFunc {
	return func(_ context.Context, _ User, act *activity.Activity, _ recipe.Recipe, action recipe.Action) (bool, error) {
		return act.Set(field, ResolveTemplate(act, action.Value)), nil
	}
}

var templatePlaceholder = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// ResolveTemplate substitutes {property} placeholders with activity values.
// Unknown placeholders are left verbatim.
func ResolveTemplate(act *activity.Activity, template string) string {
	return templatePlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := act.String(name); ok {
			return value
		}
		return match
	})
}

// webhookPayload is the body posted to webhook targets. The activity is the
// final state after all other actions ran, including its updated fields.
type webhookPayload struct {
	RecipeID    string             `json:"recipe_id"`
	RecipeTitle string             `json:"recipe_title"`
	UserID      string             `json:"user_id"`
	Activity    *activity.Activity `json:"activity"`
}

func (e *Engine) webhookExecutor(ctx context.Context, user User, act *activity.Activity, rec recipe.Recipe, action recipe.Action) (bool, error) {
	body, err := json.Marshal(webhookPayload{
		RecipeID:    rec.ID,
		RecipeTitle: rec.Title,
		UserID:      user.ID,
		Activity:    act,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.Value, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.webhook.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("webhook %s returned status %d", action.Value, resp.StatusCode)
	}
	return true, nil
}
