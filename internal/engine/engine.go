// Package engine evaluates recipes against activities and dispatches their
// actions. An Engine is explicitly constructed with its catalog, checker and
// executor registries, and stats recorder; it holds no mutable state across
// calls, so callers may run many evaluations concurrently.
package engine

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/observability"
	"example.com/recipes/internal/recipe"
	"example.com/recipes/internal/stats"
)

// User identifies the recipe owner for an evaluation.
type User struct {
	ID       string
	TenantID string
}

// CheckerFunc decides whether a single condition holds for an activity.
// Returning an error marks the condition as not matched (fail-closed); it
// never aborts the evaluation.
type CheckerFunc func(ctx context.Context, act *activity.Activity, cond recipe.Condition) (bool, error)

// ExecutorFunc applies a single action to a matched activity. It reports
// whether anything actually changed; errors demote the dispatch result but
// do not stop remaining actions.
type ExecutorFunc func(ctx context.Context, user User, act *activity.Activity, rec recipe.Recipe, action recipe.Action) (bool, error)

// RecipeSource resolves a recipe ID within a user's recipe set.
type RecipeSource interface {
	Get(ctx context.Context, tenantID, userID, recipeID string) (*recipe.Recipe, error)
}

// DefaultNearRadiusMeters is the containment radius for the location "near"
// operator when neither the condition nor the deployment overrides it.
const DefaultNearRadiusMeters = 500.0

// Engine evaluates recipes. Construct with New; the registries are resolved
// once and read-only afterwards.
type Engine struct {
	catalog    *catalog.Catalog
	recipes    RecipeSource
	stats      stats.Recorder
	categories map[string]CheckerFunc
	checkers   map[string]CheckerFunc
	executors  map[string]ExecutorFunc
	nearRadius float64
	webhook    *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// Option configures optional behaviour for the Engine.
type Option func(*Engine)

// WithChecker registers a checker for a property category. Dotted catalog
// properties dispatch on their prefix ("weather.temperature" -> "weather");
// plain properties dispatch on their full name.
func WithChecker(category string, fn CheckerFunc) Option {
	return func(e *Engine) {
		e.categories[category] = fn
	}
}

// WithExecutor registers or overrides the executor for an action type.
func WithExecutor(actionType string, fn ExecutorFunc) Option {
	return func(e *Engine) {
		e.executors[actionType] = fn
	}
}

// WithLogger overrides the logger used for diagnostic records.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithNearRadius overrides the default radius for the "near" operator.
func WithNearRadius(meters float64) Option {
	return func(e *Engine) {
		e.nearRadius = meters
	}
}

// WithWebhookClient overrides the HTTP client used for webhook delivery.
func WithWebhookClient(client *http.Client) Option {
	return func(e *Engine) {
		e.webhook = client
	}
}

// New constructs an Engine. Built-in checkers and executors are registered
// first so options can override them.
func New(cat *catalog.Catalog, recipes RecipeSource, recorder stats.Recorder, opts ...Option) *Engine {
	e := &Engine{
		catalog:    cat,
		recipes:    recipes,
		stats:      recorder,
		categories: make(map[string]CheckerFunc),
		executors:  make(map[string]ExecutorFunc),
		nearRadius: DefaultNearRadiusMeters,
		webhook:    &http.Client{Timeout: 10 * time.Second},
		logger:     log.New(log.Writer(), "[engine] ", log.LstdFlags),
		now:        func() time.Time { return time.Now().UTC() },
	}
	e.registerBuiltinExecutors()
	for _, opt := range opts {
		opt(e)
	}
	e.checkers = e.resolveCheckers()
	return e
}

// resolveCheckers builds the per-property dispatch table once, from the
// catalog, instead of re-deriving the category on every evaluation.
func (e *Engine) resolveCheckers() map[string]CheckerFunc {
	table := make(map[string]CheckerFunc)
	for _, prop := range e.catalog.Properties() {
		if fn := e.categoryChecker(prop.Value); fn != nil {
			table[prop.Value] = fn
			continue
		}
		switch {
		case prop.Value == catalog.PropertySportType:
			table[prop.Value] = checkSportType
		case prop.Value == catalog.PropertyGear:
			table[prop.Value] = checkGear
		case prop.Value == catalog.PropertyWeekday:
			table[prop.Value] = checkWeekday
		case prop.Value == catalog.PropertyNewRecords:
			table[prop.Value] = checkNewRecords
		case prop.Value == catalog.PropertyFirstOfDay:
			table[prop.Value] = checkFirstOfDay
		case prop.Type == catalog.TypeTime:
			table[prop.Value] = checkTime(prop.Value)
		case prop.Type == catalog.TypeLocation:
			table[prop.Value] = e.checkLocation
		default:
			table[prop.Value] = checkScalar
		}
	}
	return table
}

func (e *Engine) categoryChecker(property string) CheckerFunc {
	if fn, ok := e.categories[property]; ok {
		return fn
	}
	if idx := strings.IndexByte(property, '.'); idx > 0 {
		if fn, ok := e.categories[property[:idx]]; ok {
			return fn
		}
	}
	return nil
}

// Evaluate looks up the recipe in the user's set and runs it against the
// activity. It returns whether the recipe matched; a missing recipe ID is
// the one fatal error.
func (e *Engine) Evaluate(ctx context.Context, user User, recipeID string, act *activity.Activity) (bool, error) {
	rec, err := e.recipes.Get(ctx, user.TenantID, user.ID, recipeID)
	if err != nil {
		return false, fmt.Errorf("recipe %q: %w", recipeID, err)
	}
	return e.EvaluateRecipe(ctx, user, *rec, act)
}

// EvaluateRecipe runs an already-loaded recipe against the activity:
// condition matching, then action dispatch and stats recording on a match.
// A matched recipe counts as triggered even when actions partially fail.
func (e *Engine) EvaluateRecipe(ctx context.Context, user User, rec recipe.Recipe, act *activity.Activity) (bool, error) {
	act.EnsureUpdatedFields()

	matched := e.matches(ctx, rec, act)
	recordEvaluated(matched)
	observability.RecordEvaluation(e.now())
	if !matched {
		return false, nil
	}

	success := e.dispatch(ctx, user, act, rec)
	if e.stats != nil {
		key := stats.Key{TenantID: user.TenantID, UserID: user.ID, RecipeID: rec.ID}
		if err := e.stats.RecordTrigger(ctx, key, act.ID, success, e.now()); err != nil {
			e.logger.Printf("stats record failed (recipe=%s, activity=%s): %v", rec.ID, act.ID, err)
		}
	}
	return true, nil
}
