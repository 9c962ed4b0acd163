// Package recipe defines user automation rules and their validation. A recipe
// belongs to exactly one user and only enters storage through Sanitize.
package recipe

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a recipe ID is absent from the user's set.
var ErrNotFound = errors.New("recipe not found")

// BoolOp combines condition results.
type BoolOp string

const (
	OpAnd BoolOp = "AND"
	OpOr  BoolOp = "OR"
)

// Recipe is a declarative automation rule: conditions matched against an
// activity plus actions applied when the conditions hold.
type Recipe struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Order      int         `json:"order"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	// Op combines different-property condition groups; SamePropertyOp
	// combines conditions sharing one property. Defaults: AND, and the
	// value of Op respectively.
	Op             BoolOp `json:"op,omitempty"`
	SamePropertyOp BoolOp `json:"same_property_op,omitempty"`
	// DefaultFor marks the recipe as the catch-all for a sport type. It
	// matches purely on sport type equality, bypassing conditions.
	DefaultFor string `json:"default_for,omitempty"`
	Disabled   bool   `json:"disabled,omitempty"`
	// KillSwitch stops evaluation of further recipes once this one matched.
	KillSwitch bool `json:"kill_switch,omitempty"`
}

// Condition is a single predicate over one activity property. FriendlyValue
// is a cosmetic label for UI display and is never evaluated.
type Condition struct {
	Property      string `json:"property"`
	Operator      string `json:"operator"`
	Value         any    `json:"value"`
	FriendlyValue string `json:"friendly_value,omitempty"`
}

// Action is a single mutation or side effect applied to a matched activity.
// Boolean-flag actions may omit Value.
type Action struct {
	Type          string `json:"type"`
	Value         string `json:"value,omitempty"`
	FriendlyValue string `json:"friendly_value,omitempty"`
}

// ValidationError reports the first invariant breach found in a recipe.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Repository captures per-user recipe persistence.
type Repository interface {
	List(ctx context.Context, tenantID, userID string) ([]Recipe, error)
	Get(ctx context.Context, tenantID, userID, recipeID string) (*Recipe, error)
	Save(ctx context.Context, tenantID, userID string, rec Recipe) error
	Delete(ctx context.Context, tenantID, userID, recipeID string) error
	DeleteUser(ctx context.Context, tenantID, userID string) error
}
