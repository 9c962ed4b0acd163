// Package events defines the cross-service event payloads the recipe
// service consumes and emits.
package events

import "time"

// ActivityCreated is the message emitted by the activity service when a new
// activity is accepted. Fields carries the full property bag recipes are
// evaluated against.
type ActivityCreated struct {
	ActivityID string         `json:"activity_id"`
	TenantID   string         `json:"tenant_id"`
	UserID     string         `json:"user_id"`
	SportType  string         `json:"sport_type"`
	StartedAt  time.Time      `json:"started_at"`
	Fields     map[string]any `json:"fields"`
	Source     string         `json:"source,omitempty"`
	Version    string         `json:"version,omitempty"`
}

// ActivityUpdated is emitted after recipe evaluation changed an activity,
// carrying the accumulated updated field names for partial persistence.
type ActivityUpdated struct {
	ActivityID     string         `json:"activity_id"`
	TenantID       string         `json:"tenant_id"`
	UserID         string         `json:"user_id"`
	UpdatedFields  []string       `json:"updated_fields"`
	Fields         map[string]any `json:"fields"`
	MatchedRecipes []string       `json:"matched_recipes"`
	OccurredAt     time.Time      `json:"occurred_at"`
}
