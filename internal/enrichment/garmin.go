package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/recipe"
)

// GarminClient resolves garmin.* conditions against the Garmin wellness
// proxy for the activity owner.
type GarminClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGarminClient constructs a client with sane defaults.
func NewGarminClient(baseURL string) *GarminClient {
	return &GarminClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

type garminWellness struct {
	VO2Max       float64 `json:"vo2max"`
	TrainingLoad float64 `json:"training_load"`
	SleepScore   float64 `json:"sleep_score"`
}

// Checker returns the engine checker for the garmin category.
func (c *GarminClient) Checker() engine.CheckerFunc {
	return func(ctx context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
		userID, ok := act.String("user_id")
		if !ok || userID == "" {
			return false, fmt.Errorf("activity %s has no user_id", act.ID)
		}

		url := fmt.Sprintf("%s/v1/users/%s/wellness", c.baseURL, userID)
		if started, ok := act.StartedAt(); ok {
			url = fmt.Sprintf("%s?date=%s", url, started.UTC().Format("2006-01-02"))
		}

		var wellness garminWellness
		if err := getJSON(ctx, c.httpClient, url, &wellness); err != nil {
			return false, err
		}

		switch strings.TrimPrefix(cond.Property, "garmin.") {
		case "vo2max":
			return compareNumberCondition(cond, wellness.VO2Max)
		case "training_load":
			return compareNumberCondition(cond, wellness.TrainingLoad)
		case "sleep_score":
			return compareNumberCondition(cond, wellness.SleepScore)
		}
		return false, fmt.Errorf("unknown garmin property %q", cond.Property)
	}
}
