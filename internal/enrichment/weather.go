package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/recipe"
)

// WeatherClient resolves weather.* conditions against the platform weather
// service, using the activity's start point and time.
type WeatherClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWeatherClient constructs a client with sane defaults.
func NewWeatherClient(baseURL string) *WeatherClient {
	return &WeatherClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

type weatherObservation struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Condition   string  `json:"condition"`
}

// Checker returns the engine checker for the weather category.
func (c *WeatherClient) Checker() engine.CheckerFunc {
	return func(ctx context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
		lat, lon, ok := startCoordinates(act)
		if !ok {
			return false, fmt.Errorf("activity %s has no start coordinates", act.ID)
		}

		query := url.Values{}
		query.Set("lat", fmt.Sprintf("%f", lat))
		query.Set("lon", fmt.Sprintf("%f", lon))
		if started, ok := act.StartedAt(); ok {
			query.Set("at", started.UTC().Format(time.RFC3339))
		}

		var obs weatherObservation
		if err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/v1/observations?%s", c.baseURL, query.Encode()), &obs); err != nil {
			return false, err
		}

		switch strings.TrimPrefix(cond.Property, "weather.") {
		case "temperature":
			return compareNumberCondition(cond, obs.Temperature)
		case "humidity":
			return compareNumberCondition(cond, obs.Humidity)
		case "wind_speed":
			return compareNumberCondition(cond, obs.WindSpeed)
		case "condition":
			return engine.CompareText(cond.Operator, obs.Condition, fmt.Sprintf("%v", cond.Value))
		}
		return false, fmt.Errorf("unknown weather property %q", cond.Property)
	}
}

func compareNumberCondition(cond recipe.Condition, have float64) (bool, error) {
	want, ok := activity.ToFloat(cond.Value)
	if !ok {
		return false, fmt.Errorf("condition value %v is not a number", cond.Value)
	}
	return engine.CompareNumbers(cond.Operator, have, want)
}
