package enrichment

import (
	"context"
	"fmt"
	"net/http"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/recipe"
)

// GeocodeClient resolves the location_city condition by reverse geocoding
// the activity start point.
type GeocodeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeocodeClient constructs a client with sane defaults.
func NewGeocodeClient(baseURL string) *GeocodeClient {
	return &GeocodeClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

type geocodeResult struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Checker returns the engine checker for the location_city property.
func (c *GeocodeClient) Checker() engine.CheckerFunc {
	return func(ctx context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
		lat, lon, ok := startCoordinates(act)
		if !ok {
			return false, fmt.Errorf("activity %s has no start coordinates", act.ID)
		}

		var result geocodeResult
		url := fmt.Sprintf("%s/v1/reverse?lat=%f&lon=%f", c.baseURL, lat, lon)
		if err := getJSON(ctx, c.httpClient, url, &result); err != nil {
			return false, err
		}

		return engine.CompareText(cond.Operator, result.City, fmt.Sprintf("%v", cond.Value))
	}
}
