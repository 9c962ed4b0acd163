// Package enrichment provides HTTP lookup clients for condition categories
// the engine cannot answer from the activity record alone: weather, Garmin
// wellness, music plays, and reverse geocoding. Each client exposes an
// engine checker; lookup failures surface as checker errors, which the
// engine converts to non-matches.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/recipes/internal/activity"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("enrichment lookup %s: status %d: %s", url, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// startCoordinates extracts the activity start point, accepting the
// "lat,lon" string and two-element array shapes the ingest pipeline emits.
func startCoordinates(act *activity.Activity) (lat, lon float64, ok bool) {
	value, found := act.Get("location_start")
	if !found {
		return 0, 0, false
	}
	switch v := value.(type) {
	case []any:
		if len(v) != 2 {
			return 0, 0, false
		}
		lat, latOK := activity.ToFloat(v[0])
		lon, lonOK := activity.ToFloat(v[1])
		return lat, lon, latOK && lonOK
	case string:
		parts := strings.Split(v, ",")
		if len(parts) != 2 {
			return 0, 0, false
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		return lat, lon, err1 == nil && err2 == nil
	}
	return 0, 0, false
}
