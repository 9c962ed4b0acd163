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

// MusicClient resolves music.* conditions against the listening-history
// service. A condition matches when any track played during the activity
// window satisfies it.
type MusicClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMusicClient constructs a client with sane defaults.
func NewMusicClient(baseURL string) *MusicClient {
	return &MusicClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

type musicPlay struct {
	Artist string `json:"artist"`
	Track  string `json:"track"`
}

// Checker returns the engine checker for the music category.
func (c *MusicClient) Checker() engine.CheckerFunc {
	return func(ctx context.Context, act *activity.Activity, cond recipe.Condition) (bool, error) {
		userID, ok := act.String("user_id")
		if !ok || userID == "" {
			return false, fmt.Errorf("activity %s has no user_id", act.ID)
		}

		query := url.Values{}
		if started, ok := act.StartedAt(); ok {
			query.Set("from", started.UTC().Format(time.RFC3339))
			if seconds, ok := act.Float("elapsed_time"); ok {
				query.Set("to", started.UTC().Add(time.Duration(seconds)*time.Second).Format(time.RFC3339))
			}
		}

		var plays []musicPlay
		if err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/v1/users/%s/plays?%s", c.baseURL, userID, query.Encode()), &plays); err != nil {
			return false, err
		}

		want := fmt.Sprintf("%v", cond.Value)
		for _, play := range plays {
			have := play.Track
			if strings.TrimPrefix(cond.Property, "music.") == "artist" {
				have = play.Artist
			}
			matched, err := engine.CompareText(cond.Operator, have, want)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	}
}
