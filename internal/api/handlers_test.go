package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/recipes/internal/auth"
	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/recipe"
	"example.com/recipes/internal/stats"
	"example.com/recipes/internal/store"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	repo := store.NewMemory()
	recorder := stats.NewMemoryRecorder()
	cat := catalog.Default()
	service := recipe.NewService(repo, cat, recorder)
	eng := engine.New(cat, repo, recorder)

	mux := http.NewServeMux()
	NewHandler(service, eng).RegisterRoutes(mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target, body string, scopes ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if len(scopes) > 0 {
		scopeSet := make(map[string]struct{}, len(scopes))
		for _, s := range scopes {
			scopeSet[s] = struct{}{}
		}
		claims := &auth.Claims{Subject: "u1", TenantID: "t1", Scopes: scopeSet}
		req = req.WithContext(auth.WithClaims(context.Background(), claims))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validDefinition = `{
	"title": "commute tagger",
	"conditions": [{"property": "sport_type", "operator": "=", "value": "Ride"}],
	"actions": [{"type": "mark_commute"}]
}`

func TestCreateRecipe(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodPost, "/v1/recipes", validDefinition, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusCreated, resp.Code)

	var view RecipeView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.NotEmpty(t, view.Recipe.ID)
	require.Equal(t, "commute tagger", view.Recipe.Title)
	require.Contains(t, view.Summary, "Mark as commute")
	require.Empty(t, view.Warnings)
}

func TestCreateRecipeReturnsWarnings(t *testing.T) {
	mux := newTestMux(t)

	definition := `{
		"title": "with extras",
		"legacy_flag": true,
		"conditions": [{"property": "sport_type", "operator": "=", "value": "Ride"}],
		"actions": [{"type": "mute"}]
	}`
	resp := doRequest(mux, http.MethodPost, "/v1/recipes", definition, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusCreated, resp.Code)

	var view RecipeView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.Equal(t, []string{`dropped unknown field "legacy_flag"`}, view.Warnings)
}

func TestCreateRecipeValidationFailure(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodPost, "/v1/recipes", `{"title": "no actions"}`, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "validation_failed", body["type"])
}

func TestRecipeScopes(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodPost, "/v1/recipes", validDefinition)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doRequest(mux, http.MethodPost, "/v1/recipes", validDefinition, auth.ScopeRecipesRead)
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = doRequest(mux, http.MethodGet, "/v1/recipes", "", auth.ScopeRecipesRead)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestGetUpdateDeleteRecipe(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodPost, "/v1/recipes", validDefinition, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created RecipeView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	id := created.Recipe.ID

	resp = doRequest(mux, http.MethodGet, "/v1/recipes/"+id, "", auth.ScopeRecipesRead)
	require.Equal(t, http.StatusOK, resp.Code)

	updated := `{
		"title": "renamed",
		"conditions": [{"property": "sport_type", "operator": "=", "value": "Ride"}],
		"actions": [{"type": "mute"}]
	}`
	resp = doRequest(mux, http.MethodPut, "/v1/recipes/"+id, updated, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusOK, resp.Code)

	var view RecipeView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.Equal(t, id, view.Recipe.ID)
	require.Equal(t, "renamed", view.Recipe.Title)

	resp = doRequest(mux, http.MethodDelete, "/v1/recipes/"+id, "", auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(mux, http.MethodGet, "/v1/recipes/"+id, "", auth.ScopeRecipesRead)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEvaluateRecipeDryRun(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodPost, "/v1/recipes", validDefinition, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created RecipeView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	payload := `{"activity_id": "act-1", "fields": {"sport_type": "Ride", "distance": 12.5}}`
	resp = doRequest(mux, http.MethodPost, "/v1/recipes/"+created.Recipe.ID+"/evaluate", payload, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusOK, resp.Code)

	var result EvaluateResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.True(t, result.Matched)
	require.Equal(t, []string{"commute"}, result.UpdatedFields)
	require.Equal(t, true, result.Fields["commute"])
}

func TestEvaluateMissingRecipe(t *testing.T) {
	mux := newTestMux(t)

	payload := `{"activity_id": "act-1", "fields": {"sport_type": "Ride"}}`
	resp := doRequest(mux, http.MethodPost, "/v1/recipes/absent/evaluate", payload, auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteUserRequiresAdminScope(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodDelete, "/v1/users/u1", "", auth.ScopeRecipesWrite)
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = doRequest(mux, http.MethodDelete, "/v1/users/u1", "", auth.ScopeUsersAdmin)
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)

	resp := doRequest(mux, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "ok", resp.Body.String())
}
