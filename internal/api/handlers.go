// Package api exposes HTTP handlers for the recipe service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/auth"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/recipe"
)

// Handler coordinates HTTP requests with the recipe service and engine.
type Handler struct {
	service *recipe.Service
	engine  *engine.Engine
}

// NewHandler builds a Handler.
func NewHandler(service *recipe.Service, eng *engine.Engine) *Handler {
	return &Handler{service: service, engine: eng}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/recipes", h.recipes)
	mux.HandleFunc("/v1/recipes/", h.recipeByID)
	mux.HandleFunc("/v1/users/", h.userByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) recipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRecipe(w, r)
	case http.MethodGet:
		h.listRecipes(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recipeByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/recipes/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing recipe id")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/evaluate"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		h.evaluateRecipe(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getRecipe(w, r, rest)
	case http.MethodPut:
		h.updateRecipe(w, r, rest)
	case http.MethodDelete:
		h.deleteRecipe(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) userByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeUsersAdmin) {
		writeError(w, http.StatusForbidden, "forbidden", "scope users:admin required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), claims.TenantID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := h.writeAccess(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	rec, warnings, err := h.service.CreateRecipe(r.Context(), claims.TenantID, userID, body)
	if err != nil {
		writeRecipeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecipeView(h, *rec, warnings))
}

func (h *Handler) updateRecipe(w http.ResponseWriter, r *http.Request, id string) {
	claims, userID, ok := h.writeAccess(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	rec, warnings, err := h.service.UpdateRecipe(r.Context(), claims.TenantID, userID, id, body)
	if err != nil {
		writeRecipeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecipeView(h, *rec, warnings))
}

func (h *Handler) getRecipe(w http.ResponseWriter, r *http.Request, id string) {
	claims, userID, ok := h.readAccess(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetRecipe(r.Context(), claims.TenantID, userID, id)
	if err != nil {
		writeRecipeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecipeView(h, *rec, nil))
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := h.readAccess(w, r)
	if !ok {
		return
	}

	recs, err := h.service.ListRecipes(r.Context(), claims.TenantID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]RecipeView, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toRecipeView(h, rec, nil))
	}
	writeJSON(w, http.StatusOK, ListRecipesResponse{Items: items})
}

func (h *Handler) deleteRecipe(w http.ResponseWriter, r *http.Request, id string) {
	claims, userID, ok := h.writeAccess(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteRecipe(r.Context(), claims.TenantID, userID, id); err != nil {
		writeRecipeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// evaluateRecipe runs a synchronous dry-run of one recipe against a caller
// supplied activity payload. The activity is never persisted; the response
// carries the fields the recipe would have changed.
func (h *Handler) evaluateRecipe(w http.ResponseWriter, r *http.Request, id string) {
	claims, userID, ok := h.writeAccess(w, r)
	if !ok {
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	act := activity.New(req.ActivityID, req.Fields)
	user := engine.User{ID: userID, TenantID: claims.TenantID}
	matched, err := h.engine.Evaluate(r.Context(), user, id, act)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		RecipeID:      id,
		ActivityID:    req.ActivityID,
		Matched:       matched,
		UpdatedFields: act.UpdatedFields(),
		Fields:        act.Fields,
	})
}

// readAccess resolves claims and the target user for read endpoints.
func (h *Handler) readAccess(w http.ResponseWriter, r *http.Request) (*auth.Claims, string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, "", false
	}
	if !claims.HasScope(auth.ScopeRecipesRead) && !claims.HasScope(auth.ScopeRecipesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope recipes:read required")
		return nil, "", false
	}
	return claims, targetUser(claims, r), true
}

// writeAccess resolves claims and the target user for mutating endpoints.
func (h *Handler) writeAccess(w http.ResponseWriter, r *http.Request) (*auth.Claims, string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, "", false
	}
	if !claims.HasScope(auth.ScopeRecipesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope recipes:write required")
		return nil, "", false
	}
	return claims, targetUser(claims, r), true
}

// targetUser is the token subject unless an admin addresses another user
// via the user_id query parameter.
func targetUser(claims *auth.Claims, r *http.Request) string {
	if id := r.URL.Query().Get("user_id"); id != "" && claims.HasScope(auth.ScopeUsersAdmin) {
		return id
	}
	return claims.Subject
}

// EvaluateRequest is the payload for POST /v1/recipes/{id}/evaluate.
type EvaluateRequest struct {
	ActivityID string         `json:"activity_id"`
	Fields     map[string]any `json:"fields"`
}

// Validate ensures request correctness.
func (r EvaluateRequest) Validate() error {
	if strings.TrimSpace(r.ActivityID) == "" {
		return errors.New("activity_id is required")
	}
	if len(r.Fields) == 0 {
		return errors.New("fields is required")
	}
	return nil
}

// EvaluateResponse describes the dry-run outcome.
type EvaluateResponse struct {
	RecipeID      string         `json:"recipe_id"`
	ActivityID    string         `json:"activity_id"`
	Matched       bool           `json:"matched"`
	UpdatedFields []string       `json:"updated_fields"`
	Fields        map[string]any `json:"fields"`
}

// RecipeView exposes a stored recipe plus its human-readable summary and
// any warnings produced while sanitizing the submitted definition.
type RecipeView struct {
	Recipe   recipe.Recipe `json:"recipe"`
	Summary  string        `json:"summary"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ListRecipesResponse packages list results.
type ListRecipesResponse struct {
	Items []RecipeView `json:"items"`
}

func toRecipeView(h *Handler, rec recipe.Recipe, warnings []string) RecipeView {
	return RecipeView{
		Recipe:   rec,
		Summary:  rec.Summary(h.service.Catalog()),
		Warnings: warnings,
	}
}

func writeRecipeError(w http.ResponseWriter, err error) {
	var verr *recipe.ValidationError
	switch {
	case errors.Is(err, recipe.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "recipe not found")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
