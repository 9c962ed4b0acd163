// Package store provides an in-memory recipe repository for local
// development and tests.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"example.com/recipes/internal/recipe"
)

type userKey struct {
	tenantID string
	userID   string
}

// Memory stores recipes in memory, keyed per user.
type Memory struct {
	mu      sync.RWMutex
	recipes map[userKey]map[string]recipe.Recipe
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{recipes: make(map[userKey]map[string]recipe.Recipe)}
}

// List implements recipe.Repository, returning recipes sorted by order then
// ID for a stable evaluation sequence.
func (m *Memory) List(ctx context.Context, tenantID, userID string) ([]recipe.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.recipes[userKey{tenantID, userID}]
	out := make([]recipe.Recipe, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get implements recipe.Repository.
func (m *Memory) Get(ctx context.Context, tenantID, userID, recipeID string) (*recipe.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.recipes[userKey{tenantID, userID}][recipeID]
	if !ok {
		return nil, recipe.ErrNotFound
	}
	return &rec, nil
}

// Save implements recipe.Repository.
func (m *Memory) Save(ctx context.Context, tenantID, userID string, rec recipe.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	key := userKey{tenantID, userID}
	if m.recipes[key] == nil {
		m.recipes[key] = make(map[string]recipe.Recipe)
	}
	m.recipes[key][rec.ID] = rec
	return nil
}

// Delete implements recipe.Repository.
func (m *Memory) Delete(ctx context.Context, tenantID, userID, recipeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := m.recipes[userKey{tenantID, userID}]
	if _, ok := byID[recipeID]; !ok {
		return recipe.ErrNotFound
	}
	delete(byID, recipeID)
	return nil
}

// DeleteUser implements recipe.Repository.
func (m *Memory) DeleteUser(ctx context.Context, tenantID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.recipes, userKey{tenantID, userID})
	return nil
}
