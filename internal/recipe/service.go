package recipe

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/recipes/internal/catalog"
	"example.com/recipes/internal/observability"
)

// StatsCleanup is the hook invoked when a user is deleted so that trigger
// stats can be removed by their owning subsystem.
type StatsCleanup interface {
	DeleteUser(ctx context.Context, tenantID, userID string) error
}

// Service orchestrates recipe workflows: sanitized create/update, lookup,
// and user-deletion cleanup.
type Service struct {
	repo    Repository
	catalog *catalog.Catalog
	stats   StatsCleanup
}

// NewService constructs a Service.
func NewService(repo Repository, cat *catalog.Catalog, stats StatsCleanup) *Service {
	return &Service{repo: repo, catalog: cat, stats: stats}
}

// Catalog exposes the catalog consulted for validation and summaries.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// CreateRecipe sanitizes the submitted definition, assigns an ID, and
// persists it. Returns the stored recipe plus warnings for any fields
// dropped by schema whitelisting.
func (s *Service) CreateRecipe(ctx context.Context, tenantID, userID string, definition []byte) (*Recipe, []string, error) {
	rec, warnings, err := ParseDefinition(definition)
	if err != nil {
		return nil, nil, err
	}
	sanitized, err := rec.Sanitize(s.catalog)
	if err != nil {
		return nil, warnings, err
	}
	if sanitized.ID == "" {
		sanitized.ID = uuid.NewString()
	}
	if err := s.repo.Save(ctx, tenantID, userID, sanitized); err != nil {
		return nil, warnings, err
	}
	observability.RecordRecipeSaved(time.Now().UTC())
	return &sanitized, warnings, nil
}

// UpdateRecipe replaces an existing recipe after sanitization. The recipe
// must already exist; the stored ID wins over any ID in the definition.
func (s *Service) UpdateRecipe(ctx context.Context, tenantID, userID, recipeID string, definition []byte) (*Recipe, []string, error) {
	if _, err := s.repo.Get(ctx, tenantID, userID, recipeID); err != nil {
		return nil, nil, err
	}
	rec, warnings, err := ParseDefinition(definition)
	if err != nil {
		return nil, nil, err
	}
	rec.ID = recipeID
	sanitized, err := rec.Sanitize(s.catalog)
	if err != nil {
		return nil, warnings, err
	}
	if err := s.repo.Save(ctx, tenantID, userID, sanitized); err != nil {
		return nil, warnings, err
	}
	observability.RecordRecipeSaved(time.Now().UTC())
	return &sanitized, warnings, nil
}

// GetRecipe fetches a single recipe.
func (s *Service) GetRecipe(ctx context.Context, tenantID, userID, recipeID string) (*Recipe, error) {
	return s.repo.Get(ctx, tenantID, userID, recipeID)
}

// ListRecipes returns the user's recipes in evaluation order.
func (s *Service) ListRecipes(ctx context.Context, tenantID, userID string) ([]Recipe, error) {
	return s.repo.List(ctx, tenantID, userID)
}

// DeleteRecipe removes a single recipe. Its stats row is left behind and
// cleaned up with the owning user.
func (s *Service) DeleteRecipe(ctx context.Context, tenantID, userID, recipeID string) error {
	return s.repo.Delete(ctx, tenantID, userID, recipeID)
}

// DeleteUser removes all recipes for the user and invokes the stats cleanup
// hook. Called explicitly by the owning subsystem when a user is deleted.
func (s *Service) DeleteUser(ctx context.Context, tenantID, userID string) error {
	if err := s.repo.DeleteUser(ctx, tenantID, userID); err != nil {
		return err
	}
	if s.stats != nil {
		return s.stats.DeleteUser(ctx, tenantID, userID)
	}
	return nil
}
