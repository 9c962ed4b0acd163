// Package postgres provides Postgres-backed persistence for recipes and
// their trigger stats.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/recipes/internal/recipe"
	"example.com/recipes/internal/stats"
)

//go:embed schema.sql
var schema string

// Migrate applies the repository schema. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// Repository persists recipes and stats. It implements recipe.Repository
// and stats.Recorder.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) withTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// List returns the user's recipes ordered by position then ID.
func (r *Repository) List(ctx context.Context, tenantID, userID string) ([]recipe.Recipe, error) {
	const query = `SELECT definition FROM recipes
        WHERE tenant_id=$1 AND user_id=$2
        ORDER BY position, recipe_id`

	var out []recipe.Recipe
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var definition []byte
			if err := rows.Scan(&definition); err != nil {
				return err
			}
			var rec recipe.Recipe
			if err := json.Unmarshal(definition, &rec); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single recipe, returning recipe.ErrNotFound when absent.
func (r *Repository) Get(ctx context.Context, tenantID, userID, recipeID string) (*recipe.Recipe, error) {
	const query = `SELECT definition FROM recipes
        WHERE tenant_id=$1 AND user_id=$2 AND recipe_id=$3`

	var rec recipe.Recipe
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var definition []byte
		if err := tx.QueryRow(ctx, query, tenantID, userID, recipeID).Scan(&definition); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return recipe.ErrNotFound
			}
			return err
		}
		return json.Unmarshal(definition, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save upserts a sanitized recipe definition.
func (r *Repository) Save(ctx context.Context, tenantID, userID string, rec recipe.Recipe) error {
	definition, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO recipes (tenant_id, user_id, recipe_id, position, definition, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,now(),now())
        ON CONFLICT (tenant_id, user_id, recipe_id)
        DO UPDATE SET position=EXCLUDED.position, definition=EXCLUDED.definition, updated_at=now()`

	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt, tenantID, userID, rec.ID, rec.Order, definition)
		return err
	})
}

// Delete removes a single recipe.
func (r *Repository) Delete(ctx context.Context, tenantID, userID, recipeID string) error {
	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM recipes WHERE tenant_id=$1 AND user_id=$2 AND recipe_id=$3`, tenantID, userID, recipeID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return recipe.ErrNotFound
		}
		return nil
	})
}

// DeleteUser removes all of the user's recipes.
func (r *Repository) DeleteUser(ctx context.Context, tenantID, userID string) error {
	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM recipes WHERE tenant_id=$1 AND user_id=$2`, tenantID, userID)
		return err
	})
}

// RecordTrigger implements stats.Recorder.
func (r *Repository) RecordTrigger(ctx context.Context, key stats.Key, activityID string, success bool, at time.Time) error {
	const stmt = `INSERT INTO recipe_stats (tenant_id, user_id, recipe_id, trigger_count, failure_count, last_triggered_at, last_activity_id, last_success)
        VALUES ($1,$2,$3,1,$4,$5,$6,$7)
        ON CONFLICT (tenant_id, user_id, recipe_id)
        DO UPDATE SET trigger_count=recipe_stats.trigger_count+1,
            failure_count=recipe_stats.failure_count+$4,
            last_triggered_at=EXCLUDED.last_triggered_at,
            last_activity_id=EXCLUDED.last_activity_id,
            last_success=EXCLUDED.last_success`

	failures := 0
	if !success {
		failures = 1
	}
	return r.withTenant(ctx, key.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt, key.TenantID, key.UserID, key.RecipeID, failures, at, activityID, success)
		return err
	})
}

// Get implements stats.Recorder. A missing row returns nil without error.
func (r *Repository) GetStats(ctx context.Context, key stats.Key) (*stats.Stats, error) {
	const query = `SELECT trigger_count, failure_count, last_triggered_at, last_activity_id, last_success
        FROM recipe_stats WHERE tenant_id=$1 AND user_id=$2 AND recipe_id=$3`

	entry := stats.Stats{Key: key}
	found := false
	err := r.withTenant(ctx, key.TenantID, func(tx pgx.Tx) error {
		var lastTriggered *time.Time
		var lastActivity *string
		err := tx.QueryRow(ctx, query, key.TenantID, key.UserID, key.RecipeID).
			Scan(&entry.TriggerCount, &entry.FailureCount, &lastTriggered, &lastActivity, &entry.LastSuccess)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		if lastTriggered != nil {
			entry.LastTriggeredAt = *lastTriggered
		}
		if lastActivity != nil {
			entry.LastActivityID = *lastActivity
		}
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &entry, nil
}

// DeleteUserStats removes every stats row owned by the user.
func (r *Repository) DeleteUserStats(ctx context.Context, tenantID, userID string) error {
	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM recipe_stats WHERE tenant_id=$1 AND user_id=$2`, tenantID, userID)
		return err
	})
}

// StatsRecorder adapts the repository to the stats.Recorder interface,
// whose Get/DeleteUser names collide with the recipe methods.
type StatsRecorder struct {
	repo *Repository
}

// NewStatsRecorder wraps the repository as a stats.Recorder.
func NewStatsRecorder(repo *Repository) *StatsRecorder {
	return &StatsRecorder{repo: repo}
}

// RecordTrigger implements stats.Recorder.
func (s *StatsRecorder) RecordTrigger(ctx context.Context, key stats.Key, activityID string, success bool, at time.Time) error {
	return s.repo.RecordTrigger(ctx, key, activityID, success, at)
}

// Get implements stats.Recorder.
func (s *StatsRecorder) Get(ctx context.Context, key stats.Key) (*stats.Stats, error) {
	return s.repo.GetStats(ctx, key)
}

// DeleteUser implements stats.Recorder.
func (s *StatsRecorder) DeleteUser(ctx context.Context, tenantID, userID string) error {
	return s.repo.DeleteUserStats(ctx, tenantID, userID)
}
