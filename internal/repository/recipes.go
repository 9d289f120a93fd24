package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
)

// fixed width so created_at sorts as text
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

type RecipeRepository interface {
	// Save stores rec. When a recipe from the same file (by content hash) already
	// exists, nothing is written and its id is returned with dedup=true.
	Save(ctx context.Context, rec *recipe.RecipeRecord) (id uuid.UUID, dedup bool, err error)
	FindByFileHash(ctx context.Context, hash string) (*recipe.RecipeRecord, error)
	List(ctx context.Context, limit int) ([]*recipe.RecipeRecord, error)
}

type recipeRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRecipeRepository(db *DB, logger *slog.Logger) RecipeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recipeRepo{db: db, logger: logger}
}

func (r *recipeRepo) Save(ctx context.Context, rec *recipe.RecipeRecord) (uuid.UUID, bool, error) {
	if rec == nil {
		return uuid.Nil, false, common.NewAppError("INVALID_INPUT", "nil recipe", common.ErrInvalidInput)
	}
	hash := rec.Source.FileHash
	if hash != "" {
		if id, ok, err := r.existing(ctx, hash); err != nil || ok {
			return id, ok, err
		}
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("encode recipe: %w", err)
	}
	var fileHash sql.NullString
	if hash != "" {
		fileHash = sql.NullString{String: hash, Valid: true}
	}

	// a concurrent save of the same file lands on the unique file_hash index
	q := r.db.rebind(`INSERT INTO recipes (recipe_id, name, category, file_hash, total_cost, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_hash) DO NOTHING`)
	res, err := r.db.SQL.ExecContext(ctx, q,
		rec.ID.String(), rec.Name, rec.Category, fileHash, rec.TotalCost,
		rec.Audit.CreatedAt.UTC().Format(createdAtLayout), string(data))
	if err != nil {
		r.logger.Error("failed to save recipe", "recipe_id", rec.ID, "name", rec.Name, "error", err)
		return uuid.Nil, false, common.NewAppError("DATABASE_ERROR", "save recipe", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 && hash != "" {
		id, ok, err := r.existing(ctx, hash)
		if err != nil {
			return uuid.Nil, false, err
		}
		if ok {
			return id, true, nil
		}
	}
	r.logger.Info("recipe.save.ok", "recipe_id", rec.ID, "name", rec.Name)
	return rec.ID, false, nil
}

// existing reports the id of the recipe already stored for hash.
func (r *recipeRepo) existing(ctx context.Context, hash string) (uuid.UUID, bool, error) {
	found, err := r.FindByFileHash(ctx, hash)
	if err == nil {
		r.logger.Info("recipe.save.dedup", "recipe_id", found.ID, "file_hash", hash)
		return found.ID, true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	return uuid.Nil, false, err
}

func (r *recipeRepo) FindByFileHash(ctx context.Context, hash string) (*recipe.RecipeRecord, error) {
	row := r.db.SQL.QueryRowContext(ctx,
		r.db.rebind(`SELECT CAST(data AS TEXT) FROM recipes WHERE file_hash = ?`), hash)
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recipe with file hash %s: %w", hash, common.ErrNotFound)
		}
		r.logger.Error("failed to get recipe by hash", "file_hash", hash, "error", err)
		return nil, err
	}
	return decodeRecipe(data)
}

func (r *recipeRepo) List(ctx context.Context, limit int) ([]*recipe.RecipeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.SQL.QueryContext(ctx,
		r.db.rebind(`SELECT CAST(data AS TEXT) FROM recipes ORDER BY created_at DESC, name LIMIT ?`), limit)
	if err != nil {
		r.logger.Error("failed to list recipes", "error", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*recipe.RecipeRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		rec, err := decodeRecipe(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decodeRecipe(data string) (*recipe.RecipeRecord, error) {
	var rec recipe.RecipeRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}
	return &rec, nil
}
