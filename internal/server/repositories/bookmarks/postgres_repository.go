package bookmarks

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/deltacheats/internal/dbx"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) DeleteByGame(ctx context.Context, gameID string) error {
	query :=
		`DELETE FROM bookmarks
		 WHERE gameid = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, gameID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, b models.Bookmark) error {
	query :=
		`INSERT INTO bookmarks (gameid, cheat_name, cheat_code)
		 VALUES ($1, $2, $3)
		 `
	if _, err := r.db.ExecContext(ctx, query, b.GameID, b.CheatName, b.CheatCode); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByGame(ctx context.Context, gameID string) ([]models.Bookmark, error) {
	query :=
		`SELECT gameid, cheat_name, cheat_code FROM bookmarks
		 WHERE gameid = $1
		 ORDER BY id
		 `
	items, err := dbx.Collect(ctx, r.db, scanBookmark, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Bookmark, error) {
	query :=
		`SELECT gameid, cheat_name, cheat_code FROM bookmarks
		 ORDER BY gameid, id
		 `
	items, err := dbx.Collect(ctx, r.db, scanBookmark, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}
