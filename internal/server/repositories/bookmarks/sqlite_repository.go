package bookmarks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/deltacheats/internal/dbx"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) DeleteByGame(ctx context.Context, gameID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE gameid = ?`, gameID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, b models.Bookmark) error {
	query := `INSERT INTO bookmarks (gameid, cheat_name, cheat_code) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, b.GameID, b.CheatName, b.CheatCode); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByGame(ctx context.Context, gameID string) ([]models.Bookmark, error) {
	query := `SELECT gameid, cheat_name, cheat_code FROM bookmarks WHERE gameid = ? ORDER BY id`
	items, err := dbx.Collect(ctx, r.db, scanBookmark, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.Bookmark, error) {
	query := `SELECT gameid, cheat_name, cheat_code FROM bookmarks ORDER BY gameid, id`
	items, err := dbx.Collect(ctx, r.db, scanBookmark, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func scanBookmark(rows *sql.Rows) (models.Bookmark, error) {
	var b models.Bookmark
	err := rows.Scan(&b.GameID, &b.CheatName, &b.CheatCode)
	return b, err
}
