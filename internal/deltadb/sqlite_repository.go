package deltadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/dbx"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"github.com/dmitrijs2005/deltacheats/internal/timex"
)

// SQLiteGameRepository implements GameRepository over a DBTX.
type SQLiteGameRepository struct {
	db dbx.DBTX
}

func NewGameRepository(db dbx.DBTX) *SQLiteGameRepository {
	return &SQLiteGameRepository{db: db}
}

func (r *SQLiteGameRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.ForeignGame, error) {
	query := `SELECT Z_PK, ZIDENTIFIER, ZNAME FROM ZGAME WHERE ZIDENTIFIER = ? ORDER BY Z_PK LIMIT 1`

	var (
		g    models.ForeignGame
		name sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(&g.PK, &g.Identifier, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select game: %w", err)
	}
	g.Name = name.String
	return &g, nil
}

// SQLiteCheatRepository implements CheatRepository over a DBTX.
type SQLiteCheatRepository struct {
	db dbx.DBTX
}

func NewCheatRepository(db dbx.DBTX) *SQLiteCheatRepository {
	return &SQLiteCheatRepository{db: db}
}

func (r *SQLiteCheatRepository) ListJoined(ctx context.Context) ([]StoredCheat, error) {
	query := `SELECT ZCHEAT.ZNAME, ZCHEAT.ZCODE, ZCHEAT.ZISENABLED, ZGAME.ZIDENTIFIER
		FROM ZCHEAT
		JOIN ZGAME ON ZCHEAT.ZGAME = ZGAME.Z_PK
		WHERE ZCHEAT.ZGAME IS NOT NULL
		ORDER BY ZCHEAT.Z_PK`

	items, err := dbx.Collect(ctx, r.db, func(rows *sql.Rows) (StoredCheat, error) {
		var (
			c                StoredCheat
			name, code, game sql.NullString
			enabled          sql.NullInt64
		)
		if err := rows.Scan(&name, &code, &enabled, &game); err != nil {
			return c, err
		}
		c.Name = name.String
		c.Code = code.String
		c.Enabled = enabled.Int64 != 0
		c.GameIdentifier = game.String
		return c, nil
	}, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select cheats: %w", err)
	}
	return items, nil
}

func (r *SQLiteCheatRepository) GetByName(ctx context.Context, gamePK int64, name string) (*models.ForeignCheat, error) {
	query := `SELECT Z_PK, Z_ENT, Z_OPT, ZISENABLED, ZGAME, ZCREATIONDATE, ZMODIFIEDDATE,
			ZCODE, ZIDENTIFIER, ZNAME, ZTYPE
		FROM ZCHEAT WHERE ZGAME = ? AND ZNAME = ? ORDER BY Z_PK LIMIT 1`

	var (
		c                    models.ForeignCheat
		ent, opt, enabled    sql.NullInt64
		created, modified    any
		code, identifier, nm sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, gamePK, name).Scan(
		&c.PK, &ent, &opt, &enabled, &c.GamePK, &created, &modified,
		&code, &identifier, &nm, &c.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select cheat: %w", err)
	}
	c.Entity = ent.Int64
	c.Opt = opt.Int64
	c.Enabled = enabled.Int64 != 0
	c.CreatedAt = decodeTimestamp(created)
	c.ModifiedAt = decodeTimestamp(modified)
	c.Code = code.String
	c.Identifier = identifier.String
	c.Name = nm.String
	return &c, nil
}

func (r *SQLiteCheatRepository) UpdateState(ctx context.Context, pk int64, enabled bool, code string, modified time.Time) error {
	query := `UPDATE ZCHEAT SET ZISENABLED = ?, ZCODE = ?, ZMODIFIEDDATE = ? WHERE Z_PK = ?`
	res, err := r.db.ExecContext(ctx, query, boolInt(enabled), code, timex.ToReferenceSeconds(modified), pk)
	if err != nil {
		return fmt.Errorf("failed to update cheat: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func (r *SQLiteCheatRepository) Insert(ctx context.Context, c *models.ForeignCheat) error {
	query := `INSERT INTO ZCHEAT (Z_PK, Z_ENT, Z_OPT, ZISENABLED, ZGAME,
			ZCREATIONDATE, ZMODIFIEDDATE, ZCODE, ZIDENTIFIER, ZNAME, ZTYPE)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.PK, c.Entity, c.Opt, boolInt(c.Enabled), c.GamePK,
		timex.ToReferenceSeconds(c.CreatedAt), timex.ToReferenceSeconds(c.ModifiedAt),
		c.Code, c.Identifier, c.Name, c.Type)
	if err != nil {
		return fmt.Errorf("failed to insert cheat: %w", err)
	}
	return nil
}

func (r *SQLiteCheatRepository) MaxPK(ctx context.Context) (int64, error) {
	var pk int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(Z_PK), 0) FROM ZCHEAT`).Scan(&pk); err != nil {
		return 0, fmt.Errorf("failed to select max key: %w", err)
	}
	return pk, nil
}

func (r *SQLiteCheatRepository) SampleType(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT ZTYPE FROM ZCHEAT WHERE ZTYPE IS NOT NULL ORDER BY Z_PK LIMIT 1`).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select cheat type: %w", err)
	}
	return blob, nil
}

// SQLitePrimaryKeyRepository implements PrimaryKeyRepository over a DBTX.
type SQLitePrimaryKeyRepository struct {
	db dbx.DBTX
}

func NewPrimaryKeyRepository(db dbx.DBTX) *SQLitePrimaryKeyRepository {
	return &SQLitePrimaryKeyRepository{db: db}
}

func (r *SQLitePrimaryKeyRepository) EntityNumber(ctx context.Context, name string) (int64, error) {
	var ent int64
	err := r.db.QueryRowContext(ctx, `SELECT Z_ENT FROM Z_PRIMARYKEY WHERE Z_NAME = ?`, name).Scan(&ent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("failed to select entity %s: %w", name, err)
	}
	return ent, nil
}

func (r *SQLitePrimaryKeyRepository) RaiseMax(ctx context.Context, entity, max int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE Z_PRIMARYKEY SET Z_MAX = ? WHERE Z_ENT = ? AND (Z_MAX IS NULL OR Z_MAX < ?)`,
		max, entity, max)
	if err != nil {
		return fmt.Errorf("failed to update primary key table: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// decodeTimestamp accepts the encodings found in emulator stores: Core Data
// reference-date seconds, driver-parsed times and plain text dates.
func decodeTimestamp(v any) time.Time {
	switch t := v.(type) {
	case float64:
		return timex.FromReferenceSeconds(t)
	case int64:
		return timex.FromReferenceSeconds(float64(t))
	case time.Time:
		return t.UTC()
	case string:
		return parseTextTime(t)
	case []byte:
		return parseTextTime(string(t))
	default:
		return time.Time{}
	}
}

func parseTextTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
