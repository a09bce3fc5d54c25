package deltadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/dbx"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const busyTimeoutMS = 5000

// Store is an opened emulator store file.
type Store struct {
	db     *sql.DB
	format Format
}

// Open opens the store at path and checks its schema and format version.
// A missing file is reported as common.ErrNoStore; the file is never created.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoStore, err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := ValidateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	f, err := DetectFormat(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, format: f}, nil
}

// Format returns the detected store format.
func (s *Store) Format() Format {
	return s.format
}

// Close checkpoints any write-ahead log into the main file and closes the
// database.
func (s *Store) Close() error {
	_, _ = s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	return s.db.Close()
}

// Import builds the overlay for expectedKey. Every cheat row must belong to
// a game whose identifier equals expectedKey; otherwise the whole import
// fails with common.ErrJoinMismatch and no overlay is returned.
func (s *Store) Import(ctx context.Context, expectedKey string) (models.Overlay, error) {
	rows, err := NewCheatRepository(s.db).ListJoined(ctx)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		if r.GameIdentifier != expectedKey {
			return nil, fmt.Errorf("%w: found %q, expected %q", common.ErrJoinMismatch, r.GameIdentifier, expectedKey)
		}
	}

	overlay := make(models.Overlay, len(rows))
	for _, r := range rows {
		overlay[r.Name] = models.OverlayEntry{
			Enabled:    r.Enabled,
			Bookmarked: r.Enabled,
			Codes:      CanonicalCode(r.Code),
		}
	}
	return overlay, nil
}

// Apply writes selected into the cheats of the game identified by joinKey.
// Cheats are matched by exact name; matches get their enabled flag, code and
// modification date rewritten, the rest are inserted above the current
// largest key. Either every cheat is written or none is.
func (s *Store) Apply(ctx context.Context, joinKey string, selected []models.SelectedCheat, now time.Time) (models.ApplyResult, error) {
	var res models.ApplyResult
	for _, sel := range selected {
		if strings.TrimSpace(sel.Name) == "" {
			return res, fmt.Errorf("%w: cheat name is required", common.ErrInputValidation)
		}
	}

	now = now.UTC()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		games := NewGameRepository(tx)
		cheats := NewCheatRepository(tx)

		game, err := games.GetByIdentifier(ctx, joinKey)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: %s", common.ErrGameNotFound, joinKey)
			}
			return err
		}

		nextPK, err := cheats.MaxPK(ctx)
		if err != nil {
			return err
		}
		typeBlob, err := cheats.SampleType(ctx)
		if err != nil {
			return err
		}
		if typeBlob == nil {
			typeBlob = s.format.TypeTemplate
		}

		for _, sel := range selected {
			code := CanonicalCode(sel.Codes)

			existing, err := cheats.GetByName(ctx, game.PK, sel.Name)
			switch {
			case err == nil:
				if err := cheats.UpdateState(ctx, existing.PK, sel.IsEnabled(), code, now); err != nil {
					return err
				}
				res.Updated = append(res.Updated, sel.Name)

			case errors.Is(err, common.ErrorNotFound):
				nextPK++
				c := &models.ForeignCheat{
					PK:         nextPK,
					Entity:     s.format.CheatEntity,
					Opt:        1,
					Enabled:    sel.IsEnabled(),
					GamePK:     game.PK,
					CreatedAt:  now,
					ModifiedAt: now,
					Code:       code,
					Identifier: strings.ToUpper(uuid.NewString()),
					Name:       sel.Name,
					Type:       typeBlob,
				}
				if err := cheats.Insert(ctx, c); err != nil {
					return err
				}
				res.Inserted = append(res.Inserted, nextPK)

			default:
				return err
			}
		}

		if len(res.Inserted) > 0 && s.format.TracksPrimaryKeys {
			return NewPrimaryKeyRepository(tx).RaiseMax(ctx, s.format.CheatEntity, nextPK)
		}
		return nil
	})
	if err != nil {
		return models.ApplyResult{}, err
	}
	return res, nil
}

// ImportFile opens path, imports it for expectedKey and closes it.
func ImportFile(ctx context.Context, path, expectedKey string) (models.Overlay, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Import(ctx, expectedKey)
}

// ApplyFile opens path, applies selected and closes it so the file on disk
// holds the result when ApplyFile returns.
func ApplyFile(ctx context.Context, path, joinKey string, selected []models.SelectedCheat, now time.Time) (models.ApplyResult, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return models.ApplyResult{}, err
	}
	res, err := s.Apply(ctx, joinKey, selected, now)
	if cerr := s.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close store: %w", cerr)
	}
	if err != nil {
		return models.ApplyResult{}, err
	}
	return res, nil
}
