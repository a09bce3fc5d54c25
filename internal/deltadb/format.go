package deltadb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/dbx"
)

// Format holds the constants a store version needs for new cheat rows to be
// recognized by the emulator.
type Format struct {
	Version      int
	CheatEntity  int64
	GameEntity   int64
	TypeTemplate []byte

	// TracksPrimaryKeys is set when the store has a Z_PRIMARYKEY table whose
	// Z_MAX must follow inserted rows.
	TracksPrimaryKeys bool
}

const (
	cheatEntityName = "Cheat"
	gameEntityName  = "Game"
)

var formats = map[int]Format{
	0: {Version: 0, CheatEntity: 16, GameEntity: 16, TypeTemplate: []byte("actionReplay")},
	1: {Version: 1, CheatEntity: 1, GameEntity: 7, TypeTemplate: []byte("actionReplay")},
}

// LookupFormat returns the format registered for version.
func LookupFormat(version int) (Format, error) {
	f, ok := formats[version]
	if !ok {
		return Format{}, fmt.Errorf("%w: unsupported store version %d", common.ErrSchema, version)
	}
	f.TypeTemplate = append([]byte(nil), f.TypeTemplate...)
	return f, nil
}

// DetectFormat reads the store version and entity numbers from db.
func DetectFormat(ctx context.Context, db dbx.DBTX) (Format, error) {
	version := 0
	hasMeta, err := tableExists(ctx, db, "Z_METADATA")
	if err != nil {
		return Format{}, err
	}
	if hasMeta {
		err := db.QueryRowContext(ctx, `SELECT Z_VERSION FROM Z_METADATA LIMIT 1`).Scan(&version)
		if err != nil {
			return Format{}, fmt.Errorf("%w: read store version: %v", common.ErrSchema, err)
		}
	}

	f, err := LookupFormat(version)
	if err != nil {
		return Format{}, err
	}

	hasKeys, err := tableExists(ctx, db, "Z_PRIMARYKEY")
	if err != nil {
		return Format{}, err
	}
	if !hasKeys {
		return f, nil
	}
	f.TracksPrimaryKeys = true

	keys := NewPrimaryKeyRepository(db)
	if ent, err := keys.EntityNumber(ctx, cheatEntityName); err == nil {
		f.CheatEntity = ent
	} else if !errors.Is(err, common.ErrorNotFound) {
		return Format{}, err
	}
	if ent, err := keys.EntityNumber(ctx, gameEntityName); err == nil {
		f.GameEntity = ent
	} else if !errors.Is(err, common.ErrorNotFound) {
		return Format{}, err
	}
	return f, nil
}

func tableExists(ctx context.Context, db dbx.DBTX, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrSchema, err)
	}
	return n > 0, nil
}
