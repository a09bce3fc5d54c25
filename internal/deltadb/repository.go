package deltadb

import (
	"context"
	"time"

	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

// StoredCheat is a cheat row joined to the identifier of its owning game.
type StoredCheat struct {
	Name           string
	Code           string
	Enabled        bool
	GameIdentifier string
}

// GameRepository reads the ZGAME table.
type GameRepository interface {
	// GetByIdentifier returns the game whose ZIDENTIFIER equals identifier,
	// or common.ErrorNotFound.
	GetByIdentifier(ctx context.Context, identifier string) (*models.ForeignGame, error)
}

// CheatRepository reads and writes the ZCHEAT table.
type CheatRepository interface {
	// ListJoined returns every cheat row that belongs to a game.
	ListJoined(ctx context.Context) ([]StoredCheat, error)

	// GetByName returns the lowest-keyed cheat of game gamePK named name,
	// or common.ErrorNotFound.
	GetByName(ctx context.Context, gamePK int64, name string) (*models.ForeignCheat, error)

	// UpdateState rewrites the enabled flag, code and modification date of
	// one row and nothing else.
	UpdateState(ctx context.Context, pk int64, enabled bool, code string, modified time.Time) error

	Insert(ctx context.Context, c *models.ForeignCheat) error

	// MaxPK returns the largest Z_PK in the table, 0 when it is empty.
	MaxPK(ctx context.Context) (int64, error)

	// SampleType returns the ZTYPE of any existing row, nil when none has one.
	SampleType(ctx context.Context) ([]byte, error)
}

// PrimaryKeyRepository reads and writes the Core Data Z_PRIMARYKEY table.
type PrimaryKeyRepository interface {
	EntityNumber(ctx context.Context, name string) (int64, error)
	RaiseMax(ctx context.Context, entity, max int64) error
}
