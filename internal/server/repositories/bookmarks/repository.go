// Package bookmarks stores the cheats a user starred for a game. Rows are
// keyed by the game identifier so they survive re-uploads of the same ROM.
package bookmarks

import (
	"context"

	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

type Repository interface {
	// DeleteByGame removes every bookmark of gameID.
	DeleteByGame(ctx context.Context, gameID string) error
	Insert(ctx context.Context, b models.Bookmark) error
	// ListByGame returns the bookmarks of gameID in insertion order.
	ListByGame(ctx context.Context, gameID string) ([]models.Bookmark, error)
	// ListAll returns every bookmark ordered by game, then insertion order.
	ListAll(ctx context.Context) ([]models.Bookmark, error)
}
