package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/dbx"
	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"github.com/dmitrijs2005/deltacheats/internal/server/repositories/repomanager"
)

// BookmarkService keeps the durable per-game bookmark lists.
type BookmarkService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	locks       *keyLocks
	log         logging.Logger
}

func NewBookmarkService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *BookmarkService {
	return &BookmarkService{
		db:          db,
		repomanager: m,
		locks:       newKeyLocks(),
		log:         log.With("module", "bookmarks"),
	}
}

// Save replaces the bookmarks of gameID with items in one transaction.
func (s *BookmarkService) Save(ctx context.Context, gameID string, items []models.BookmarkItem) error {
	if strings.TrimSpace(gameID) == "" {
		return fmt.Errorf("%w: gameid is required", common.ErrInputValidation)
	}
	for _, it := range items {
		if strings.TrimSpace(it.CheatName) == "" {
			return fmt.Errorf("%w: cheat name is required", common.ErrInputValidation)
		}
	}

	unlock := s.locks.Lock(gameID)
	defer unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Bookmarks(tx)
		if err := repo.DeleteByGame(ctx, gameID); err != nil {
			return err
		}
		for _, it := range items {
			b := models.Bookmark{GameID: gameID, CheatName: it.CheatName, CheatCode: it.CheatCode}
			if err := repo.Insert(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "bookmarks saved", "gameid", gameID, "count", len(items))
	return nil
}

// List returns the bookmarks of gameID.
func (s *BookmarkService) List(ctx context.Context, gameID string) ([]models.Bookmark, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("%w: gameid is required", common.ErrInputValidation)
	}
	items, err := s.repomanager.Bookmarks(s.db).ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Bookmark{}
	}
	return items, nil
}

// ListAll returns every saved bookmark.
func (s *BookmarkService) ListAll(ctx context.Context) ([]models.Bookmark, error) {
	items, err := s.repomanager.Bookmarks(s.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Bookmark{}
	}
	return items, nil
}
