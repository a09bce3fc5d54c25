// Package services contains the server-side business logic: identifying
// uploaded ROMs and reconciling them with the catalog, importing and
// rewriting emulator stores, and saving bookmarks.
package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/deltacheats/internal/catalog"
	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/romid"
	"github.com/dmitrijs2005/deltacheats/internal/server/auth"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"github.com/dmitrijs2005/deltacheats/internal/server/overlay"
)

// BookmarkLister is the part of BookmarkService the reconciler reads.
type BookmarkLister interface {
	List(ctx context.Context, gameID string) ([]models.Bookmark, error)
}

// SessionService derives the identity of uploaded ROMs and renders catalog
// entries with the user's imported and bookmarked state applied.
type SessionService struct {
	deriver   *romid.Deriver
	hasher    *romid.Hasher
	catalog   *catalog.Catalog
	overlays  *overlay.Store
	bookmarks BookmarkLister
	log       logging.Logger
}

func NewSessionService(d *romid.Deriver, h *romid.Hasher, c *catalog.Catalog, o *overlay.Store, b BookmarkLister, log logging.Logger) *SessionService {
	return &SessionService{
		deriver:   d,
		hasher:    h,
		catalog:   c,
		overlays:  o,
		bookmarks: b,
		log:       log.With("module", "session"),
	}
}

// Identify computes the game identifier and content key of the ROM at path.
// Both run concurrently; the first failure cancels the other.
func (s *SessionService) Identify(ctx context.Context, romPath string) (auth.Session, error) {
	var sess auth.Session

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := s.deriver.Derive(gctx, romPath)
		if err != nil {
			return err
		}
		sess.Identifier = id
		return nil
	})
	g.Go(func() error {
		key, err := s.hasher.HashFile(gctx, romPath)
		if err != nil {
			return err
		}
		sess.ContentKey = key
		return nil
	})
	if err := g.Wait(); err != nil {
		return auth.Session{}, err
	}

	s.log.Info(ctx, "rom identified", "identifier", sess.Identifier, "content_key", sess.ContentKey)
	return sess, nil
}

// BuildResponse renders the catalog entry of sess.Identifier. A cheat is
// enabled when the imported overlay says so, and bookmarked when either the
// overlay or a saved bookmark says so. Found is false when the catalog has
// no entry for the game.
func (s *SessionService) BuildResponse(ctx context.Context, sess auth.Session) (models.RomResponse, error) {
	resp := models.RomResponse{Identifier: sess.Identifier, ContentKey: sess.ContentKey}

	entry, ok := s.catalog.ByIdentifier(sess.Identifier)
	if !ok {
		s.log.Info(ctx, "no catalog entry", "identifier", sess.Identifier)
		return resp, nil
	}

	starred, err := s.bookmarkSet(ctx, sess.Identifier)
	if err != nil {
		return models.RomResponse{}, err
	}
	state, _ := s.overlays.Get(sess.ContentKey)

	resp.Found = true
	resp.GameName = entry.Name
	resp.Folders = renderFolders(entry, state, starred)
	return resp, nil
}

// Reconcile identifies the ROM at romPath and builds its response.
func (s *SessionService) Reconcile(ctx context.Context, romPath string) (auth.Session, models.RomResponse, error) {
	sess, err := s.Identify(ctx, romPath)
	if err != nil {
		return auth.Session{}, models.RomResponse{}, err
	}
	resp, err := s.BuildResponse(ctx, sess)
	if err != nil {
		return sess, models.RomResponse{}, err
	}
	return sess, resp, nil
}

// Games lists every imported store rendered against the catalog entry of
// the game it was imported for. Stores whose game is not in the catalog are
// skipped.
func (s *SessionService) Games(ctx context.Context) ([]models.GameView, error) {
	games := []models.GameView{}
	for _, key := range s.overlays.Keys() {
		id, _ := s.overlays.Identifier(key)
		entry, ok := s.catalog.ByIdentifier(id)
		if !ok {
			continue
		}
		starred, err := s.bookmarkSet(ctx, id)
		if err != nil {
			return nil, err
		}
		state, _ := s.overlays.Get(key)
		games = append(games, models.GameView{
			GameID:   key,
			GameName: entry.Name,
			Folders:  renderFolders(entry, state, starred),
		})
	}
	return games, nil
}

func (s *SessionService) bookmarkSet(ctx context.Context, gameID string) (map[string]struct{}, error) {
	if s.bookmarks == nil {
		return nil, nil
	}
	items, err := s.bookmarks.List(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	set := make(map[string]struct{}, len(items))
	for _, b := range items {
		set[b.CheatName] = struct{}{}
	}
	return set, nil
}

func renderFolders(entry models.CatalogEntry, state models.Overlay, starred map[string]struct{}) []models.FolderView {
	folders := make([]models.FolderView, 0, len(entry.Folders))
	for _, f := range entry.Folders {
		fv := models.FolderView{Name: f.Name, AllowedOn: f.AllowedOn, Cheats: make([]models.CheatView, 0, len(f.Cheats))}
		for _, c := range f.Cheats {
			st := state[c.Name]
			_, saved := starred[c.Name]
			fv.Cheats = append(fv.Cheats, models.CheatView{
				Name:         c.Name,
				Notes:        c.Notes,
				Codes:        c.Codes,
				IsEnabled:    st.Enabled,
				IsBookmarked: st.Bookmarked || saved,
			})
		}
		folders = append(folders, fv)
	}
	return folders
}
