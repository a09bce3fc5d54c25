package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/deltacheats/internal/blobstore"
	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/deltadb"
	"github.com/dmitrijs2005/deltacheats/internal/filex"
	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/server/auth"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"github.com/dmitrijs2005/deltacheats/internal/server/overlay"
)

// DeltaService imports users' emulator stores and writes selected cheats
// back into them. Work on one content key is serialized.
type DeltaService struct {
	blobs    blobstore.Store
	overlays *overlay.Store
	workDir  string
	locks    *keyLocks
	now      func() time.Time
	log      logging.Logger
}

func NewDeltaService(blobs blobstore.Store, overlays *overlay.Store, workDir string, log logging.Logger) *DeltaService {
	return &DeltaService{
		blobs:    blobs,
		overlays: overlays,
		workDir:  workDir,
		locks:    newKeyLocks(),
		now:      time.Now,
		log:      log.With("module", "delta"),
	}
}

// ImportStore validates the store uploaded to uploadPath against the
// session's content key. On success the overlay is replaced and the store
// bytes are kept for later generation; on failure nothing changes.
func (s *DeltaService) ImportStore(ctx context.Context, sess auth.Session, uploadPath string) (models.Overlay, error) {
	if sess.ContentKey == "" {
		return nil, common.ErrNoActiveGame
	}

	unlock := s.locks.Lock(sess.ContentKey)
	defer unlock()

	state, err := deltadb.ImportFile(ctx, uploadPath, sess.ContentKey)
	if err != nil {
		s.log.Warn(ctx, "store rejected", "content_key", sess.ContentKey, "error", err)
		return nil, err
	}

	data, err := os.ReadFile(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := s.blobs.Put(ctx, blobstore.KeyFor(sess.ContentKey), data); err != nil {
		return nil, err
	}
	s.overlays.Put(sess.ContentKey, sess.Identifier, state)

	s.log.Info(ctx, "store imported", "content_key", sess.ContentKey, "cheats", len(state))
	return state, nil
}

// Generate applies selected to the stored store of the session's content key,
// persists the result and returns its bytes.
func (s *DeltaService) Generate(ctx context.Context, sess auth.Session, selected []models.SelectedCheat) ([]byte, error) {
	contentKey := sess.ContentKey
	if contentKey == "" {
		return nil, common.ErrNoActiveGame
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no cheats selected", common.ErrInputValidation)
	}

	unlock := s.locks.Lock(contentKey)
	defer unlock()

	key := blobstore.KeyFor(contentKey)
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := filex.Spool(s.workDir, ".sqlite", bytes.NewReader(data), 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		cleanup()
		removeSidecars(path)
	}()

	res, err := deltadb.ApplyFile(ctx, path, contentKey, selected, s.now())
	if err != nil {
		s.log.Warn(ctx, "generate failed", "content_key", contentKey, "error", err)
		return nil, err
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read generated store: %w", err)
	}
	if err := s.blobs.Put(ctx, key, out); err != nil {
		return nil, err
	}

	s.overlays.Update(contentKey, sess.Identifier, func(o models.Overlay) {
		for _, sel := range selected {
			enabled := sel.IsEnabled()
			o[sel.Name] = models.OverlayEntry{
				Enabled:    enabled,
				Bookmarked: enabled,
				Codes:      deltadb.CanonicalCode(sel.Codes),
			}
		}
	})

	s.log.Info(ctx, "store generated", "content_key", contentKey,
		"updated", len(res.Updated), "inserted", len(res.Inserted))
	return out, nil
}

func removeSidecars(path string) {
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
}
