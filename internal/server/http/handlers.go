package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/deltacheats/internal/filex"
	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/romarchive"
	"github.com/dmitrijs2005/deltacheats/internal/server/auth"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

const (
	romField   = "rom"
	deltaField = "delta"
	romExt     = ".nds"
	deltaExt   = ".sqlite"

	maxJSONBody = 1 << 20

	sqliteContentType = "application/vnd.sqlite3"
	generatedFilename = "delta_cheats_modified.sqlite"
)

// Reconciler identifies ROMs and renders them against the catalog.
type Reconciler interface {
	Reconcile(ctx context.Context, romPath string) (auth.Session, models.RomResponse, error)
	BuildResponse(ctx context.Context, sess auth.Session) (models.RomResponse, error)
	Games(ctx context.Context) ([]models.GameView, error)
}

// StoreService imports and rewrites emulator stores.
type StoreService interface {
	ImportStore(ctx context.Context, sess auth.Session, uploadPath string) (models.Overlay, error)
	Generate(ctx context.Context, sess auth.Session, selected []models.SelectedCheat) ([]byte, error)
}

// BookmarkService persists starred cheats.
type BookmarkService interface {
	Save(ctx context.Context, gameID string, items []models.BookmarkItem) error
	List(ctx context.Context, gameID string) ([]models.Bookmark, error)
	ListAll(ctx context.Context) ([]models.Bookmark, error)
}

// CatalogQuery is the read side of the cheat database.
type CatalogQuery interface {
	Search(id, term string) (models.CatalogEntry, bool)
	SearchGames(term string) map[string]models.CatalogEntry
}

// Options tune request handling.
type Options struct {
	UploadDir            string
	MaxUploadBytes       int64
	MaxConcurrentUploads int
	SecretKey            string
	SessionTTL           time.Duration
}

type Handlers struct {
	sessions  Reconciler
	stores    StoreService
	bookmarks BookmarkService
	catalog   CatalogQuery
	uploadDir string
	maxUpload int64
	secret    []byte
	ttl       time.Duration
	logger    logging.Logger
}

func NewHandlers(r Reconciler, s StoreService, b BookmarkService, c CatalogQuery, opts Options, l logging.Logger) *Handlers {
	return &Handlers{
		sessions:  r,
		stores:    s,
		bookmarks: b,
		catalog:   c,
		uploadDir: opts.UploadDir,
		maxUpload: opts.MaxUploadBytes,
		secret:    []byte(opts.SecretKey),
		ttl:       opts.SessionTTL,
		logger:    l.With("module", "http"),
	}
}

// spoolUpload streams the multipart file named field into the upload
// directory, keeping its extension when it is one of exts. The caller must
// run cleanup whatever the outcome.
func (h *Handlers) spoolUpload(r *http.Request, field string, exts ...string) (string, func(), error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", func() {}, errNoFile
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", func() {}, errNoFile
		}
		if err != nil {
			return "", func() {}, errNoFile
		}
		if part.FormName() != field || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		defer part.Close()
		ext := strings.ToLower(filepath.Ext(part.FileName()))
		if !slices.Contains(exts, ext) {
			return "", func() {}, errFileType
		}
		return filex.Spool(h.uploadDir, ext, part, h.maxUpload)
	}
}

// unpackROM returns the ROM image inside an uploaded archive, or path itself
// when the upload is a bare image.
func (h *Handlers) unpackROM(path string) (string, func(), error) {
	if !romarchive.IsArchive(path) {
		return path, func() {}, nil
	}
	return romarchive.Extract(path, h.uploadDir, romExt, h.maxUpload)
}

// UploadROM identifies the uploaded ROM, makes it the active game and
// returns its cheats. The ROM may come inside a .zip, .7z or .rar archive.
// The session is set even when the catalog has no entry so that a store can
// still be uploaded for the game.
func (h *Handlers) UploadROM(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := h.spoolUpload(r, romField, append([]string{romExt}, romarchive.Extensions...)...)
	defer cleanup()
	switch {
	case errors.Is(err, errNoFile):
		writeError(w, http.StatusBadRequest, "No ROM file uploaded.")
		return
	case errors.Is(err, errFileType):
		writeError(w, http.StatusBadRequest, "Invalid file format. Please upload a .nds file.")
		return
	case err != nil:
		h.fail(w, r, err, "Server error.")
		return
	}

	path, cleanupROM, err := h.unpackROM(upload)
	defer cleanupROM()
	if err != nil {
		h.fail(w, r, err, "Server error.")
		return
	}

	sess, resp, err := h.sessions.Reconcile(r.Context(), path)
	if err != nil {
		h.fail(w, r, err, "Server error.")
		return
	}
	if err := h.writeSession(w, sess); err != nil {
		h.fail(w, r, err, "Server error.")
		return
	}

	if !resp.Found {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: msgNoCheats, Identifier: sess.Identifier})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadDelta imports an emulator store for the active game.
func (h *Handlers) UploadDelta(w http.ResponseWriter, r *http.Request) {
	sess, err := h.readSession(r)
	if err != nil {
		h.fail(w, r, err, "Server error.")
		return
	}

	path, cleanup, err := h.spoolUpload(r, deltaField, deltaExt)
	defer cleanup()
	switch {
	case errors.Is(err, errNoFile):
		writeError(w, http.StatusBadRequest, "No Delta Emulator SQLite file uploaded.")
		return
	case errors.Is(err, errFileType):
		writeError(w, http.StatusBadRequest, "Invalid file format. Please upload a .sqlite file.")
		return
	case err != nil:
		h.fail(w, r, err, "Failed to parse Delta Emulator SQLite file.")
		return
	}

	state, err := h.stores.ImportStore(r.Context(), sess, path)
	if err != nil {
		h.fail(w, r, err, "Failed to parse Delta Emulator SQLite file.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Delta Emulator SQLite file uploaded and parsed successfully.",
		"cheats":  len(state),
	})
}

type generateRequest struct {
	GameID         string                 `json:"gameid"`
	GameName       string                 `json:"game_name"`
	SelectedCheats []models.SelectedCheat `json:"selectedCheats"`
}

// GenerateDelta writes the selected cheats into the active game's store and
// returns the resulting database.
func (h *Handlers) GenerateDelta(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil ||
		req.GameID == "" || req.GameName == "" || len(req.SelectedCheats) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request data. Ensure gameid, game_name, and selectedCheats are provided.")
		return
	}

	sess, err := h.readSession(r)
	if err != nil {
		h.fail(w, r, err, "Server error.")
		return
	}

	data, err := h.stores.Generate(r.Context(), sess, req.SelectedCheats)
	if err != nil {
		h.fail(w, r, err, "Failed to generate modified Delta SQLite database.")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+generatedFilename)
	w.Header().Set("Content-Type", sqliteContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Games lists every game with an imported store.
func (h *Handlers) Games(w http.ResponseWriter, r *http.Request) {
	games, err := h.sessions.Games(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to retrieve games.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

type saveBookmarksRequest struct {
	GameID    string                 `json:"gameid"`
	Bookmarks *[]models.BookmarkItem `json:"bookmarks"`
}

// SaveBookmarks replaces the bookmarks of a game.
func (h *Handlers) SaveBookmarks(w http.ResponseWriter, r *http.Request) {
	var req saveBookmarksRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil ||
		req.GameID == "" || req.Bookmarks == nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	if err := h.bookmarks.Save(r.Context(), req.GameID, *req.Bookmarks); err != nil {
		h.fail(w, r, err, "Failed to save bookmarks.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bookmarks saved successfully."})
}

// GetBookmarks returns the bookmarked cheat names of ?gameid=.
func (h *Handlers) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameid")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, msgGameIDNeeded)
		return
	}

	items, err := h.bookmarks.List(r.Context(), gameID)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch bookmarks.")
		return
	}
	names := make([]string, 0, len(items))
	for _, b := range items {
		names = append(names, b.CheatName)
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": names})
}

// AllBookmarks returns every saved bookmark.
func (h *Handlers) AllBookmarks(w http.ResponseWriter, r *http.Request) {
	items, err := h.bookmarks.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch all bookmarks.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": items})
}

// SearchCatalog returns the catalog entries matching ?q=, keyed by game id.
func (h *Handlers) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	games := h.catalog.SearchGames(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

// CatalogEntry returns one catalog entry, optionally filtered by ?q=.
func (h *Handlers) CatalogEntry(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "gameid"))
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, msgGameIDNeeded)
		return
	}

	entry, ok := h.catalog.Search(id, r.URL.Query().Get("q"))
	if !ok {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: msgNoCheats, Identifier: id})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
