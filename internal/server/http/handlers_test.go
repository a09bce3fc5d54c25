package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/deltacheats/internal/catalog"
	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/server/auth"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

const testSecret = "test-secret"

var testSession = auth.Session{Identifier: "IPKE 1A2B3C4D", ContentKey: "abc123"}

type fakeReconciler struct {
	sess     auth.Session
	resp     models.RomResponse
	err      error
	games    []models.GameView
	seenPath string
	existed  bool
}

func (f *fakeReconciler) Reconcile(_ context.Context, romPath string) (auth.Session, models.RomResponse, error) {
	f.seenPath = romPath
	_, err := os.Stat(romPath)
	f.existed = err == nil
	return f.sess, f.resp, f.err
}

func (f *fakeReconciler) BuildResponse(context.Context, auth.Session) (models.RomResponse, error) {
	return f.resp, f.err
}

func (f *fakeReconciler) Games(context.Context) ([]models.GameView, error) {
	return f.games, f.err
}

type fakeStores struct {
	importSess auth.Session
	importPath string
	importErr  error
	genKey     string
	genSel     []models.SelectedCheat
	genData    []byte
	genErr     error
}

func (f *fakeStores) ImportStore(_ context.Context, sess auth.Session, path string) (models.Overlay, error) {
	f.importSess = sess
	f.importPath = path
	if f.importErr != nil {
		return nil, f.importErr
	}
	return models.Overlay{"Infinite HP": {Enabled: true, Bookmarked: true}}, nil
}

func (f *fakeStores) Generate(_ context.Context, sess auth.Session, sel []models.SelectedCheat) ([]byte, error) {
	f.genKey = sess.ContentKey
	f.genSel = sel
	return f.genData, f.genErr
}

type fakeBookmarks struct {
	saved map[string][]models.BookmarkItem
	all   []models.Bookmark
	err   error
}

func (f *fakeBookmarks) Save(_ context.Context, gameID string, items []models.BookmarkItem) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string][]models.BookmarkItem{}
	}
	f.saved[gameID] = items
	return nil
}

func (f *fakeBookmarks) List(_ context.Context, gameID string) ([]models.Bookmark, error) {
	out := []models.Bookmark{}
	for _, it := range f.saved[gameID] {
		out = append(out, models.Bookmark{GameID: gameID, CheatName: it.CheatName})
	}
	return out, f.err
}

func (f *fakeBookmarks) ListAll(context.Context) ([]models.Bookmark, error) {
	return f.all, f.err
}

const testCatalogXML = `<codelist>
  <game>
    <name>Pokemon Platinum</name>
    <gameid>IPKE 1A2B3C4D</gameid>
    <cheat><name>Infinite HP</name><codes>0201234500002710</codes></cheat>
    <folder>
      <name>Money</name>
      <cheat><name>Max Gold</name><note>bag</note><codes>02030000 0098967F</codes></cheat>
    </folder>
  </game>
</codelist>`

type testEnv struct {
	handler   http.Handler
	sessions  *fakeReconciler
	stores    *fakeStores
	bookmarks *fakeBookmarks
	uploadDir string
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testCatalogXML))
	require.NoError(t, err)

	env := &testEnv{
		sessions:  &fakeReconciler{sess: testSession},
		stores:    &fakeStores{},
		bookmarks: &fakeBookmarks{},
		uploadDir: t.TempDir(),
	}
	h := NewHandlers(env.sessions, env.stores, env.bookmarks, cat, Options{
		UploadDir:      env.uploadDir,
		MaxUploadBytes: maxUpload,
		SecretKey:      testSecret,
		SessionTTL:     time.Hour,
	}, logging.Nop())
	env.handler = NewRouter(h, 2)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withSession(t *testing.T, req *http.Request, s auth.Session) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken(s, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var e models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) auth.Session {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			s, err := auth.ParseToken(c.Value, []byte(testSecret))
			require.NoError(t, err)
			return s
		}
	}
	t.Fatal("session cookie not set")
	return auth.Session{}
}

func assertUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadROM_Found(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	env.sessions.resp = models.RomResponse{
		Identifier: testSession.Identifier,
		ContentKey: testSession.ContentKey,
		GameName:   "Pokemon Platinum",
		Folders:    []models.FolderView{{Name: "General", Cheats: []models.CheatView{{Name: "Infinite HP"}}}},
		Found:      true,
	}

	rec := env.do(multipartRequest(t, "/upload-rom", "rom", "Game.NDS", make([]byte, 600)))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.RomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Pokemon Platinum", got.GameName)
	assert.Equal(t, testSession.Identifier, got.Identifier)
	assert.Equal(t, testSession, sessionCookie(t, rec))

	assert.True(t, env.sessions.existed)
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestUploadROM_Archive(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	env.sessions.resp = models.RomResponse{Identifier: testSession.Identifier, GameName: "Pokemon Platinum", Found: true}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("Pokemon Platinum (USA).nds")
	require.NoError(t, err)
	_, err = fw.Write(make([]byte, 600))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rec := env.do(multipartRequest(t, "/upload-rom", "rom", "platinum.zip", buf.Bytes()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".nds", filepath.Ext(env.sessions.seenPath))
	assert.True(t, env.sessions.existed)
	assertUploadDirEmpty(t, env.uploadDir)

	rec = env.do(multipartRequest(t, "/upload-rom", "rom", "empty.zip", emptyZip(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "archive contains no rom image")
	assertUploadDirEmpty(t, env.uploadDir)
}

func emptyZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUploadROM_NotInCatalog(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	rec := env.do(multipartRequest(t, "/upload-rom", "rom", "game.nds", []byte("rom")))

	require.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, msgNoCheats, e.Error)
	assert.Equal(t, testSession.Identifier, e.Identifier)
	assert.Equal(t, testSession, sessionCookie(t, rec))
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestUploadROM_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		reconErr   error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "no file",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/upload-rom", "", "", nil) },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "No ROM file uploaded.",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/upload-rom", strings.NewReader("x"))
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "No ROM file uploaded.",
		},
		{
			name:       "wrong extension",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/upload-rom", "rom", "game.gba", []byte("x")) },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid file format. Please upload a .nds file.",
		},
		{
			name:       "too large",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/upload-rom", "rom", "game.nds", make([]byte, 64)) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantMsg:    "File is too large.",
		},
		{
			name:       "truncated rom",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/upload-rom", "rom", "game.nds", []byte("x")) },
			reconErr:   fmt.Errorf("derive: %w", common.ErrTruncatedInput),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Failed to generate GameID. Ensure the ROM is valid.",
		},
		{
			name:       "io failure",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/upload-rom", "rom", "game.nds", []byte("x")) },
			reconErr:   errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Server error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 32)
			env.sessions.err = tt.reconErr

			rec := env.do(tt.req(t))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec).Error)
			assert.Empty(t, rec.Result().Cookies())
			assertUploadDirEmpty(t, env.uploadDir)
		})
	}
}

func TestUploadDelta(t *testing.T) {
	t.Run("imports for the active game", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		req := withSession(t, multipartRequest(t, "/upload-delta", "delta", "delta.sqlite", []byte("db")), testSession)

		rec := env.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "uploaded and parsed successfully")
		assert.Equal(t, testSession, env.stores.importSess)
		assert.NotEmpty(t, env.stores.importPath)
		assertUploadDirEmpty(t, env.uploadDir)
	})

	t.Run("no active game", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		rec := env.do(multipartRequest(t, "/upload-delta", "delta", "delta.sqlite", []byte("db")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgNoGame, decodeError(t, rec).Error)
		assert.Empty(t, env.stores.importPath)
	})

	t.Run("invalid session", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		req := multipartRequest(t, "/upload-delta", "delta", "delta.sqlite", []byte("db"))
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "garbage"})

		rec := env.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong extension", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		req := withSession(t, multipartRequest(t, "/upload-delta", "delta", "delta.db", []byte("db")), testSession)

		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid file format. Please upload a .sqlite file.", decodeError(t, rec).Error)
	})

	t.Run("store of another game", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		env.stores.importErr = fmt.Errorf("import: %w", common.ErrJoinMismatch)
		req := withSession(t, multipartRequest(t, "/upload-delta", "delta", "delta.sqlite", []byte("db")), testSession)

		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Delta SQLite does not match the uploaded ROM's shasum.", decodeError(t, rec).Error)
		assertUploadDirEmpty(t, env.uploadDir)
	})

	t.Run("not a store", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		env.stores.importErr = common.ErrSchema
		req := withSession(t, multipartRequest(t, "/upload-delta", "delta", "delta.sqlite", []byte("db")), testSession)

		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Failed to parse Delta Emulator SQLite file.", decodeError(t, rec).Error)
	})
}

func generateBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestGenerateDelta(t *testing.T) {
	valid := map[string]any{
		"gameid":         testSession.Identifier,
		"game_name":      "Pokemon Platinum",
		"selectedCheats": []map[string]any{{"name": "Max Gold", "codes": "02030000 0098967F"}},
	}

	t.Run("returns the modified store", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		env.stores.genData = []byte("SQLite format 3\x00")
		req := withSession(t, httptest.NewRequest(http.MethodPost, "/generate-delta", generateBody(t, valid)), testSession)

		rec := env.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/vnd.sqlite3", rec.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=delta_cheats_modified.sqlite", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, env.stores.genData, rec.Body.Bytes())
		assert.Equal(t, testSession.ContentKey, env.stores.genKey)
		require.Len(t, env.stores.genSel, 1)
		assert.Equal(t, "Max Gold", env.stores.genSel[0].Name)
		assert.True(t, env.stores.genSel[0].IsEnabled())
	})

	t.Run("invalid request data", func(t *testing.T) {
		bodies := []any{
			map[string]any{"gameid": "x", "game_name": "y"},
			map[string]any{"gameid": "x", "game_name": "y", "selectedCheats": []any{}},
			map[string]any{"game_name": "y", "selectedCheats": []map[string]any{{"name": "a"}}},
			"not an object",
		}
		for i, b := range bodies {
			env := newTestEnv(t, 1<<20)
			req := withSession(t, httptest.NewRequest(http.MethodPost, "/generate-delta", generateBody(t, b)), testSession)
			rec := env.do(req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %d", i)
			assert.Contains(t, decodeError(t, rec).Error, "Invalid request data", "body %d", i)
			assert.Empty(t, env.stores.genKey)
		}
	})

	t.Run("no active game", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		rec := env.do(httptest.NewRequest(http.MethodPost, "/generate-delta", generateBody(t, valid)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgNoGame, decodeError(t, rec).Error)
	})

	t.Run("no store uploaded", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		env.stores.genErr = fmt.Errorf("get: %w", common.ErrNoStore)
		req := withSession(t, httptest.NewRequest(http.MethodPost, "/generate-delta", generateBody(t, valid)), testSession)

		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgNoStore, decodeError(t, rec).Error)
	})

	t.Run("unexpected failure", func(t *testing.T) {
		env := newTestEnv(t, 1<<20)
		env.stores.genErr = errors.New("boom")
		req := withSession(t, httptest.NewRequest(http.MethodPost, "/generate-delta", generateBody(t, valid)), testSession)

		rec := env.do(req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to generate modified Delta SQLite database.", decodeError(t, rec).Error)
	})
}

func TestGames(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	env.sessions.games = []models.GameView{{GameID: "abc123", GameName: "Pokemon Platinum", Folders: []models.FolderView{}}}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/games", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"games":[{"gameid":"abc123","game_name":"Pokemon Platinum","folders":[]}]}`, rec.Body.String())
}

func TestBookmarks(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/save-bookmarks",
		strings.NewReader(`{"gameid":"IPKE 1A2B3C4D","bookmarks":["Infinite HP",{"cheat_name":"Max Gold","cheat_code":"02030000"}]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Bookmarks saved successfully."}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/get-bookmarks?gameid=IPKE+1A2B3C4D", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookmarks":["Infinite HP","Max Gold"]}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/get-bookmarks?gameid=OTHER", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookmarks":[]}`, rec.Body.String())

	env.bookmarks.all = []models.Bookmark{{GameID: "IPKE 1A2B3C4D", CheatName: "Infinite HP"}}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookmarks":[{"gameid":"IPKE 1A2B3C4D","cheat_name":"Infinite HP"}]}`, rec.Body.String())
}

func TestBookmarks_Invalid(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	for _, body := range []string{`{"bookmarks":[]}`, `{"gameid":"x"}`, `{`, `{"gameid":"x","bookmarks":"nope"}`} {
		rec := env.do(httptest.NewRequest(http.MethodPost, "/save-bookmarks", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, msgBadRequest, decodeError(t, rec).Error, body)
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/get-bookmarks", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgGameIDNeeded, decodeError(t, rec).Error)

	env.bookmarks.err = fmt.Errorf("%w: cheat name is required", common.ErrInputValidation)
	rec = env.do(httptest.NewRequest(http.MethodPost, "/save-bookmarks", strings.NewReader(`{"gameid":"x","bookmarks":[""]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.bookmarks.err = errors.New("db down")
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch all bookmarks.", decodeError(t, rec).Error)
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/catalog/IPKE%201A2B3C4D?q=gold", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var entry models.CatalogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "Pokemon Platinum", entry.Name)
	require.Len(t, entry.Folders, 1)
	assert.Equal(t, "Money", entry.Folders[0].Name)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/catalog/NOPE%2000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOPE 00000000", decodeError(t, rec).Identifier)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/catalog?q=platinum", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var games struct {
		Games map[string]models.CatalogEntry `json:"games"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	assert.Contains(t, games.Games, "IPKE 1A2B3C4D")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}
