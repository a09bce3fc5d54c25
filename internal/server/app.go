// Package server assembles the cheat server: it loads the catalog, opens
// the store and bookmark backends, builds the services and runs the HTTP
// endpoint until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/deltacheats/internal/blobstore"
	"github.com/dmitrijs2005/deltacheats/internal/catalog"
	"github.com/dmitrijs2005/deltacheats/internal/filex"
	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/romid"
	"github.com/dmitrijs2005/deltacheats/internal/server/config"
	"github.com/dmitrijs2005/deltacheats/internal/server/overlay"
	"github.com/dmitrijs2005/deltacheats/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deltacheats/internal/server/services"

	hs "github.com/dmitrijs2005/deltacheats/internal/server/http"
)

const deltasDir = "deltas"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *hs.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	uploadDir, err := filex.EnsureDir(c.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	if _, err := filex.EnsureDir(c.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	cat := catalog.LoadFile(ctx, c.CatalogPath, logger)

	blobs, err := newBlobStore(ctx, c, uploadDir)
	if err != nil {
		return nil, fmt.Errorf("store backend init error: %w", err)
	}

	extractor, err := romid.NewExtractor(c.Extractor, c.NDSToolPath)
	if err != nil {
		return nil, err
	}
	hasher, err := romid.NewHasher(c.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	db, rm, err := repomanager.Open(ctx, c.BookmarksDriver, c.BookmarksDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	overlays := overlay.NewStore()
	bs := services.NewBookmarkService(db, rm, logger)
	ss := services.NewSessionService(romid.NewDeriver(extractor), hasher, cat, overlays, bs, logger)
	ds := services.NewDeltaService(blobs, overlays, uploadDir, logger)

	h := hs.NewHandlers(ss, ds, bs, cat, hs.Options{
		UploadDir:      uploadDir,
		MaxUploadBytes: c.MaxUploadBytes,
		SecretKey:      c.SecretKey,
		SessionTTL:     c.SessionTTL,
	}, logger)
	srv := hs.NewHTTPServer(c.HTTPAddr, logger, hs.NewRouter(h, c.MaxConcurrentUploads))

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func newBlobStore(ctx context.Context, c *config.Config, uploadDir string) (blobstore.Store, error) {
	switch c.BlobBackend {
	case "", "fs":
		return blobstore.NewFSStore(filepath.Join(uploadDir, deltasDir))
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       deltasDir,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "close bookmarks db", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
