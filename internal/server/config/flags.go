package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/deltacheats/internal/flagx"
)

var serverFlags = []string{
	"-a", "-x", "-data", "-uploads", "-bd", "-d", "-s", "-t", "-hash", "-extractor", "-ndstool",
	"-blob", "-u", "-p", "-b", "-g", "-e", "-max-upload", "-max-uploads", "-log-level", "-log-format",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":5050")
//	-x string          cheat database XML
//	-data string       data directory
//	-uploads string    upload spool directory
//	-bd string         bookmarks driver: sqlite | postgres
//	-d string          bookmarks DSN
//	-s string          session signing key
//	-t int             session lifetime, minutes
//	-hash string       content key digest: sha256 | sha1 (sha1 for emulator stores)
//	-extractor string  product code source: header | ndstool
//	-ndstool string    ndstool binary
//	-blob string       store backend: fs | s3
//	-u / -p string     S3 access key / secret key
//	-b / -g / -e       S3 bucket / region / base endpoint
//	-max-upload int    upload size limit, bytes
//	-max-uploads int   concurrent upload limit
//	-log-level string  debug | info | warn | error
//	-log-format string json | text
//
// Args are filtered through flagx.FilterArgs first so that -c/-config and
// unknown flags never make parsing fail.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.CatalogPath, "x", config.CatalogPath, "cheat database xml")
	fs.StringVar(&config.DataDir, "data", config.DataDir, "data directory")
	fs.StringVar(&config.UploadDir, "uploads", config.UploadDir, "upload directory")
	fs.StringVar(&config.BookmarksDriver, "bd", config.BookmarksDriver, "bookmarks driver")
	fs.StringVar(&config.BookmarksDSN, "d", config.BookmarksDSN, "bookmarks DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&config.HashAlgorithm, "hash", config.HashAlgorithm, "content key digest")
	fs.StringVar(&config.Extractor, "extractor", config.Extractor, "product code extractor")
	fs.StringVar(&config.NDSToolPath, "ndstool", config.NDSToolPath, "ndstool binary")
	fs.StringVar(&config.BlobBackend, "blob", config.BlobBackend, "store backend")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.Int64Var(&config.MaxUploadBytes, "max-upload", config.MaxUploadBytes, "upload size limit in bytes")
	fs.IntVar(&config.MaxConcurrentUploads, "max-uploads", config.MaxConcurrentUploads, "concurrent upload limit")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	return nil
}
