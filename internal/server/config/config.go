// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the cheat server.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP endpoint.
//   - CatalogPath: cheat database (codelist XML) loaded at startup.
//   - DataDir / UploadDir: bookmark database directory and upload spool.
//   - BookmarksDriver / BookmarksDSN: "sqlite" (DSN is a file path) or "postgres" (pgx DSN).
//   - SecretKey / SessionTTL: HS256 key and lifetime of the session cookie.
//   - HashAlgorithm: content key digest, "sha256" or "sha1". Stores exported by
//     the emulator carry a SHA-1 ZGAME.ZIDENTIFIER, so "sha1" is required to
//     import them; with "sha256" they are rejected as a join mismatch.
//   - Extractor / NDSToolPath: product code source, "header" or "ndstool".
//   - BlobBackend: where uploaded stores are kept, "fs" or "s3".
//   - S3AccessKey / S3SecretKey / S3Bucket / S3Region / S3BaseEndpoint: S3 backend settings.
//   - MaxUploadBytes / MaxConcurrentUploads: upload limits.
type Config struct {
	HTTPAddr             string
	CatalogPath          string
	DataDir              string
	UploadDir            string
	BookmarksDriver      string
	BookmarksDSN         string
	SecretKey            string
	SessionTTL           time.Duration
	HashAlgorithm        string
	Extractor            string
	NDSToolPath          string
	BlobBackend          string
	S3AccessKey          string
	S3SecretKey          string
	S3Bucket             string
	S3Region             string
	S3BaseEndpoint       string
	MaxUploadBytes       int64
	MaxConcurrentUploads int
	LogLevel             string
	LogFormat            string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5050"
	c.CatalogPath = "data/cheats.xml"
	c.DataDir = "data"
	c.UploadDir = "uploads"
	c.BookmarksDriver = "sqlite"
	c.BookmarksDSN = "data/bookmarks.sqlite"
	c.SecretKey = "secretKey"
	c.SessionTTL = 24 * time.Hour
	c.HashAlgorithm = "sha256"
	c.Extractor = "header"
	c.NDSToolPath = "ndstool"
	c.BlobBackend = "fs"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "deltacheats"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MaxUploadBytes = 512 << 20
	c.MaxConcurrentUploads = 8
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
