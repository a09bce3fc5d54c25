package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/deltacheats/internal/flagx"
	"github.com/dmitrijs2005/deltacheats/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept both strings
// such as "30m" and integer nanoseconds. Absent fields keep their current
// value. Files ending in .yaml or .yml use the same keys.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	CatalogPath          string         `json:"catalog_path"`
	DataDir              string         `json:"data_dir"`
	UploadDir            string         `json:"upload_dir"`
	BookmarksDriver      string         `json:"bookmarks_driver"`
	BookmarksDSN         string         `json:"bookmarks_dsn"`
	SecretKey            string         `json:"secret_key"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	HashAlgorithm        string         `json:"hash_algorithm"`
	Extractor            string         `json:"extractor"`
	NDSToolPath          string         `json:"ndstool_path"`
	BlobBackend          string         `json:"blob_backend"`
	S3AccessKey          string         `json:"s3_access_key"`
	S3SecretKey          string         `json:"s3_secret_key"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
	MaxUploadBytes       int64          `json:"max_upload_bytes"`
	MaxConcurrentUploads int            `json:"max_concurrent_uploads"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
}

// parseJson overlays the JSON or YAML file named by -c/-config (or the
// DELTACHEATS_CONFIG environment variable) onto config. Nothing happens when
// no file is named.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	c := &JsonConfig{}
	if err := decodeConfig(path, file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.CatalogPath, c.CatalogPath)
	setString(&config.DataDir, c.DataDir)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.BookmarksDriver, c.BookmarksDriver)
	setString(&config.BookmarksDSN, c.BookmarksDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.HashAlgorithm, c.HashAlgorithm)
	setString(&config.Extractor, c.Extractor)
	setString(&config.NDSToolPath, c.NDSToolPath)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.MaxConcurrentUploads != 0 {
		config.MaxConcurrentUploads = c.MaxConcurrentUploads
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// decodeConfig reads YAML through a generic map so that the JSON tags and
// timex.Duration decoding apply to both formats.
func decodeConfig(path string, data []byte, c *JsonConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return err
		}
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		data = b
	}
	return json.Unmarshal(data, c)
}
