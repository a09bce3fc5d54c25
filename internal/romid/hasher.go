package romid

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Supported digest algorithms for content keys.
const (
	SHA256 = "sha256"
	SHA1   = "sha1"
)

// Hasher computes content keys by streaming a file through a digest.
type Hasher struct {
	newHash func() hash.Hash
}

// NewHasher returns a Hasher for algorithm ("sha256" when empty).
func NewHasher(algorithm string) (*Hasher, error) {
	switch strings.ToLower(algorithm) {
	case "", SHA256:
		return &Hasher{newHash: sha256.New}, nil
	case SHA1:
		return &Hasher{newHash: sha1.New}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// HashFile returns the lowercase hex digest of the file at path.
func (h *Hasher) HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return h.HashReader(ctx, f)
}

// HashReader digests r until EOF or until ctx is cancelled.
func (h *Hasher) HashReader(ctx context.Context, r io.Reader) (string, error) {
	d := h.newHash()
	if _, err := io.Copy(d, ctxReader{ctx: ctx, r: r}); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
