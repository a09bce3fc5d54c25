// Package blobstore persists uploaded emulator stores under the content key
// of the ROM they belong to. Two backends exist: a local directory and an
// S3-compatible bucket.
package blobstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deltacheats/internal/common"
)

// Store is a flat key/value blob store. Get and Delete of a missing key
// return common.ErrNoStore.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

const storeExt = ".sqlite"

// KeyFor returns the blob key of the emulator store for contentKey.
func KeyFor(contentKey string) string {
	return contentKey + storeExt
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: bad blob key %q", common.ErrInputValidation, key)
	}
	return nil
}
