package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/deltacheats/internal/catalog"
	"github.com/dmitrijs2005/deltacheats/internal/deltadb"
	"github.com/dmitrijs2005/deltacheats/internal/filex"
	"github.com/dmitrijs2005/deltacheats/internal/romarchive"
	"github.com/dmitrijs2005/deltacheats/internal/romid"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

type identity struct {
	Identifier string `json:"identifier"`
	ContentKey string `json:"content_key"`
}

type identifyFlags struct {
	hash      string
	extractor string
	ndstool   string
}

func (f *identifyFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.hash, "hash", romid.SHA256, "content key digest")
	fs.StringVar(&f.extractor, "extractor", "header", "product code extractor")
	fs.StringVar(&f.ndstool, "ndstool", "ndstool", "ndstool binary")
}

func (f *identifyFlags) identify(ctx context.Context, path string) (identity, error) {
	ex, err := romid.NewExtractor(f.extractor, f.ndstool)
	if err != nil {
		return identity{}, err
	}
	h, err := romid.NewHasher(f.hash)
	if err != nil {
		return identity{}, err
	}

	if romarchive.IsArchive(path) {
		dir, err := os.MkdirTemp("", "deltacheats-")
		if err != nil {
			return identity{}, err
		}
		defer os.RemoveAll(dir)
		rom, _, err := romarchive.Extract(path, dir, ".nds", 0)
		if err != nil {
			return identity{}, err
		}
		path = rom
	}

	id, err := romid.NewDeriver(ex).Derive(ctx, path)
	if err != nil {
		return identity{}, err
	}
	key, err := h.HashFile(ctx, path)
	if err != nil {
		return identity{}, err
	}
	return identity{Identifier: id, ContentKey: key}, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// Identify prints the game identifier and content key of a ROM.
func (a *App) Identify(ctx context.Context, args []string) error {
	var f identifyFlags
	fs := newFlagSet("identify")
	f.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: identify needs one rom", errUsage)
	}

	id, err := f.identify(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return a.printJSON(id)
}

// Lookup prints the catalog entry of a ROM, optionally filtered by -q.
func (a *App) Lookup(ctx context.Context, args []string) error {
	var (
		f           identifyFlags
		catalogPath string
		term        string
	)
	fs := newFlagSet("lookup")
	f.register(fs)
	fs.StringVar(&catalogPath, "catalog", "data/cheats.xml", "cheat database xml")
	fs.StringVar(&term, "q", "", "search term")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: lookup needs one rom", errUsage)
	}

	file, err := os.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()
	cat, err := catalog.Load(file)
	if err != nil {
		return err
	}

	id, err := f.identify(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	entry, ok := cat.Search(id.Identifier, term)
	if !ok {
		return fmt.Errorf("no cheats found for %s", id.Identifier)
	}
	return a.printJSON(entry)
}

// Apply writes a JSON selection of cheats into a copy of an emulator store.
// Without -o the store is modified in place.
func (a *App) Apply(ctx context.Context, args []string) error {
	var storePath, key, cheatsPath, outPath string
	fs := newFlagSet("apply")
	fs.StringVar(&storePath, "store", "", "emulator store")
	fs.StringVar(&key, "key", "", "join key (content key of the rom)")
	fs.StringVar(&cheatsPath, "cheats", "", "selection json")
	fs.StringVar(&outPath, "o", "", "output store")
	if err := parse(fs, args); err != nil {
		return err
	}
	if storePath == "" || key == "" || cheatsPath == "" {
		return fmt.Errorf("%w: apply needs -store, -key and -cheats", errUsage)
	}
	if outPath == "" {
		outPath = storePath
	}

	raw, err := os.ReadFile(cheatsPath)
	if err != nil {
		return fmt.Errorf("read selection: %w", err)
	}
	var selected []models.SelectedCheat
	if err := json.Unmarshal(raw, &selected); err != nil {
		return fmt.Errorf("parse selection: %w", err)
	}

	if outPath != storePath {
		data, err := os.ReadFile(storePath)
		if err != nil {
			return fmt.Errorf("read store: %w", err)
		}
		if err := filex.WriteAtomic(outPath, data); err != nil {
			return err
		}
	}

	res, err := deltadb.ApplyFile(ctx, outPath, key, selected, a.now())
	if err != nil {
		return err
	}
	return a.printJSON(map[string]any{
		"store":    outPath,
		"updated":  nonNil(res.Updated),
		"inserted": nonNil(res.Inserted),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
