// Package catalog loads the reference cheat database and answers lookups
// against it. A Catalog is immutable after Load and safe for concurrent use.
package catalog

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/deltacheats/internal/logging"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"golang.org/x/net/html/charset"
)

const (
	GeneralFolder = "General"
	unnamedCheat  = "Unnamed Cheat"
	unnamedFolder = "Unnamed Folder"
	unknownGame   = "Unknown Game"
	unknownGameID = "UNKNOWN"
	unknownDate   = "Unknown Date"
)

// Every repeated element is a slice so that 0, 1 and N occurrences decode
// into the same shape.
type xmlCodelist struct {
	XMLName xml.Name  `xml:"codelist"`
	Games   []xmlGame `xml:"game"`
}

type xmlGame struct {
	Name    *string     `xml:"name"`
	GameID  *string     `xml:"gameid"`
	Date    *string     `xml:"date"`
	Cheats  []xmlCheat  `xml:"cheat"`
	Folders []xmlFolder `xml:"folder"`
}

type xmlFolder struct {
	Name           *string    `xml:"name"`
	AllowedOnAttr  string     `xml:"allowedon,attr"`
	AllowedOnAttr2 string     `xml:"allowed_on,attr"`
	AllowedOnElem  string     `xml:"allowedon"`
	Cheats         []xmlCheat `xml:"cheat"`
}

type xmlCheat struct {
	Name  *string `xml:"name"`
	Note  *string `xml:"note"`
	Codes *string `xml:"codes"`
}

// Load parses a codelist document in any encoding its prolog declares.
// Duplicate game identifiers keep the last occurrence.
func Load(r io.Reader) (*Catalog, error) {
	var doc xmlCodelist
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode cheat xml: %w", err)
	}

	entries := make(map[string]models.CatalogEntry, len(doc.Games))
	for _, g := range doc.Games {
		e := normalizeGame(g)
		entries[e.Identifier] = e
	}
	return &Catalog{entries: entries}, nil
}

// LoadFile loads the catalog at path. A missing or malformed file is logged
// and yields an empty catalog so that the service can still start.
func LoadFile(ctx context.Context, path string, log logging.Logger) *Catalog {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error(ctx, "cheat database not found", "path", path)
		} else {
			log.Error(ctx, "cannot open cheat database", "path", path, "error", err)
		}
		return Empty()
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		log.Error(ctx, "cannot parse cheat database", "path", path, "error", err)
		return Empty()
	}

	log.Info(ctx, "cheat database loaded", "path", path, "games", c.Len())
	return c
}

func normalizeGame(g xmlGame) models.CatalogEntry {
	e := models.CatalogEntry{
		Identifier: textOr(g.GameID, unknownGameID),
		Name:       textOr(g.Name, unknownGame),
		Date:       textOr(g.Date, unknownDate),
		Folders:    make([]models.Folder, 0, len(g.Folders)+1),
	}

	if len(g.Cheats) > 0 {
		e.Folders = append(e.Folders, models.Folder{
			Name:   GeneralFolder,
			Cheats: normalizeCheats(g.Cheats),
		})
	}

	for _, f := range g.Folders {
		e.Folders = append(e.Folders, models.Folder{
			Name:      textOr(f.Name, unnamedFolder),
			AllowedOn: parseAllowedOn(f),
			Cheats:    normalizeCheats(f.Cheats),
		})
	}
	return e
}

func normalizeCheats(in []xmlCheat) []models.Cheat {
	out := make([]models.Cheat, 0, len(in))
	for _, c := range in {
		out = append(out, models.Cheat{
			Name:  textOr(c.Name, unnamedCheat),
			Notes: textOr(c.Note, ""),
			Codes: textOr(c.Codes, ""),
		})
	}
	return out
}

func parseAllowedOn(f xmlFolder) int {
	for _, raw := range []string{f.AllowedOnAttr, f.AllowedOnAttr2, f.AllowedOnElem} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return 0
}

// textOr returns the trimmed text of s, or def when s is absent or blank.
func textOr(s *string, def string) string {
	if s == nil {
		return def
	}
	if v := strings.TrimSpace(*s); v != "" {
		return v
	}
	return def
}
