package catalog

import (
	"strings"

	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

// Catalog is the in-memory cheat database keyed by GameIdentifier.
type Catalog struct {
	entries map[string]models.CatalogEntry
}

// Empty returns a catalog without games.
func Empty() *Catalog {
	return &Catalog{entries: map[string]models.CatalogEntry{}}
}

// Len returns the number of games.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// ByIdentifier returns a copy of the entry for id.
func (c *Catalog) ByIdentifier(id string) (models.CatalogEntry, bool) {
	e, ok := c.entries[id]
	if !ok {
		return models.CatalogEntry{}, false
	}
	return e.Clone(), true
}

// Search returns the entry for id reduced to cheats whose name, notes or
// codes contain term (case-insensitive). Folders left empty are dropped.
func (c *Catalog) Search(id, term string) (models.CatalogEntry, bool) {
	e, ok := c.entries[id]
	if !ok {
		return models.CatalogEntry{}, false
	}

	needle := strings.ToLower(term)
	out := models.CatalogEntry{
		Identifier: e.Identifier,
		Name:       e.Name,
		Date:       e.Date,
		Folders:    []models.Folder{},
	}
	for _, f := range e.Folders {
		var cheats []models.Cheat
		for _, ch := range f.Cheats {
			if matches(ch, needle) {
				cheats = append(cheats, ch)
			}
		}
		if len(cheats) == 0 {
			continue
		}
		out.Folders = append(out.Folders, models.Folder{Name: f.Name, AllowedOn: f.AllowedOn, Cheats: cheats})
	}
	return out, true
}

// SearchGames returns every entry whose name or identifier contains term
// (case-insensitive).
func (c *Catalog) SearchGames(term string) map[string]models.CatalogEntry {
	needle := strings.ToLower(term)
	out := make(map[string]models.CatalogEntry)
	for id, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Name), needle) || strings.Contains(strings.ToLower(id), needle) {
			out[id] = e.Clone()
		}
	}
	return out
}

func matches(ch models.Cheat, needle string) bool {
	return strings.Contains(strings.ToLower(ch.Name), needle) ||
		strings.Contains(strings.ToLower(ch.Notes), needle) ||
		strings.Contains(strings.ToLower(ch.Codes), needle)
}
