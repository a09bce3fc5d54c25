// Package models defines the data shapes shared by the catalog, the emulator
// store adapter, the services and the HTTP layer.
package models

// CatalogEntry is one game of the reference cheat database.
type CatalogEntry struct {
	// Identifier is "<product code> <JAMCRC>", e.g. "IPKE 1A2B3C4D".
	Identifier string   `json:"gameid"`
	Name       string   `json:"name"`
	Date       string   `json:"date"`
	Folders    []Folder `json:"folders"`
}

// Folder groups cheats for display. Order within an entry is significant.
type Folder struct {
	Name      string  `json:"folder_name"`
	AllowedOn int     `json:"allowed_on"`
	Cheats    []Cheat `json:"cheats"`
}

// Cheat is a single reference cheat. Codes keeps the reference formatting.
type Cheat struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
	Codes string `json:"codes"`
}

// Clone returns a deep copy of e.
func (e CatalogEntry) Clone() CatalogEntry {
	out := e
	out.Folders = make([]Folder, len(e.Folders))
	for i, f := range e.Folders {
		out.Folders[i] = f
		out.Folders[i].Cheats = append([]Cheat(nil), f.Cheats...)
	}
	return out
}
