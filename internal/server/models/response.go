package models

// CheatView is a catalog cheat with the user's state applied.
type CheatView struct {
	Name         string `json:"name"`
	Notes        string `json:"notes"`
	Codes        string `json:"codes"`
	IsEnabled    bool   `json:"is_enabled"`
	IsBookmarked bool   `json:"is_bookmarked"`
}

// FolderView is a folder of CheatView.
type FolderView struct {
	Name      string      `json:"folder_name"`
	AllowedOn int         `json:"allowed_on"`
	Cheats    []CheatView `json:"cheats"`
}

// RomResponse is the reconciled view of an uploaded ROM. When Found is false
// only Identifier and ContentKey are meaningful.
type RomResponse struct {
	Identifier string       `json:"identifier"`
	ContentKey string       `json:"content_key"`
	GameName   string       `json:"game_name"`
	Folders    []FolderView `json:"folders"`
	Found      bool         `json:"-"`
}

// ErrorResponse is the JSON error body. Identifier is set when a ROM was
// identified but could not be served.
type ErrorResponse struct {
	Error      string `json:"error"`
	Identifier string `json:"identifier,omitempty"`
}

// GameView is a game with imported cheat state. GameID is the content key
// the state was imported under.
type GameView struct {
	GameID   string       `json:"gameid"`
	GameName string       `json:"game_name"`
	Folders  []FolderView `json:"folders"`
}
