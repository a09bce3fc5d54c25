package models

import "time"

// ForeignGame is a row of the emulator store's game table (ZGAME).
type ForeignGame struct {
	PK         int64
	Identifier string
	Name       string
}

// ForeignCheat is a row of the emulator store's cheat table (ZCHEAT).
type ForeignCheat struct {
	PK         int64
	Entity     int64
	Opt        int64
	Enabled    bool
	GamePK     int64
	CreatedAt  time.Time
	ModifiedAt time.Time
	Code       string
	Identifier string
	Name       string
	Type       []byte
}

// SelectedCheat is a cheat chosen by the user for writing into a store.
// Enabled defaults to true when omitted.
type SelectedCheat struct {
	Name    string `json:"name"`
	Codes   string `json:"codes"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IsEnabled reports the requested enabled state.
func (s SelectedCheat) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// OverlayEntry is the user's saved state of one cheat, taken from an
// imported store.
type OverlayEntry struct {
	Enabled    bool   `json:"is_enabled"`
	Bookmarked bool   `json:"is_bookmarked"`
	Codes      string `json:"codes"`
}

// Overlay maps cheat name to the user's saved state for one content key.
type Overlay map[string]OverlayEntry

// Clone returns a copy of o.
func (o Overlay) Clone() Overlay {
	out := make(Overlay, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// ApplyResult summarises a write into an emulator store.
type ApplyResult struct {
	Updated  []string
	Inserted []int64
}
