package models

import (
	"bytes"
	"encoding/json"
)

// Bookmark is a durable "starred" cheat for a game.
type Bookmark struct {
	GameID    string `json:"gameid"`
	CheatName string `json:"cheat_name"`
	CheatCode string `json:"cheat_code,omitempty"`
}

// BookmarkItem is the request form of a bookmark. Clients may send either a
// bare cheat name or an object with cheat_name and cheat_code.
type BookmarkItem struct {
	CheatName string `json:"cheat_name"`
	CheatCode string `json:"cheat_code,omitempty"`
}

func (b *BookmarkItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.CheatName)
	}
	type plain BookmarkItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BookmarkItem(p)
	return nil
}
