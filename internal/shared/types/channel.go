package types

import "time"

// Channel represents a named collection of torrents
type Channel struct {
	ID           string    `json:"id" validate:"required"`
	Name         string    `json:"name" validate:"required,max=256"`
	Description  string    `json:"description" validate:"max=4096"`
	Subscribed   bool      `json:"subscribed"`
	TorrentCount int       `json:"torrent_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
