package types

import (
	"strings"
	"time"
)

// InfoHashLength is the length of a hex encoded SHA-1 infohash
const InfoHashLength = 40

// Torrent represents a catalog entry
type Torrent struct {
	InfoHash  string    `json:"infohash" validate:"required,infohash"`
	Name      string    `json:"name" validate:"required,max=1024"`
	Size      int64     `json:"size" validate:"gte=0"`
	ChannelID string    `json:"channel_id,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// NormalizeInfoHash lower-cases and trims an infohash so that lookups are
// case-insensitive.
func NormalizeInfoHash(infoHash string) string {
	return strings.ToLower(strings.TrimSpace(infoHash))
}

// IsInfoHash reports whether s is exactly 40 lower-case hex digits, the
// form NormalizeInfoHash produces for a valid infohash.
func IsInfoHash(s string) bool {
	if len(s) != InfoHashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
