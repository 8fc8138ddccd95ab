package types

import (
	"net/url"
	"path/filepath"
	"time"
)

// DownloadStatus represents download lifecycle states
type DownloadStatus string

const (
	DownloadQueued      DownloadStatus = "queued"
	DownloadChecking    DownloadStatus = "checking"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadSeeding     DownloadStatus = "seeding"
	DownloadStopped     DownloadStatus = "stopped"
	DownloadFailed      DownloadStatus = "failed"
)

// Active reports whether the transfer engine should be working on the download
func (s DownloadStatus) Active() bool {
	switch s {
	case DownloadQueued, DownloadChecking, DownloadDownloading, DownloadSeeding:
		return true
	default:
		return false
	}
}

// UnknownETA is reported when no estimate is possible
const UnknownETA int64 = -1

// Download represents a torrent being transferred to local disk
type Download struct {
	InfoHash        string         `json:"infohash" validate:"required,infohash"`
	Name            string         `json:"name" validate:"required,max=1024"`
	Destination     string         `json:"destination" validate:"required"`
	Status          DownloadStatus `json:"status" validate:"required"`
	Progress        float64        `json:"progress" validate:"gte=0,lte=1"`
	TotalBytes      int64          `json:"total_bytes" validate:"gte=0"`
	DownloadedBytes int64          `json:"downloaded_bytes" validate:"gte=0"`
	DownloadSpeed   int64          `json:"download_speed"`
	UploadSpeed     int64          `json:"upload_speed"`
	Error           string         `json:"error,omitempty"`
	VOD             bool           `json:"vod"`
	VODPlayable     bool           `json:"vod_playable"`
	VODFile         string         `json:"vod_file,omitempty"`
	VODETA          int64          `json:"vod_eta"`
	AddedAt         time.Time      `json:"added_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Progress is the polling view of a download
type Progress struct {
	InfoHash        string         `json:"infohash"`
	Name            string         `json:"name"`
	Status          DownloadStatus `json:"status"`
	Progress        float64        `json:"progress"`
	DownloadSpeed   int64          `json:"download_speed"`
	UploadSpeed     int64          `json:"upload_speed"`
	ETA             int64          `json:"eta"`
	TotalBytes      int64          `json:"total_bytes"`
	DownloadedBytes int64          `json:"downloaded_bytes"`
	VOD             bool           `json:"vod"`
	VODPlayable     bool           `json:"vod_playable"`
	VODETA          int64          `json:"vod_eta"`
	VODURI          string         `json:"vod_uri,omitempty"`
}

// VideoPath returns the file streamed in VOD mode. VODFile is relative to
// the destination; an empty VODFile means the destination itself.
func (d *Download) VideoPath() string {
	if d.VODFile == "" {
		return d.Destination
	}
	return filepath.Join(d.Destination, d.VODFile)
}

// ToProgress builds the polling view, estimating the remaining time from
// the current download speed.
func (d *Download) ToProgress() Progress {
	eta := UnknownETA
	remaining := d.TotalBytes - d.DownloadedBytes
	switch {
	case d.Status == DownloadSeeding || (d.TotalBytes > 0 && remaining <= 0):
		eta = 0
	case d.DownloadSpeed > 0 && remaining > 0:
		eta = (remaining + d.DownloadSpeed - 1) / d.DownloadSpeed
	}

	vodETA := UnknownETA
	var vodURI string
	switch {
	case !d.VOD:
	case d.VODPlayable:
		vodETA = 0
		vodURI = (&url.URL{Scheme: "file", Path: filepath.ToSlash(d.VideoPath())}).String()
	case d.VODETA > 0:
		vodETA = d.VODETA
	}

	return Progress{
		InfoHash:        d.InfoHash,
		Name:            d.Name,
		Status:          d.Status,
		Progress:        d.Progress,
		DownloadSpeed:   d.DownloadSpeed,
		UploadSpeed:     d.UploadSpeed,
		ETA:             eta,
		TotalBytes:      d.TotalBytes,
		DownloadedBytes: d.DownloadedBytes,
		VOD:             d.VOD,
		VODPlayable:     d.VOD && d.VODPlayable,
		VODETA:          vodETA,
		VODURI:          vodURI,
	}
}
