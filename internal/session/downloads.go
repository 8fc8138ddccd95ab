package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/tribler/tsap/service/internal/shared/types"
)

// ProgressUpdate carries the transfer state an engine reports for a download
type ProgressUpdate struct {
	Status          types.DownloadStatus
	TotalBytes      int64
	DownloadedBytes int64
	DownloadSpeed   int64
	UploadSpeed     int64
	Error           string

	// VOD fields only apply to downloads in VOD mode. VODFile is relative
	// to the download destination.
	VODPlayable bool
	VODFile     string
	VODETA      int64
}

// DownloadStore persists downloads
type DownloadStore struct {
	h *Handle
}

// Add stores a new download. If a download with the same infohash exists it
// is returned unchanged and created is false.
func (s *DownloadStore) Add(ctx context.Context, d types.Download) (out types.Download, created bool, err error) {
	if err := ctx.Err(); err != nil {
		return types.Download{}, false, err
	}

	now := time.Now().UTC()
	d.InfoHash = types.NormalizeInfoHash(d.InfoHash)
	if d.Status == "" {
		d.Status = types.DownloadQueued
	}
	d.AddedAt = now
	d.UpdatedAt = now
	if err := s.h.check(d); err != nil {
		return types.Download{}, false, err
	}

	key := downloadPrefix + d.InfoHash
	err = s.h.update(func(txn *badger.Txn) error {
		existing, err := readRecord[types.Download](txn, key)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		out, created = d, true
		return writeRecord(txn, key, d)
	})
	if err != nil {
		return types.Download{}, false, err
	}
	return out, created, nil
}

// Get returns the download with the given infohash
func (s *DownloadStore) Get(ctx context.Context, infoHash string) (types.Download, error) {
	if err := ctx.Err(); err != nil {
		return types.Download{}, err
	}

	var d types.Download
	err := s.h.view(func(txn *badger.Txn) error {
		var err error
		d, err = readRecord[types.Download](txn, downloadPrefix+types.NormalizeInfoHash(infoHash))
		return err
	})
	return d, err
}

// List returns all downloads in infohash order
func (s *DownloadStore) List(ctx context.Context) ([]types.Download, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []types.Download
	err := s.h.view(func(txn *badger.Txn) error {
		var err error
		all, err = scanRecords[types.Download](txn, downloadPrefix)
		return err
	})
	return all, err
}

// CountActive returns the number of downloads the engine should be working on
func (s *DownloadStore) CountActive(ctx context.Context) (int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return lo.CountBy(all, func(d types.Download) bool { return d.Status.Active() }), nil
}

// Update applies fn to the stored download in a single transaction
func (s *DownloadStore) Update(ctx context.Context, infoHash string, fn func(*types.Download) error) (types.Download, error) {
	if err := ctx.Err(); err != nil {
		return types.Download{}, err
	}

	infoHash = types.NormalizeInfoHash(infoHash)
	key := downloadPrefix + infoHash
	var d types.Download
	err := s.h.update(func(txn *badger.Txn) error {
		var err error
		d, err = readRecord[types.Download](txn, key)
		if err != nil {
			return err
		}
		if err := fn(&d); err != nil {
			return err
		}
		d.InfoHash = infoHash
		d.UpdatedAt = time.Now().UTC()
		if err := s.h.check(d); err != nil {
			return err
		}
		return writeRecord(txn, key, d)
	})
	if err != nil {
		return types.Download{}, err
	}
	return d, nil
}

// UpdateProgress records transfer state reported by the engine. Progress is
// derived from the byte counters and clamped to [0, 1].
func (s *DownloadStore) UpdateProgress(ctx context.Context, infoHash string, u ProgressUpdate) (types.Download, error) {
	return s.Update(ctx, infoHash, func(d *types.Download) error {
		if u.Status != "" {
			d.Status = u.Status
		}
		d.TotalBytes = max(u.TotalBytes, 0)
		d.DownloadedBytes = max(u.DownloadedBytes, 0)
		if d.TotalBytes > 0 {
			d.DownloadedBytes = min(d.DownloadedBytes, d.TotalBytes)
		}
		d.DownloadSpeed = max(u.DownloadSpeed, 0)
		d.UploadSpeed = max(u.UploadSpeed, 0)
		d.Error = u.Error

		switch {
		case d.TotalBytes > 0:
			d.Progress = lo.Clamp(float64(d.DownloadedBytes)/float64(d.TotalBytes), 0, 1)
		case d.Status == types.DownloadSeeding:
			d.Progress = 1
		default:
			d.Progress = 0
		}
		if d.Progress >= 1 && d.Status == types.DownloadDownloading {
			d.Status = types.DownloadSeeding
		}

		if d.VOD {
			if u.VODFile != "" && !filepath.IsLocal(u.VODFile) {
				return fmt.Errorf("%w: vod file %q is not inside the destination", ErrInvalid, u.VODFile)
			}
			if u.VODFile != "" {
				d.VODFile = u.VODFile
			}
			d.VODPlayable = u.VODPlayable || d.Status == types.DownloadSeeding
			d.VODETA = max(u.VODETA, 0)
		}
		return nil
	})
}

// Delete removes a download and reports whether it existed
func (s *DownloadStore) Delete(ctx context.Context, infoHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var existed bool
	err := s.h.update(func(txn *badger.Txn) error {
		var err error
		existed, err = deleteRecord(txn, downloadPrefix+types.NormalizeInfoHash(infoHash))
		return err
	})
	return existed, err
}
