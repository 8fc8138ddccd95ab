package session

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/tribler/tsap/service/internal/shared/types"
)

// TorrentStore persists the torrent catalog
type TorrentStore struct {
	h *Handle
}

// Put inserts or replaces a torrent. AddedAt is preserved across updates.
func (s *TorrentStore) Put(ctx context.Context, t types.Torrent) (types.Torrent, error) {
	if err := ctx.Err(); err != nil {
		return types.Torrent{}, err
	}

	t.InfoHash = types.NormalizeInfoHash(t.InfoHash)
	if err := s.h.check(t); err != nil {
		return types.Torrent{}, err
	}

	key := torrentPrefix + t.InfoHash
	err := s.h.update(func(txn *badger.Txn) error {
		existing, err := readRecord[types.Torrent](txn, key)
		switch {
		case err == nil:
			t.AddedAt = existing.AddedAt
		case !errors.Is(err, ErrNotFound):
			return err
		case t.AddedAt.IsZero():
			t.AddedAt = time.Now().UTC()
		}
		return writeRecord(txn, key, t)
	})
	if err != nil {
		return types.Torrent{}, err
	}
	return t, nil
}

// Get returns the torrent with the given infohash
func (s *TorrentStore) Get(ctx context.Context, infoHash string) (types.Torrent, error) {
	if err := ctx.Err(); err != nil {
		return types.Torrent{}, err
	}

	var t types.Torrent
	err := s.h.view(func(txn *badger.Txn) error {
		var err error
		t, err = readRecord[types.Torrent](txn, torrentPrefix+types.NormalizeInfoHash(infoHash))
		return err
	})
	return t, err
}

// List returns all torrents matching filter. A nil filter matches everything.
func (s *TorrentStore) List(ctx context.Context, filter func(types.Torrent) bool) ([]types.Torrent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []types.Torrent
	err := s.h.view(func(txn *badger.Txn) error {
		var err error
		all, err = scanRecords[types.Torrent](txn, torrentPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return all, nil
	}
	return lo.Filter(all, func(t types.Torrent, _ int) bool { return filter(t) }), nil
}

// ByChannel returns the torrents that belong to a channel
func (s *TorrentStore) ByChannel(ctx context.Context, channelID string) ([]types.Torrent, error) {
	return s.List(ctx, func(t types.Torrent) bool { return t.ChannelID == channelID })
}

// CountByChannel returns the number of torrents per channel id
func (s *TorrentStore) CountByChannel(ctx context.Context) (map[string]int, error) {
	all, err := s.List(ctx, func(t types.Torrent) bool { return t.ChannelID != "" })
	if err != nil {
		return nil, err
	}
	return lo.CountValuesBy(all, func(t types.Torrent) string { return t.ChannelID }), nil
}

// Delete removes a torrent and reports whether it existed
func (s *TorrentStore) Delete(ctx context.Context, infoHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var existed bool
	err := s.h.update(func(txn *badger.Txn) error {
		var err error
		existed, err = deleteRecord(txn, torrentPrefix+types.NormalizeInfoHash(infoHash))
		return err
	})
	return existed, err
}
