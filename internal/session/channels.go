package session

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/tribler/tsap/service/internal/shared/types"
)

// ChannelStore persists channels
type ChannelStore struct {
	h *Handle
}

// Create stores a new channel. The caller supplies the id.
func (s *ChannelStore) Create(ctx context.Context, ch types.Channel) (types.Channel, error) {
	if err := ctx.Err(); err != nil {
		return types.Channel{}, err
	}

	now := time.Now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	if err := s.h.check(ch); err != nil {
		return types.Channel{}, err
	}

	key := channelPrefix + ch.ID
	err := s.h.update(func(txn *badger.Txn) error {
		_, err := readRecord[types.Channel](txn, key)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		return writeRecord(txn, key, ch)
	})
	if err != nil {
		return types.Channel{}, err
	}
	return ch, nil
}

// Get returns the channel with the given id
func (s *ChannelStore) Get(ctx context.Context, id string) (types.Channel, error) {
	if err := ctx.Err(); err != nil {
		return types.Channel{}, err
	}

	var ch types.Channel
	err := s.h.view(func(txn *badger.Txn) error {
		var err error
		ch, err = readRecord[types.Channel](txn, channelPrefix+id)
		return err
	})
	return ch, err
}

// Exists reports whether a channel with the given id is stored
func (s *ChannelStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Update applies fn to the stored channel in a single transaction
func (s *ChannelStore) Update(ctx context.Context, id string, fn func(*types.Channel) error) (types.Channel, error) {
	if err := ctx.Err(); err != nil {
		return types.Channel{}, err
	}

	key := channelPrefix + id
	var ch types.Channel
	err := s.h.update(func(txn *badger.Txn) error {
		var err error
		ch, err = readRecord[types.Channel](txn, key)
		if err != nil {
			return err
		}
		if err := fn(&ch); err != nil {
			return err
		}
		ch.ID = id
		ch.UpdatedAt = time.Now().UTC()
		if err := s.h.check(ch); err != nil {
			return err
		}
		return writeRecord(txn, key, ch)
	})
	if err != nil {
		return types.Channel{}, err
	}
	return ch, nil
}

// List returns all channels matching filter. A nil filter matches everything.
func (s *ChannelStore) List(ctx context.Context, filter func(types.Channel) bool) ([]types.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []types.Channel
	err := s.h.view(func(txn *badger.Txn) error {
		var err error
		all, err = scanRecords[types.Channel](txn, channelPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return all, nil
	}
	return lo.Filter(all, func(ch types.Channel, _ int) bool { return filter(ch) }), nil
}

// Subscribed returns the channels the user subscribed to
func (s *ChannelStore) Subscribed(ctx context.Context) ([]types.Channel, error) {
	return s.List(ctx, func(ch types.Channel) bool { return ch.Subscribed })
}
