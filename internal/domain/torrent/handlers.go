package torrent

import (
	"context"

	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/shared/types"
)

// handleAdd: torrents.add(infohash, name, [size], [channel_id])
func (m *Manager) handleAdd(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(2, 4); err != nil {
		return nil, err
	}
	infoHash, err := p.String(0)
	if err != nil {
		return nil, err
	}
	name, err := p.String(1)
	if err != nil {
		return nil, err
	}
	size, err := p.OptionalInt64(2, 0)
	if err != nil {
		return nil, err
	}
	channelID, err := p.OptionalString(3, "")
	if err != nil {
		return nil, err
	}

	return m.Add(ctx, types.Torrent{
		InfoHash:  infoHash,
		Name:      name,
		Size:      size,
		ChannelID: channelID,
	})
}

// handleGet: torrents.get(infohash)
func (m *Manager) handleGet(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(1, 1); err != nil {
		return nil, err
	}
	infoHash, err := p.String(0)
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, infoHash)
}

// handleGetLocal: torrents.get_local([keyword])
func (m *Manager) handleGetLocal(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(0, 1); err != nil {
		return nil, err
	}
	keyword, err := p.OptionalString(0, "")
	if err != nil {
		return nil, err
	}
	return nonNil(m.Search(ctx, keyword))
}

// handleGetByChannel: torrents.get_by_channel(channel_id)
func (m *Manager) handleGetByChannel(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(1, 1); err != nil {
		return nil, err
	}
	channelID, err := p.String(0)
	if err != nil {
		return nil, err
	}
	return nonNil(m.ByChannel(ctx, channelID))
}

// handleRemove: torrents.remove(infohash)
func (m *Manager) handleRemove(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(1, 1); err != nil {
		return nil, err
	}
	infoHash, err := p.String(0)
	if err != nil {
		return nil, err
	}
	return m.Remove(ctx, infoHash)
}

// nonNil makes empty results encode as [] rather than null
func nonNil(torrents []types.Torrent, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if torrents == nil {
		torrents = []types.Torrent{}
	}
	return torrents, nil
}
