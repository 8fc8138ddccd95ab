package download

import (
	"context"

	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/shared/types"
)

// handleAdd: downloads.add(infohash, name)
func (m *Manager) handleAdd(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(2, 2); err != nil {
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
	return m.Add(ctx, infoHash, name)
}

// handleRemove: downloads.remove(infohash, [remove_data])
func (m *Manager) handleRemove(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(1, 2); err != nil {
		return nil, err
	}
	infoHash, err := p.String(0)
	if err != nil {
		return nil, err
	}
	removeData, err := p.OptionalBool(1, false)
	if err != nil {
		return nil, err
	}
	return m.Remove(ctx, infoHash, removeData)
}

// handleStart: downloads.start(infohash)
func (m *Manager) handleStart(ctx context.Context, p rpc.Params) (any, error) {
	infoHash, err := singleHash(p)
	if err != nil {
		return nil, err
	}
	return m.Start(ctx, infoHash)
}

// handleStop: downloads.stop(infohash)
func (m *Manager) handleStop(ctx context.Context, p rpc.Params) (any, error) {
	infoHash, err := singleHash(p)
	if err != nil {
		return nil, err
	}
	return m.Stop(ctx, infoHash)
}

// handleStartVOD: downloads.start_vod(infohash)
func (m *Manager) handleStartVOD(ctx context.Context, p rpc.Params) (any, error) {
	infoHash, err := singleHash(p)
	if err != nil {
		return nil, err
	}
	return m.StartVOD(ctx, infoHash)
}

// handleGetProgressInfo: downloads.get_progress_info(infohash)
func (m *Manager) handleGetProgressInfo(ctx context.Context, p rpc.Params) (any, error) {
	infoHash, err := singleHash(p)
	if err != nil {
		return nil, err
	}
	return m.ProgressInfo(ctx, infoHash)
}

// handleGetAllProgressInfo: downloads.get_all_progress_info()
func (m *Manager) handleGetAllProgressInfo(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(0, 0); err != nil {
		return nil, err
	}
	all, err := m.AllProgressInfo(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []types.Progress{}
	}
	return all, nil
}

// handleGetFreeSpace: downloads.get_free_space()
func (m *Manager) handleGetFreeSpace(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(0, 0); err != nil {
		return nil, err
	}
	return m.FreeSpace(ctx)
}

func singleHash(p rpc.Params) (string, error) {
	if err := p.Expect(1, 1); err != nil {
		return "", err
	}
	return p.String(0)
}
