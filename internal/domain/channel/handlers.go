package channel

import (
	"context"

	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/shared/types"
)

// handleCreate: channels.create(name, [description])
func (m *Manager) handleCreate(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(1, 2); err != nil {
		return nil, err
	}
	name, err := p.String(0)
	if err != nil {
		return nil, err
	}
	description, err := p.OptionalString(1, "")
	if err != nil {
		return nil, err
	}
	return m.Create(ctx, name, description)
}

// handleGet: channels.get(id)
func (m *Manager) handleGet(ctx context.Context, p rpc.Params) (any, error) {
	channelID, err := singleID(p)
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, channelID)
}

// handleGetLocal: channels.get_local([keyword])
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

// handleSubscribe: channels.subscribe(id)
func (m *Manager) handleSubscribe(ctx context.Context, p rpc.Params) (any, error) {
	channelID, err := singleID(p)
	if err != nil {
		return nil, err
	}
	return m.Subscribe(ctx, channelID)
}

// handleUnsubscribe: channels.unsubscribe(id)
func (m *Manager) handleUnsubscribe(ctx context.Context, p rpc.Params) (any, error) {
	channelID, err := singleID(p)
	if err != nil {
		return nil, err
	}
	return m.Unsubscribe(ctx, channelID)
}

// handleGetSubscribed: channels.get_subscribed()
func (m *Manager) handleGetSubscribed(ctx context.Context, p rpc.Params) (any, error) {
	if err := p.Expect(0, 0); err != nil {
		return nil, err
	}
	return nonNil(m.Subscribed(ctx))
}

func singleID(p rpc.Params) (string, error) {
	if err := p.Expect(1, 1); err != nil {
		return "", err
	}
	return p.String(0)
}

func nonNil(channels []types.Channel, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []types.Channel{}
	}
	return channels, nil
}
