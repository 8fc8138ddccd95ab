package channel

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
	"github.com/tribler/tsap/service/internal/shared/id"
	"github.com/tribler/tsap/service/internal/shared/types"
	"github.com/tribler/tsap/service/internal/shared/utils"
)

// RPC method names
const (
	MethodCreate        = "channels.create"
	MethodGet           = "channels.get"
	MethodGetLocal      = "channels.get_local"
	MethodSubscribe     = "channels.subscribe"
	MethodUnsubscribe   = "channels.unsubscribe"
	MethodGetSubscribed = "channels.get_subscribed"
)

// Manager exposes channels over RPC
type Manager struct {
	handle *session.Handle
	logger *logging.Logger
}

// NewManager creates the channel manager and registers its methods
func NewManager(handle *session.Handle, srv rpc.Registrar, logger *logging.Logger) (*Manager, error) {
	m := &Manager{
		handle: handle,
		logger: logger.Named("channels"),
	}

	methods := []struct {
		name    string
		handler rpc.Handler
	}{
		{MethodCreate, m.handleCreate},
		{MethodGet, m.handleGet},
		{MethodGetLocal, m.handleGetLocal},
		{MethodSubscribe, m.handleSubscribe},
		{MethodUnsubscribe, m.handleUnsubscribe},
		{MethodGetSubscribed, m.handleGetSubscribed},
	}
	for _, method := range methods {
		if err := srv.Register(method.name, method.handler); err != nil {
			return nil, fmt.Errorf("register %s: %w", method.name, err)
		}
	}

	return m, nil
}

// Methods returns the names NewManager registers
func Methods() []string {
	return []string{MethodCreate, MethodGet, MethodGetLocal, MethodSubscribe, MethodUnsubscribe, MethodGetSubscribed}
}

// Create stores a new channel with a fresh id
func (m *Manager) Create(ctx context.Context, name, description string) (types.Channel, error) {
	if err := utils.ValidateName(name, "name"); err != nil {
		return types.Channel{}, rpc.InvalidParams("%v", err)
	}
	if err := utils.ValidateDescription(description, "description"); err != nil {
		return types.Channel{}, rpc.InvalidParams("%v", err)
	}

	ch, err := m.handle.Channels().Create(ctx, types.Channel{
		ID:          id.NewChannelID().String(),
		Name:        strings.TrimSpace(name),
		Description: description,
	})
	if err != nil {
		return types.Channel{}, err
	}

	m.logger.Info("Channel created", zap.String("channel_id", ch.ID), zap.String("name", ch.Name))
	return ch, nil
}

// Get returns a channel with its torrent count
func (m *Manager) Get(ctx context.Context, channelID string) (types.Channel, error) {
	ch, err := m.handle.Channels().Get(ctx, channelID)
	if err != nil {
		return types.Channel{}, err
	}

	torrents, err := m.handle.Torrents().ByChannel(ctx, channelID)
	if err != nil {
		return types.Channel{}, err
	}
	ch.TorrentCount = len(torrents)
	return ch, nil
}

// Search returns the channels whose name contains every keyword term,
// sorted by name. An empty keyword lists all channels.
func (m *Manager) Search(ctx context.Context, keyword string) ([]types.Channel, error) {
	terms := utils.KeywordTerms(keyword)
	found, err := m.handle.Channels().List(ctx, func(ch types.Channel) bool {
		return utils.MatchesTerms(ch.Name, terms)
	})
	if err != nil {
		return nil, err
	}
	return m.withCounts(ctx, found)
}

// Subscribe marks a channel as subscribed
func (m *Manager) Subscribe(ctx context.Context, channelID string) (types.Channel, error) {
	return m.setSubscribed(ctx, channelID, true)
}

// Unsubscribe clears the subscription of a channel
func (m *Manager) Unsubscribe(ctx context.Context, channelID string) (types.Channel, error) {
	return m.setSubscribed(ctx, channelID, false)
}

// Subscribed returns the subscribed channels, sorted by name
func (m *Manager) Subscribed(ctx context.Context) ([]types.Channel, error) {
	found, err := m.handle.Channels().Subscribed(ctx)
	if err != nil {
		return nil, err
	}
	return m.withCounts(ctx, found)
}

func (m *Manager) setSubscribed(ctx context.Context, channelID string, subscribed bool) (types.Channel, error) {
	ch, err := m.handle.Channels().Update(ctx, channelID, func(ch *types.Channel) error {
		ch.Subscribed = subscribed
		return nil
	})
	if err != nil {
		return types.Channel{}, err
	}

	m.logger.Info("Channel subscription changed",
		zap.String("channel_id", channelID),
		zap.Bool("subscribed", subscribed),
	)
	return m.Get(ctx, ch.ID)
}

// withCounts fills TorrentCount and sorts by name
func (m *Manager) withCounts(ctx context.Context, channels []types.Channel) ([]types.Channel, error) {
	counts, err := m.handle.Torrents().CountByChannel(ctx)
	if err != nil {
		return nil, err
	}

	out := lo.Map(channels, func(ch types.Channel, _ int) types.Channel {
		ch.TorrentCount = counts[ch.ID]
		return ch
	})
	slices.SortFunc(out, func(a, b types.Channel) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}
