package torrent

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
	"github.com/tribler/tsap/service/internal/shared/types"
	"github.com/tribler/tsap/service/internal/shared/utils"
)

// RPC method names
const (
	MethodAdd          = "torrents.add"
	MethodGet          = "torrents.get"
	MethodGetLocal     = "torrents.get_local"
	MethodGetByChannel = "torrents.get_by_channel"
	MethodRemove       = "torrents.remove"
)

// Manager exposes the torrent catalog over RPC
type Manager struct {
	handle *session.Handle
	logger *logging.Logger
}

// NewManager creates the torrent manager and registers its methods
func NewManager(handle *session.Handle, srv rpc.Registrar, logger *logging.Logger) (*Manager, error) {
	m := &Manager{
		handle: handle,
		logger: logger.Named("torrents"),
	}

	methods := []struct {
		name    string
		handler rpc.Handler
	}{
		{MethodAdd, m.handleAdd},
		{MethodGet, m.handleGet},
		{MethodGetLocal, m.handleGetLocal},
		{MethodGetByChannel, m.handleGetByChannel},
		{MethodRemove, m.handleRemove},
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
	return []string{MethodAdd, MethodGet, MethodGetLocal, MethodGetByChannel, MethodRemove}
}

// Add stores a torrent in the local catalog. A non-empty channel must exist.
func (m *Manager) Add(ctx context.Context, t types.Torrent) (types.Torrent, error) {
	if err := utils.ValidateString(t.Name, "name", 1, utils.MaxFileNameLength, true); err != nil {
		return types.Torrent{}, rpc.InvalidParams("%v", err)
	}
	if t.Size < 0 {
		return types.Torrent{}, rpc.InvalidParams("size must not be negative")
	}

	if t.ChannelID != "" {
		exists, err := m.handle.Channels().Exists(ctx, t.ChannelID)
		if err != nil {
			return types.Torrent{}, err
		}
		if !exists {
			return types.Torrent{}, fmt.Errorf("channel %s: %w", t.ChannelID, session.ErrNotFound)
		}
	}

	stored, err := m.handle.Torrents().Put(ctx, t)
	if err != nil {
		return types.Torrent{}, err
	}

	m.logger.Info("Torrent added",
		zap.String("infohash", stored.InfoHash),
		zap.String("name", stored.Name),
		zap.String("channel_id", stored.ChannelID),
	)
	return stored, nil
}

// Get returns a torrent by infohash
func (m *Manager) Get(ctx context.Context, infoHash string) (types.Torrent, error) {
	return m.handle.Torrents().Get(ctx, infoHash)
}

// Search returns the torrents whose name contains every keyword term,
// sorted by name. An empty keyword lists the whole catalog.
func (m *Manager) Search(ctx context.Context, keyword string) ([]types.Torrent, error) {
	terms := utils.KeywordTerms(keyword)
	found, err := m.handle.Torrents().List(ctx, func(t types.Torrent) bool {
		return utils.MatchesTerms(t.Name, terms)
	})
	if err != nil {
		return nil, err
	}
	sortByName(found)
	return found, nil
}

// ByChannel returns the torrents of a channel, sorted by name
func (m *Manager) ByChannel(ctx context.Context, channelID string) ([]types.Torrent, error) {
	found, err := m.handle.Torrents().ByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	sortByName(found)
	return found, nil
}

// Remove deletes a torrent and reports whether it existed
func (m *Manager) Remove(ctx context.Context, infoHash string) (bool, error) {
	existed, err := m.handle.Torrents().Delete(ctx, infoHash)
	if err != nil {
		return false, err
	}
	if existed {
		m.logger.Info("Torrent removed", zap.String("infohash", types.NormalizeInfoHash(infoHash)))
	}
	return existed, nil
}

func sortByName(torrents []types.Torrent) {
	slices.SortFunc(torrents, func(a, b types.Torrent) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.InfoHash, b.InfoHash)
	})
}
