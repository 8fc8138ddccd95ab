package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/disk"
	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/infrastructure/monitoring"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
	"github.com/tribler/tsap/service/internal/shared/types"
	"github.com/tribler/tsap/service/internal/shared/utils"
)

// RPC method names
const (
	MethodAdd                = "downloads.add"
	MethodRemove             = "downloads.remove"
	MethodStart              = "downloads.start"
	MethodStop               = "downloads.stop"
	MethodGetProgressInfo    = "downloads.get_progress_info"
	MethodGetAllProgressInfo = "downloads.get_all_progress_info"
	MethodGetFreeSpace       = "downloads.get_free_space"
	MethodStartVOD           = "downloads.start_vod"
)

// Method names used by the Android client
const (
	LegacyDownloadTorrent = "downloadTorrent"
	LegacyGetProgressInfo = "getProgressInfo"
	LegacyDeleteTorrent   = "deleteTorrent"
	LegacyStartVOD        = "startVOD"
)

// Manager exposes downloads over RPC
type Manager struct {
	handle  *session.Handle
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates the download manager and registers its methods
func NewManager(handle *session.Handle, srv rpc.Registrar, logger *logging.Logger) (*Manager, error) {
	m := &Manager{
		handle: handle,
		logger: logger.Named("downloads"),
	}

	methods := []struct {
		name    string
		handler rpc.Handler
	}{
		{MethodAdd, m.handleAdd},
		{MethodRemove, m.handleRemove},
		{MethodStart, m.handleStart},
		{MethodStop, m.handleStop},
		{MethodGetProgressInfo, m.handleGetProgressInfo},
		{MethodGetAllProgressInfo, m.handleGetAllProgressInfo},
		{MethodGetFreeSpace, m.handleGetFreeSpace},
		{MethodStartVOD, m.handleStartVOD},
		{LegacyDownloadTorrent, m.handleAdd},
		{LegacyGetProgressInfo, m.handleGetProgressInfo},
		{LegacyDeleteTorrent, m.handleRemove},
		{LegacyStartVOD, m.handleStartVOD},
	}
	for _, method := range methods {
		if err := srv.Register(method.name, method.handler); err != nil {
			return nil, fmt.Errorf("register %s: %w", method.name, err)
		}
	}

	return m, nil
}

// WithMetrics adds download gauges to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Methods returns the names NewManager registers
func Methods() []string {
	return []string{
		MethodAdd, MethodRemove, MethodStart, MethodStop,
		MethodGetProgressInfo, MethodGetAllProgressInfo, MethodGetFreeSpace,
		MethodStartVOD,
		LegacyDownloadTorrent, LegacyGetProgressInfo, LegacyDeleteTorrent,
		LegacyStartVOD,
	}
}

// Add queues a download into <download dir>/<name>. Adding an infohash that
// is already present returns the existing download.
func (m *Manager) Add(ctx context.Context, infoHash, name string) (types.Download, error) {
	if err := utils.ValidateFileName(name, "name"); err != nil {
		return types.Download{}, rpc.InvalidParams("%v", err)
	}

	d, created, err := m.handle.Downloads().Add(ctx, types.Download{
		InfoHash:    infoHash,
		Name:        name,
		Destination: filepath.Join(m.handle.DownloadDir(), name),
		Status:      types.DownloadQueued,
	})
	if err != nil {
		return types.Download{}, err
	}

	if created {
		m.logger.Info("Download added",
			zap.String("infohash", d.InfoHash),
			zap.String("name", d.Name),
			zap.String("destination", d.Destination),
		)
		if m.metrics != nil {
			m.metrics.IncDownloadsTotal()
		}
		m.refreshActive(ctx)
	}
	return d, nil
}

// Remove deletes a download. With removeData the downloaded files are
// deleted as well. It reports whether the download existed.
func (m *Manager) Remove(ctx context.Context, infoHash string, removeData bool) (bool, error) {
	d, err := m.handle.Downloads().Get(ctx, infoHash)
	if errors.Is(err, session.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// data goes first so a failed removal leaves the download in place
	if removeData {
		if err := m.removeData(d.Destination); err != nil {
			return false, err
		}
	}

	existed, err := m.handle.Downloads().Delete(ctx, infoHash)
	if err != nil || !existed {
		return existed, err
	}

	m.logger.Info("Download removed",
		zap.String("infohash", d.InfoHash),
		zap.Bool("remove_data", removeData),
	)
	m.refreshActive(ctx)
	return true, nil
}

// Start requeues a stopped or failed download. Active downloads are
// returned unchanged.
func (m *Manager) Start(ctx context.Context, infoHash string) (types.Download, error) {
	d, err := m.handle.Downloads().Update(ctx, infoHash, func(d *types.Download) error {
		if !d.Status.Active() {
			d.Status = types.DownloadQueued
			d.Error = ""
		}
		return nil
	})
	if err != nil {
		return types.Download{}, err
	}

	m.refreshActive(ctx)
	return d, nil
}

// Stop halts a download. Stopping a stopped download is a no-op.
func (m *Manager) Stop(ctx context.Context, infoHash string) (types.Download, error) {
	d, err := m.handle.Downloads().Update(ctx, infoHash, func(d *types.Download) error {
		if d.Status != types.DownloadStopped {
			d.Status = types.DownloadStopped
			d.DownloadSpeed = 0
			d.UploadSpeed = 0
		}
		return nil
	})
	if err != nil {
		return types.Download{}, err
	}

	m.refreshActive(ctx)
	return d, nil
}

// StartVOD switches a download to streaming mode. Inactive downloads are
// requeued; playability is then reported by the engine through progress
// updates.
func (m *Manager) StartVOD(ctx context.Context, infoHash string) (types.Download, error) {
	var switched bool
	d, err := m.handle.Downloads().Update(ctx, infoHash, func(d *types.Download) error {
		if !d.Status.Active() {
			d.Status = types.DownloadQueued
			d.Error = ""
		}
		if !d.VOD {
			d.VOD = true
			d.VODPlayable = false
			switched = true
		}
		return nil
	})
	if err != nil {
		return types.Download{}, err
	}

	if switched {
		m.logger.Info("Download switched to VOD", zap.String("infohash", d.InfoHash))
	}
	m.refreshActive(ctx)
	return d, nil
}

// ProgressInfo returns the polling view of one download
func (m *Manager) ProgressInfo(ctx context.Context, infoHash string) (types.Progress, error) {
	d, err := m.handle.Downloads().Get(ctx, infoHash)
	if err != nil {
		return types.Progress{}, err
	}
	return d.ToProgress(), nil
}

// AllProgressInfo returns the polling view of every download
func (m *Manager) AllProgressInfo(ctx context.Context) ([]types.Progress, error) {
	all, err := m.handle.Downloads().List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(all, func(d types.Download, _ int) types.Progress {
		return d.ToProgress()
	}), nil
}

// FreeSpace returns the free bytes on the volume holding the download dir
func (m *Manager) FreeSpace(ctx context.Context) (uint64, error) {
	usage, err := disk.UsageWithContext(ctx, m.handle.DownloadDir())
	if err != nil {
		return 0, fmt.Errorf("disk usage of %s: %w", m.handle.DownloadDir(), err)
	}
	return usage.Free, nil
}

// removeData deletes a destination, refusing anything outside the
// download directory.
func (m *Manager) removeData(destination string) error {
	base := filepath.Clean(m.handle.DownloadDir())
	rel, err := filepath.Rel(base, filepath.Clean(destination))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %s outside %s", destination, base)
	}
	if err := os.RemoveAll(destination); err != nil {
		return fmt.Errorf("remove data: %w", err)
	}
	return nil
}

func (m *Manager) refreshActive(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	active, err := m.handle.Downloads().CountActive(ctx)
	if err != nil {
		m.logger.Warn("Failed to count active downloads", zap.Error(err))
		return
	}
	m.metrics.SetDownloadsActive(active)
}
