package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/infrastructure/monitoring"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
	"github.com/tribler/tsap/service/internal/shared/types"
	tu "github.com/tribler/tsap/service/internal/testutil"
)

func newManager(t *testing.T) (*Manager, *tu.MockRegistrar, *session.Handle, *monitoring.Metrics) {
	t.Helper()
	handle := tu.NewSession(t).Handle()
	reg := tu.NewMockRegistrar(t)
	metrics := monitoring.NewMetrics()

	m, err := NewManager(handle, reg, logging.NewNop())
	require.NoError(t, err)
	return m.WithMetrics(metrics), reg, handle, metrics
}

func TestNewManagerRegistersMethods(t *testing.T) {
	_, reg, _, _ := newManager(t)
	assert.ElementsMatch(t, Methods(), reg.Names())
}

func TestAdd(t *testing.T) {
	_, reg, handle, metrics := newManager(t)
	hash := tu.InfoHash("ab")

	got, err := reg.Call(t, MethodAdd, hash, "ubuntu.iso")
	require.NoError(t, err)

	d := got.(types.Download)
	assert.Equal(t, types.DownloadQueued, d.Status)
	assert.Equal(t, filepath.Join(handle.DownloadDir(), "ubuntu.iso"), d.Destination)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownloadsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownloadsActive))

	t.Run("idempotent", func(t *testing.T) {
		again, err := reg.Call(t, LegacyDownloadTorrent, hash, "other-name")
		require.NoError(t, err)
		assert.Equal(t, "ubuntu.iso", again.(types.Download).Name)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownloadsTotal))
	})

	t.Run("rejects path names", func(t *testing.T) {
		_, err := reg.Call(t, MethodAdd, tu.InfoHash("cd"), "../escape")
		var rpcErr *rpc.Error
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, rpc.CodeInvalidParams, rpcErr.Code)
	})

	t.Run("rejects bad infohash", func(t *testing.T) {
		_, err := reg.Call(t, MethodAdd, "1234", "file")
		assert.ErrorIs(t, err, session.ErrInvalid)
	})
}

func TestStartStop(t *testing.T) {
	m, reg, _, metrics := newManager(t)
	ctx := context.Background()
	hash := tu.InfoHash("ab")

	_, err := m.Add(ctx, hash, "file")
	require.NoError(t, err)

	got, err := reg.Call(t, MethodStop, hash)
	require.NoError(t, err)
	assert.Equal(t, types.DownloadStopped, got.(types.Download).Status)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DownloadsActive))

	got, err = reg.Call(t, MethodStop, hash)
	require.NoError(t, err)
	assert.Equal(t, types.DownloadStopped, got.(types.Download).Status)

	got, err = reg.Call(t, MethodStart, hash)
	require.NoError(t, err)
	assert.Equal(t, types.DownloadQueued, got.(types.Download).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownloadsActive))

	_, err = reg.Call(t, MethodStart, tu.InfoHash("ee"))
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestProgressInfo(t *testing.T) {
	m, reg, handle, _ := newManager(t)
	ctx := context.Background()
	hash := tu.InfoHash("ab")

	_, err := m.Add(ctx, hash, "file")
	require.NoError(t, err)
	_, err = handle.Downloads().UpdateProgress(ctx, hash, session.ProgressUpdate{
		Status:          types.DownloadDownloading,
		TotalBytes:      2000,
		DownloadedBytes: 500,
		DownloadSpeed:   100,
		UploadSpeed:     7,
	})
	require.NoError(t, err)

	got, err := reg.Call(t, LegacyGetProgressInfo, hash)
	require.NoError(t, err)

	p := got.(types.Progress)
	assert.Equal(t, types.DownloadDownloading, p.Status)
	assert.InDelta(t, 0.25, p.Progress, 1e-9)
	assert.Equal(t, int64(15), p.ETA)
	assert.Equal(t, int64(7), p.UploadSpeed)

	all, err := reg.Call(t, MethodGetAllProgressInfo)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = reg.Call(t, MethodGetProgressInfo, tu.InfoHash("ee"))
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAllProgressInfoEmpty(t *testing.T) {
	_, reg, _, _ := newManager(t)

	got, err := reg.Call(t, MethodGetAllProgressInfo)
	require.NoError(t, err)
	assert.Equal(t, []types.Progress{}, got)
}

func TestRemove(t *testing.T) {
	m, reg, handle, _ := newManager(t)
	ctx := context.Background()

	keep := tu.InfoHash("aa")
	purge := tu.InfoHash("bb")
	for hash, name := range map[string]string{keep: "keep", purge: "purge"} {
		_, err := m.Add(ctx, hash, name)
		require.NoError(t, err)
		dir := filepath.Join(handle.DownloadDir(), name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.bin"), []byte("x"), 0o644))
	}

	removed, err := reg.Call(t, MethodRemove, keep, false)
	require.NoError(t, err)
	assert.Equal(t, true, removed)
	assert.DirExists(t, filepath.Join(handle.DownloadDir(), "keep"))

	removed, err = reg.Call(t, LegacyDeleteTorrent, purge, true)
	require.NoError(t, err)
	assert.Equal(t, true, removed)
	assert.NoDirExists(t, filepath.Join(handle.DownloadDir(), "purge"))

	removed, err = reg.Call(t, MethodRemove, purge)
	require.NoError(t, err)
	assert.Equal(t, false, removed)
}

func TestRemoveKeepsDownloadWhenDataRemovalFails(t *testing.T) {
	m, reg, handle, _ := newManager(t)
	ctx := context.Background()
	hash := tu.InfoHash("ab")

	_, err := m.Add(ctx, hash, "file")
	require.NoError(t, err)
	outside := t.TempDir()
	_, err = handle.Downloads().Update(ctx, hash, func(d *types.Download) error {
		d.Destination = outside
		return nil
	})
	require.NoError(t, err)

	removed, err := reg.Call(t, MethodRemove, hash, true)
	require.Error(t, err)
	assert.Equal(t, false, removed)
	assert.DirExists(t, outside)

	d, err := handle.Downloads().Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, outside, d.Destination)
}

func TestStartVOD(t *testing.T) {
	m, reg, handle, metrics := newManager(t)
	ctx := context.Background()
	hash := tu.InfoHash("ab")

	_, err := m.Add(ctx, hash, "movie")
	require.NoError(t, err)
	_, err = m.Stop(ctx, hash)
	require.NoError(t, err)

	got, err := reg.Call(t, LegacyStartVOD, hash)
	require.NoError(t, err)
	d := got.(types.Download)
	assert.True(t, d.VOD)
	assert.False(t, d.VODPlayable)
	assert.Equal(t, types.DownloadQueued, d.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownloadsActive))

	_, err = handle.Downloads().UpdateProgress(ctx, hash, session.ProgressUpdate{
		Status:          types.DownloadDownloading,
		TotalBytes:      1000,
		DownloadedBytes: 300,
		VODPlayable:     true,
		VODFile:         "movie.mp4",
	})
	require.NoError(t, err)

	got, err = reg.Call(t, MethodGetProgressInfo, hash)
	require.NoError(t, err)
	p := got.(types.Progress)
	assert.True(t, p.VOD)
	assert.True(t, p.VODPlayable)
	assert.Equal(t, int64(0), p.VODETA)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(handle.DownloadDir(), "movie", "movie.mp4")), p.VODURI)

	t.Run("repeated call keeps playability", func(t *testing.T) {
		got, err := reg.Call(t, MethodStartVOD, hash)
		require.NoError(t, err)
		assert.True(t, got.(types.Download).VODPlayable)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := reg.Call(t, MethodStartVOD, tu.InfoHash("ee"))
		assert.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestRemoveDataRefusesOutsideDownloadDir(t *testing.T) {
	m, _, _, _ := newManager(t)

	assert.Error(t, m.removeData(t.TempDir()))
	assert.Error(t, m.removeData(m.handle.DownloadDir()))
}

func TestFreeSpace(t *testing.T) {
	_, reg, _, _ := newManager(t)

	got, err := reg.Call(t, MethodGetFreeSpace)
	require.NoError(t, err)
	assert.Greater(t, got.(uint64), uint64(0))
}
