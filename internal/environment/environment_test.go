package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tribler/tsap/service/internal/infrastructure/config"
	"github.com/tribler/tsap/service/internal/infrastructure/logging"
)

// isolateExports restores the exported variables after the test.
func isolateExports(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		VarPackageCache, VarStateDir, VarDownloadDir,
		LegacyVarServiceArgument, LegacyVarPackageCache, LegacyVarPrivateDir, LegacyVarHostPlatform,
	} {
		t.Setenv(key, "")
	}
}

func TestInitResolvesUnderPrivateDir(t *testing.T) {
	isolateExports(t)
	private := t.TempDir()

	env, err := Init(config.EnvironmentConfig{
		PrivateDir:      private,
		ServiceArgument: "start",
		HostPlatform:    "ANDROID_HOST",
	}, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(private, ".Tribler"), env.StateDir())
	assert.Equal(t, filepath.Join(private, "Downloads"), env.DownloadDir())
	assert.Equal(t, filepath.Join(private, "cache"), env.PackageCache())
	assert.Equal(t, "start", env.ServiceArgument())
	assert.True(t, env.IsAndroid())

	for _, dir := range []string{env.StateDir(), env.DownloadDir(), env.PackageCache()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// resolved paths are exported for collaborators that read the environment
	assert.Equal(t, env.PackageCache(), os.Getenv(VarPackageCache))
	assert.Equal(t, env.StateDir(), os.Getenv(VarStateDir))
	assert.Equal(t, env.DownloadDir(), os.Getenv(VarDownloadDir))
}

func TestInitHonoursExplicitPaths(t *testing.T) {
	isolateExports(t)
	root := t.TempDir()

	env, err := Init(config.EnvironmentConfig{
		PrivateDir:  filepath.Join(root, "private"),
		StateDir:    filepath.Join(root, "state"),
		DownloadDir: filepath.Join(root, "media"),
	}, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "state"), env.StateDir())
	assert.Equal(t, filepath.Join(root, "media"), env.DownloadDir())
	assert.Equal(t, filepath.Join(root, "private", "cache"), env.PackageCache())
	assert.False(t, env.IsAndroid())
}

func TestInitFailsOnUnusableDirectory(t *testing.T) {
	isolateExports(t)
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := Init(config.EnvironmentConfig{PrivateDir: blocker}, logging.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnvironment)
}

func TestInitLogsMissingDiagnosticsWithoutFailing(t *testing.T) {
	isolateExports(t)
	core, logs := observer.New(zapcore.InfoLevel)

	_, err := Init(config.EnvironmentConfig{PrivateDir: t.TempDir()}, logging.Wrap(zap.New(core)))
	require.NoError(t, err)

	entries := logs.FilterMessage("Process environment initialized").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "", fields["service_argument"])
	assert.Equal(t, "", fields["host_platform"])
	assert.Equal(t, false, fields["android"])
	assert.NotEmpty(t, fields["package_cache"])
}

func TestEntriesIsACopy(t *testing.T) {
	isolateExports(t)
	env, err := Init(config.EnvironmentConfig{PrivateDir: t.TempDir()}, logging.NewNop())
	require.NoError(t, err)

	entries := env.Entries()
	entries[VarStateDir] = "/elsewhere"

	assert.Equal(t, env.StateDir(), env.Entries()[VarStateDir])
}

func TestInitFallsBackToLegacyVariables(t *testing.T) {
	isolateExports(t)
	private := t.TempDir()
	t.Setenv(LegacyVarPrivateDir, private)
	t.Setenv(LegacyVarServiceArgument, "legacy-arg")
	t.Setenv(LegacyVarHostPlatform, "ANDROID")
	t.Setenv(LegacyVarPackageCache, filepath.Join(private, "eggs"))

	env, err := Init(config.EnvironmentConfig{ServiceArgument: "explicit"}, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "explicit", env.ServiceArgument())
	assert.Equal(t, filepath.Join(private, ".Tribler"), env.StateDir())
	assert.Equal(t, filepath.Join(private, "eggs"), env.PackageCache())
	assert.True(t, env.IsAndroid())
	assert.Equal(t, private, env.Entries()[VarPrivateDir])
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("empty path is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(""))
	})

	t.Run("applies unset variables", func(t *testing.T) {
		t.Setenv(VarHostPlatform, "")
		os.Unsetenv(VarHostPlatform)

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(VarHostPlatform+"=ANDROID_TEST\n"), 0o600))

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "ANDROID_TEST", os.Getenv(VarHostPlatform))
	})
}
