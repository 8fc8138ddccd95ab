package environment

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/infrastructure/config"
	"github.com/tribler/tsap/service/internal/infrastructure/logging"
)

// ErrEnvironment marks every failure to prepare the process environment.
var ErrEnvironment = errors.New("environment initialization failed")

// Variables exported to the process environment once paths are resolved.
const (
	VarServiceArgument = "TSAP_SERVICE_ARGUMENT"
	VarPackageCache    = "TSAP_PACKAGE_CACHE"
	VarPrivateDir      = "TSAP_PRIVATE_DIR"
	VarHostPlatform    = "TSAP_HOST_PLATFORM"
	VarStateDir        = "TSAP_STATE_DIR"
	VarDownloadDir     = "TSAP_DOWNLOAD_DIR"
)

// Variables read by the launchers of the original Android service. They are
// used when the matching TSAP_* variable is unset.
const (
	LegacyVarServiceArgument = "PYTHON_SERVICE_ARGUMENT"
	LegacyVarPackageCache    = "PYTHON_EGG_CACHE"
	LegacyVarPrivateDir      = "ANDROID_PRIVATE"
	LegacyVarHostPlatform    = "ANDROID_HOST"
)

const (
	defaultBaseDir     = ".tsap"
	stateDirName       = ".Tribler"
	downloadDirName    = "Downloads"
	packageCacheDir    = "cache"
	androidPlatformTag = "ANDROID"
)

// Environment is the resolved process environment. It is built once by Init
// and never modified afterwards.
type Environment struct {
	serviceArgument string
	hostPlatform    string
	privateDir      string
	packageCache    string
	stateDir        string
	downloadDir     string
	workDir         string
	entries         map[string]string
}

// LoadDotEnv applies a .env file to the process environment. A missing file
// is not an error so that .env files stay optional; variables already set
// take precedence.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: load %s: %v", ErrEnvironment, path, err)
	}
	return nil
}

// Init resolves directories, creates them, exports the resolved values and
// logs the diagnostic variables. It must run before the session starts.
func Init(cfg config.EnvironmentConfig, logger *logging.Logger) (*Environment, error) {
	cfg = withLegacyNames(cfg)

	base, err := baseDir(cfg.PrivateDir)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		serviceArgument: cfg.ServiceArgument,
		hostPlatform:    cfg.HostPlatform,
		privateDir:      cfg.PrivateDir,
	}

	if env.stateDir, err = resolve(cfg.StateDir, base, stateDirName); err != nil {
		return nil, err
	}
	if env.downloadDir, err = resolve(cfg.DownloadDir, base, downloadDirName); err != nil {
		return nil, err
	}
	if env.packageCache, err = resolve(cfg.PackageCache, base, packageCacheDir); err != nil {
		return nil, err
	}

	for _, dir := range []string{env.stateDir, env.downloadDir, env.packageCache} {
		if err := ensureWritableDir(dir); err != nil {
			return nil, err
		}
	}

	exports := map[string]string{
		VarPackageCache: env.packageCache,
		VarStateDir:     env.stateDir,
		VarDownloadDir:  env.downloadDir,
	}
	for key, value := range exports {
		if err := os.Setenv(key, value); err != nil {
			return nil, fmt.Errorf("%w: export %s: %v", ErrEnvironment, key, err)
		}
	}

	// a missing working directory is only diagnostic
	env.workDir, _ = os.Getwd()

	env.entries = map[string]string{
		VarServiceArgument: env.serviceArgument,
		VarHostPlatform:    env.hostPlatform,
		VarPrivateDir:      env.privateDir,
		VarPackageCache:    env.packageCache,
		VarStateDir:        env.stateDir,
		VarDownloadDir:     env.downloadDir,
	}

	logger.Info("Process environment initialized",
		zap.String("service_argument", env.serviceArgument),
		zap.String("package_cache", env.packageCache),
		zap.String("private_dir", env.privateDir),
		zap.String("host_platform", env.hostPlatform),
		zap.Bool("android", env.IsAndroid()),
		zap.String("state_dir", env.stateDir),
		zap.String("download_dir", env.downloadDir),
		zap.String("cwd", env.workDir),
	)

	return env, nil
}

// ServiceArgument returns the argument the service was launched with.
func (e *Environment) ServiceArgument() string { return e.serviceArgument }

// HostPlatform returns the platform marker, empty when unset.
func (e *Environment) HostPlatform() string { return e.hostPlatform }

// PackageCache returns the package cache directory.
func (e *Environment) PackageCache() string { return e.packageCache }

// StateDir returns the directory holding session state.
func (e *Environment) StateDir() string { return e.stateDir }

// DownloadDir returns the directory downloads are written to.
func (e *Environment) DownloadDir() string { return e.downloadDir }

// WorkDir returns the working directory at initialization time.
func (e *Environment) WorkDir() string { return e.workDir }

// IsAndroid reports whether the platform marker names an Android host.
func (e *Environment) IsAndroid() bool {
	return strings.HasPrefix(strings.ToUpper(e.hostPlatform), androidPlatformTag)
}

// Entries returns a copy of all entries.
func (e *Environment) Entries() map[string]string {
	return maps.Clone(e.entries)
}

// withLegacyNames fills unset fields from the variables the original
// launchers export.
func withLegacyNames(cfg config.EnvironmentConfig) config.EnvironmentConfig {
	fallbacks := []struct {
		field *string
		key   string
	}{
		{&cfg.ServiceArgument, LegacyVarServiceArgument},
		{&cfg.PackageCache, LegacyVarPackageCache},
		{&cfg.PrivateDir, LegacyVarPrivateDir},
		{&cfg.HostPlatform, LegacyVarHostPlatform},
	}
	for _, f := range fallbacks {
		if *f.field == "" {
			*f.field = os.Getenv(f.key)
		}
	}
	return cfg
}

func baseDir(privateDir string) (string, error) {
	if privateDir != "" {
		return privateDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return "", fmt.Errorf("%w: no home or working directory: %v", ErrEnvironment, err)
		}
		home = wd
	}
	return filepath.Join(home, defaultBaseDir), nil
}

func resolve(configured, base, name string) (string, error) {
	path := configured
	if path == "" {
		path = filepath.Join(base, name)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", ErrEnvironment, path, err)
	}
	return abs, nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrEnvironment, dir, err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrEnvironment, dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
