package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "LARDER"

	// Config keys.
	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyNamespace     = "namespace"
	cfgKeyIndexWidth    = "index_width"
	cfgKeyMaxPayload    = "max_payload"
	cfgKeyKeyFile       = "key_file"
	cfgKeyLogLevel      = "log_level"
	cfgKeySyncStrategy  = "sqlite.sync_strategy"
	cfgKeyBatchSize     = "sqlite.batch_size"
	cfgKeyBatchInterval = "sqlite.batch_interval"
)

// configFile is the structure written to config.yaml on first run.
type configFile struct {
	Backend    string             `yaml:"backend"`
	DataDir    string             `yaml:"data_dir,omitempty"`
	Namespace  string             `yaml:"namespace"`
	IndexWidth int                `yaml:"index_width"`
	MaxPayload int                `yaml:"max_payload"`
	KeyFile    string             `yaml:"key_file"`
	LogLevel   string             `yaml:"log_level"`
	SQLite     types.SQLiteConfig `yaml:"sqlite"`
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend:    types.BackendSQLite,
		DataDir:    dataDir,
		Namespace:  types.DefaultNamespace,
		IndexWidth: types.DefaultIndexWidth,
		MaxPayload: types.DefaultMaxPayload,
		KeyFile:    paths.KeyFileName,
		LogLevel:   "info",
		SQLite:     types.SQLiteConfig{SyncStrategy: types.SyncImmediate},
	}
}

// settings is the resolved configuration for one command.
type settings struct {
	configDir string
	dataDir   string
	keyFile   string
	logLevel  slog.Level
	config    types.Config
}

// loadSettings resolves directories, reads config.yaml with viper (a missing
// file is not an error) and applies LARDER_* environment overrides.
func (a *app) loadSettings() (*settings, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyNamespace, types.DefaultNamespace)
	v.SetDefault(cfgKeyIndexWidth, types.DefaultIndexWidth)
	v.SetDefault(cfgKeyMaxPayload, types.DefaultMaxPayload)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	s := &settings{
		configDir: configDir,
		dataDir:   dataDir,
		keyFile:   paths.ResolveKeyFile(configDir, v.GetString(cfgKeyKeyFile)),
		logLevel:  level,
		config: types.Config{
			Backend:    v.GetString(cfgKeyBackend),
			DataDir:    dataDir,
			Namespace:  v.GetString(cfgKeyNamespace),
			IndexWidth: v.GetInt(cfgKeyIndexWidth),
			MaxPayload: v.GetInt(cfgKeyMaxPayload),
			SQLiteConfig: &types.SQLiteConfig{
				SyncStrategy:  v.GetString(cfgKeySyncStrategy),
				BatchSize:     v.GetInt(cfgKeyBatchSize),
				BatchInterval: v.GetInt(cfgKeyBatchInterval),
			},
		},
	}
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a.setupLogger(level)
	return s, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := filepath.Join(configDir, paths.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# larder configuration. LARDER_* environment variables override these keys.\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}
