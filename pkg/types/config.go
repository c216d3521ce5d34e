package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach and the
// ledger built on top of it.
type Config struct {
	Backend      string        `json:"backend" yaml:"backend"`
	DataDir      string        `json:"data_dir" yaml:"data_dir"`
	Namespace    string        `json:"namespace" yaml:"namespace"`
	IndexWidth   int           `json:"index_width" yaml:"index_width"`
	MaxPayload   int           `json:"max_payload" yaml:"max_payload"`
	SQLiteConfig *SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Defaults applied when a Config field is zero.
const (
	DefaultNamespace  = "larder"
	DefaultIndexWidth = 1
	DefaultMaxPayload = 1024

	// MaxPayloadLimit is the largest MaxPayload Validate accepts. Stored
	// records must fit one records.jsonl line when reloaded.
	MaxPayloadLimit = 1 << 20
)

// Sync strategies for the SQLite backend's JSONL persistence.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Default batch parameters used when SyncBatch is selected without values.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrIndexWidthInvalid    = errors.New("index width must be 1, 2, 4 or 8 bytes")
	ErrMaxPayloadInvalid    = errors.New("max payload must be between 0 and 1 MiB")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

// SQLiteConfig holds SQLite-specific settings. A nil *SQLiteConfig is valid
// and yields the defaults.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy" mapstructure:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval" mapstructure:"batch_interval"` // seconds
}

// GetSyncStrategy returns the configured strategy or SyncImmediate.
func (c *SQLiteConfig) GetSyncStrategy() string {
	if c == nil || c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the configured batch size or DefaultBatchSize.
func (c *SQLiteConfig) GetBatchSize() int {
	if c == nil || c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the configured batch interval in seconds or
// DefaultBatchInterval.
func (c *SQLiteConfig) GetBatchInterval() int {
	if c == nil || c.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// Validate checks the SQLite settings.
func (c *SQLiteConfig) Validate() error {
	if c == nil {
		return nil
	}
	switch c.GetSyncStrategy() {
	case SyncImmediate, SyncOnClose, SyncBatch:
	default:
		return ErrSyncStrategyUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// GetNamespace returns the namespace or DefaultNamespace.
func (c Config) GetNamespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}

// GetIndexWidth returns the index width in bytes or DefaultIndexWidth.
func (c Config) GetIndexWidth() int {
	if c.IndexWidth == 0 {
		return DefaultIndexWidth
	}
	return c.IndexWidth
}

// GetMaxPayload returns the payload limit in bytes or DefaultMaxPayload.
func (c Config) GetMaxPayload() int {
	if c.MaxPayload == 0 {
		return DefaultMaxPayload
	}
	return c.MaxPayload
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.GetIndexWidth() {
	case 1, 2, 4, 8:
	default:
		return ErrIndexWidthInvalid
	}
	if c.MaxPayload < 0 || c.MaxPayload > MaxPayloadLimit {
		return ErrMaxPayloadInvalid
	}
	return c.SQLiteConfig.Validate()
}
