// Package larder opens a per-owner record store: a storage backend, the
// address deriver and the ledger service wired from one Config.
package larder

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/larder/internal/address"
	"github.com/mesh-intelligence/larder/internal/ledger"
	"github.com/mesh-intelligence/larder/internal/store/memory"
	"github.com/mesh-intelligence/larder/pkg/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Larder is an attached store with its ledger. Call Close when done.
type Larder struct {
	*ledger.Service
	backend types.Backend
}

// Open validates cfg, attaches the configured backend and returns a Larder
// ready for operations. A nil logger leaves the ledger on slog.Default().
func Open(cfg types.Config, logger *slog.Logger) (*Larder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := address.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var backend types.Backend
	switch cfg.Backend {
	case types.BackendSQLite:
		backend = sqlite.NewBackend()
	case types.BackendMemory:
		backend = memory.NewStore()
	default:
		return nil, types.ErrBackendUnknown
	}
	if cfg.Backend != types.BackendMemory {
		if err := backend.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
		}
	}

	opts := []ledger.Option{ledger.WithMaxPayload(cfg.GetMaxPayload())}
	if logger != nil {
		opts = append(opts, ledger.WithLogger(logger))
	}
	return &Larder{
		Service: ledger.New(backend, d, opts...),
		backend: backend,
	}, nil
}

// Close detaches the backend, flushing pending writes.
func (l *Larder) Close() error {
	return l.backend.Detach()
}
