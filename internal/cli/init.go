package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/identity"
	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/larder"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize larder storage and identity",
		Long: `Create the configuration directory with a default config.yaml, generate an
identity key if none exists, and initialize the storage backend.

Running init again is safe: existing files are kept.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	var dataDir string
	if a.flags.dataDir != "" {
		if dataDir, err = filepath.Abs(a.flags.dataDir); err != nil {
			return sysError(err)
		}
	}
	wrote, err := writeConfigIfMissing(configDir, dataDir)
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	s, err := a.loadSettings()
	if err != nil {
		return sysError(err)
	}
	a.logger.Debug("settings loaded", "config_dir", s.configDir, "data_dir", s.dataDir, "config_written", wrote)

	signer, created, err := identity.LoadOrGenerate(s.keyFile)
	if err != nil {
		return sysError(fmt.Errorf("identity: %w", err))
	}
	if created {
		a.logger.Info("generated identity", "key_file", s.keyFile)
	}

	// Attach then Detach creates the data directory and records file.
	l, err := larder.Open(s.config, a.logger)
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := l.Close(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(out, map[string]string{
			"config_dir": s.configDir,
			"data_dir":   s.dataDir,
			"identity":   signer.Identity().String(),
		})
	}
	fmt.Fprintln(out, "Larder initialized successfully")
	fmt.Fprintf(out, "identity: %s\n", signer.Identity())
	return nil
}
