package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/identity"
)

func newKeygenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an identity key",
		Long: `Generate a new Ed25519 identity key and write it to the key file
(key_file in config.yaml, default <config-dir>/identity.key).
An existing key is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSettings()
			if err != nil {
				return sysError(err)
			}
			signer, err := identity.Generate(s.keyFile)
			if errors.Is(err, identity.ErrKeyExists) {
				return err
			}
			if err != nil {
				return sysError(err)
			}
			return a.printIdentity(cmd, signer, s.keyFile)
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the local identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSettings()
			if err != nil {
				return sysError(err)
			}
			signer, err := identity.Load(s.keyFile)
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no identity at %s: run 'larder keygen'", s.keyFile)
			}
			if err != nil {
				return sysError(err)
			}
			return a.printIdentity(cmd, signer, s.keyFile)
		},
	}
}

func (a *app) printIdentity(cmd *cobra.Command, signer *identity.Signer, keyFile string) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(out, map[string]string{
			"identity": signer.Identity().String(),
			"key_file": keyFile,
		})
	}
	fmt.Fprintln(out, signer.Identity())
	return nil
}
