package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/address"
	"github.com/mesh-intelligence/larder/internal/identity"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newAddressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Show derived record addresses",
		Long: `Address derives the address of a profile or item record without touching
the store. The owner is --owner or the local identity.

Example:
  larder address profile
  larder address item 3 --owner <hex>`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "profile",
		Short: "Derive the profile address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAddress(cmd, address.TagProfile, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "item <index>",
		Short: "Derive an item address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return a.runAddress(cmd, address.TagItem, []uint64{index})
		},
	})
	return cmd
}

func (a *app) runAddress(cmd *cobra.Command, tag address.Tag, index []uint64) error {
	s, err := a.loadSettings()
	if err != nil {
		return sysError(err)
	}
	d, err := address.FromConfig(s.config)
	if err != nil {
		return sysError(err)
	}

	var owner types.Identity
	if a.flags.owner != "" {
		if owner, err = types.ParseIdentity(a.flags.owner); err != nil {
			return fmt.Errorf("--owner: %w", err)
		}
	} else {
		signer, err := identity.Load(s.keyFile)
		if err != nil {
			return fmt.Errorf("no --owner and no usable identity: %w", err)
		}
		owner = signer.Identity()
	}

	addr, nonce, err := d.Derive(tag, owner, index...)
	if err != nil {
		return classify(err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(out, struct {
			Tag     address.Tag    `json:"tag"`
			Owner   types.Identity `json:"owner"`
			Index   []uint64       `json:"index,omitempty"`
			Address types.Address  `json:"address"`
			Nonce   types.Nonce    `json:"nonce"`
		}{tag, owner, index, addr, nonce})
	}
	fmt.Fprintf(out, "%s (nonce %d)\n", addr, nonce)
	return nil
}

// parseIndex parses a decimal item index.
func parseIndex(s string) (uint64, error) {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", s, types.ErrInvalidIndex)
	}
	return index, nil
}
