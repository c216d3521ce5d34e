package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the owner profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the profile for the owner",
		Long: `Create the profile record for the owner. Each owner has exactly one
profile; a second init fails.

Example:
  larder profile init`,
		Args: cobra.NoArgs,
		RunE: a.runProfileInit,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [owner]",
		Short: "Show a profile",
		Long: `Show the profile of owner (hex), of --owner, or of the local identity.

Example:
  larder profile show
  larder profile show 6b1c...e2 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runProfileShow,
	})
	return cmd
}

func (a *app) runProfileInit(cmd *cobra.Command, args []string) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close(a)

	caller, err := s.caller(a, types.OpInitializeProfile)
	if err != nil {
		return classify(err)
	}
	r, err := s.larder.InitializeProfile(cmd.Context(), caller)
	if err != nil {
		return classify(err)
	}
	return a.printReceipt(cmd.OutOrStdout(), r)
}

func (a *app) runProfileShow(cmd *cobra.Command, args []string) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close(a)

	var owner types.Identity
	if len(args) == 1 {
		owner, err = types.ParseIdentity(args[0])
	} else {
		owner, err = s.subject(a)
	}
	if err != nil {
		return err
	}
	p, err := s.larder.Profile(cmd.Context(), owner)
	if err != nil {
		return classify(err)
	}
	return a.printProfile(cmd.OutOrStdout(), p)
}
