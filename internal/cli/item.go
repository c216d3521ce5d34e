package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items",
		Long: `Items are appended at the owner's next index, marked done at most once,
and deleted. A deleted index is never reused.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <payload>",
		Short: "Append an item",
		Long: `Append an item with the given payload at the owner's next index.

Example:
  larder item add "buy milk"`,
		Args: cobra.ExactArgs(1),
		RunE: a.runItemAdd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "mark <index>",
		Short: "Mark an item done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runItemChange(cmd, types.OpMarkItem, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <index>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runItemChange(cmd, types.OpDeleteItem, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <index>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runItemShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List live items in index order",
		Args:  cobra.NoArgs,
		RunE:  a.runItemList,
	})
	return cmd
}

func (a *app) runItemAdd(cmd *cobra.Command, args []string) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close(a)

	caller, err := s.caller(a, types.OpAddItem, args...)
	if err != nil {
		return classify(err)
	}
	r, err := s.larder.AddItem(cmd.Context(), caller, []byte(args[0]))
	if err != nil {
		return classify(err)
	}
	return a.printReceipt(cmd.OutOrStdout(), r)
}

// runItemChange runs mark or delete on one index.
func (a *app) runItemChange(cmd *cobra.Command, op, arg string) error {
	index, err := parseIndex(arg)
	if err != nil {
		return classify(err)
	}

	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close(a)

	caller, err := s.caller(a, op, strconv.FormatUint(index, 10))
	if err != nil {
		return classify(err)
	}
	var r *types.Receipt
	switch op {
	case types.OpMarkItem:
		r, err = s.larder.MarkItem(cmd.Context(), caller, index)
	case types.OpDeleteItem:
		r, err = s.larder.DeleteItem(cmd.Context(), caller, index)
	}
	if err != nil {
		return classify(err)
	}
	return a.printReceipt(cmd.OutOrStdout(), r)
}

func (a *app) runItemShow(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return classify(err)
	}

	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close(a)

	owner, err := s.subject(a)
	if err != nil {
		return err
	}
	it, err := s.larder.Item(cmd.Context(), owner, index)
	if err != nil {
		return classify(err)
	}
	return a.printItem(cmd.OutOrStdout(), it)
}

func (a *app) runItemList(cmd *cobra.Command, args []string) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close(a)

	owner, err := s.subject(a)
	if err != nil {
		return err
	}
	items, err := s.larder.Items(cmd.Context(), owner)
	if err != nil {
		return classify(err)
	}
	return a.printItems(cmd.OutOrStdout(), items)
}
