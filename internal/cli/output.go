package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func (a *app) printReceipt(w io.Writer, r *types.Receipt) error {
	if a.flags.jsonMode {
		return printJSON(w, r)
	}
	switch r.Operation {
	case types.OpInitializeProfile:
		fmt.Fprintf(w, "Profile initialized for %s\n", r.Owner)
	case types.OpAddItem:
		fmt.Fprintf(w, "Added item %d\n", r.Index)
	case types.OpMarkItem:
		fmt.Fprintf(w, "Marked item %d done\n", r.Index)
	case types.OpDeleteItem:
		fmt.Fprintf(w, "Deleted item %d\n", r.Index)
	}
	fmt.Fprintf(w, "address: %s (nonce %d)\n", r.Address, r.Nonce)
	fmt.Fprintf(w, "next_index: %d  live_count: %d\n", r.Profile.NextIndex, r.Profile.LiveCount)
	return nil
}

func (a *app) printProfile(w io.Writer, p *types.Profile) error {
	if a.flags.jsonMode {
		return printJSON(w, p)
	}
	fmt.Fprintf(w, "owner: %s\nnext_index: %d\nlive_count: %d\n", p.Owner, p.NextIndex, p.LiveCount)
	return nil
}

// itemView is the JSON shape of an item, with the payload as text.
type itemView struct {
	Owner   types.Identity `json:"owner"`
	Index   uint64         `json:"index"`
	Payload string         `json:"payload"`
	Done    bool           `json:"done"`
}

func viewOf(it *types.Item) itemView {
	return itemView{Owner: it.Owner, Index: it.Index, Payload: string(it.Payload), Done: it.Done}
}

func (a *app) printItem(w io.Writer, it *types.Item) error {
	if a.flags.jsonMode {
		return printJSON(w, viewOf(it))
	}
	fmt.Fprintf(w, "index: %d\ndone: %t\npayload: %s\n", it.Index, it.Done, it.Payload)
	return nil
}

func (a *app) printItems(w io.Writer, items []*types.Item) error {
	if a.flags.jsonMode {
		views := make([]itemView, len(items))
		for i, it := range items {
			views[i] = viewOf(it)
		}
		return printJSON(w, views)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return nil
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tDONE\tPAYLOAD")
	fmt.Fprintln(tw, "-----\t----\t-------")
	for _, it := range items {
		payload := truncate(string(it.Payload), 60)
		done := " "
		if it.Done {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", it.Index, done, payload)
	}
	tw.Flush()

	// Trim trailing whitespace from each line.
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "Total: %d item(s)\n", len(items))
	return nil
}

// truncate shortens s to at most limit runes, ending in "..." when cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
