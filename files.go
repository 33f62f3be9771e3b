package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/filebrowser-go/internal/fbapi"
	"github.com/tonimelisma/filebrowser-go/internal/selection"
)

func newLsCmd() *cobra.Command {
	var (
		selected []int
		multiple bool
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory and mark selected items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 0 {
				path = args[0]
			}

			return runLs(cmd, path, selected, multiple)
		},
	}

	cmd.Flags().IntSliceVar(&selected, "select", nil, "item indexes to select, e.g. 0,2")
	cmd.Flags().BoolVar(&multiple, "multiple", false, "enable multi-selection mode")

	return cmd
}

func runLs(cmd *cobra.Command, path string, selected []int, multiple bool) error {
	cc := cliContextFrom(cmd.Context())
	ctx := cmd.Context()
	logger := cc.Logger

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	res, err := sess.Client.Resource(ctx, path)
	if err != nil {
		return err
	}

	// A one-shot listing is always shown in the files context.
	store := selection.New(func() bool { return true })
	store.SetCurrent(toSelectionResource(res))

	if multiple {
		store.ToggleMultiple()
	}

	if err := applySelection(store, selected); err != nil {
		return err
	}

	if renewed, err := sess.Manager.HandleRenewHint(ctx); err != nil {
		logger.Warn("renewal requested by server failed", "error", err)
	} else if renewed {
		logger.Debug("token renewed at server request")
	}

	if cc.Flags.JSON {
		return printListingJSON(cmd.OutOrStdout(), store)
	}

	printListingTable(cmd.OutOrStdout(), store, time.Now())
	cc.Statusf("%d items, %d selected\n", len(res.Items), store.SelectedCount())

	return nil
}

// toSelectionResource converts an API resource into the reference the
// selection store tracks.
func toSelectionResource(r *fbapi.Resource) *selection.Resource {
	ref := &selection.Resource{
		Path:     r.Path,
		IsDir:    r.IsDir,
		Name:     r.Name,
		Size:     r.Size,
		Modified: r.Modified,
	}

	for i := range r.Items {
		item := &r.Items[i]
		ref.Items = append(ref.Items, selection.Resource{
			Path:     item.Path,
			IsDir:    item.IsDir,
			Name:     item.Name,
			Size:     item.Size,
			Modified: item.Modified,
		})
	}

	return ref
}

// applySelection selects the given item indexes. Selecting requires a
// directory listing and in-range indexes.
func applySelection(store *selection.Store, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	if !store.IsListing() {
		return errors.New("--select needs a directory listing")
	}

	items := store.Snapshot().Current.Items

	for _, id := range ids {
		if id < 0 || id >= len(items) {
			return fmt.Errorf("--select: index %d out of range (listing has %d items)", id, len(items))
		}

		store.Select(id)
	}

	return nil
}

// lsItem is one row of `ls --json`.
type lsItem struct {
	Index    int       `json:"index"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Selected bool      `json:"selected"`
}

// lsOutput is the JSON schema for `ls --json`.
type lsOutput struct {
	Path          string   `json:"path"`
	IsDir         bool     `json:"is_dir"`
	IsListing     bool     `json:"is_listing"`
	Multiple      bool     `json:"multiple"`
	SelectedCount int      `json:"selected_count"`
	Selected      []int    `json:"selected"`
	Items         []lsItem `json:"items"`
}

func printListingJSON(w io.Writer, store *selection.Store) error {
	st := store.Snapshot()

	out := lsOutput{
		Path:          st.Current.Path,
		IsDir:         st.Current.IsDir,
		IsListing:     store.IsListing(),
		Multiple:      st.Multiple,
		SelectedCount: store.SelectedCount(),
		Selected:      st.Selected,
		Items:         make([]lsItem, 0, len(st.Current.Items)),
	}

	for i, item := range st.Current.Items {
		out.Items = append(out.Items, lsItem{
			Index:    i,
			Name:     item.Name,
			Path:     item.Path,
			IsDir:    item.IsDir,
			Size:     item.Size,
			Modified: item.Modified,
			Selected: slices.Contains(st.Selected, i),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

var listingColumns = []column{
	{title: "SEL"},
	{title: "#", right: true},
	{title: "NAME"},
	{title: "SIZE", right: true},
	{title: "MODIFIED"},
}

func printListingTable(w io.Writer, store *selection.Store, now time.Time) {
	st := store.Snapshot()

	if !store.IsListing() {
		cur := st.Current
		writeTable(w, []column{{title: "NAME"}, {title: "SIZE", right: true}, {title: "MODIFIED"}}, [][]string{
			{cur.Name, formatSize(cur.Size), formatTime(cur.Modified, now)},
		})

		return
	}

	mark := " "
	if st.Multiple {
		mark = "[ ]"
	}

	rows := make([][]string, 0, len(st.Current.Items))

	for i, item := range st.Current.Items {
		sel := mark
		if slices.Contains(st.Selected, i) {
			sel = "*"
			if st.Multiple {
				sel = "[x]"
			}
		}

		name := item.Name
		size := formatSize(item.Size)

		if item.IsDir {
			name += "/"
			size = "-"
		}

		rows = append(rows, []string{sel, strconv.Itoa(i), name, size, formatTime(item.Modified, now)})
	}

	writeTable(w, listingColumns, rows)
}
