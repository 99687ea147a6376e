package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/playercore/internal/app"
	"github.com/dshills/playercore/internal/persist"
)

var stateShow bool

var stateCmd = &cobra.Command{
	Use:   "state [plugin-id...]",
	Short: "Show persisted plugin state",
	RunE:  runState,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all persisted plugin state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := app.New(app.Options{Config: cfg, Logger: logger})
		if err := a.WipePersistedPluginData(); err != nil {
			return err
		}
		fmt.Printf("Removed persisted state from %s\n", cfg.StateDir())
		return nil
	},
}

func init() {
	stateCmd.Flags().BoolVarP(&stateShow, "show", "s", false, "print blob contents")
	rootCmd.AddCommand(stateCmd, wipeCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	store := persist.NewStore(cfg.StateDir())
	blobs, err := store.List()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		blobs = filterBlobs(blobs, args)
	}
	if len(blobs) == 0 {
		fmt.Println("No persisted state")
		return nil
	}

	if stateShow {
		for _, b := range blobs {
			data, err := readBlob(store, b.ID)
			if err != nil {
				return err
			}
			fmt.Printf("== %s\n%s\n", b.ID, formatBlob(data))
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Plugin", "Size", "Updated"})
	for _, b := range blobs {
		t.AppendRow(table.Row{
			b.ID,
			humanize.Bytes(uint64(b.Size)),
			humanize.Time(b.ModTime),
		})
	}
	t.Render()
	return nil
}

func filterBlobs(blobs []persist.Blob, ids []string) []persist.Blob {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []persist.Blob
	for _, b := range blobs {
		if want[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

func readBlob(store *persist.Store, id string) ([]byte, error) {
	rc, err := store.Open(id)
	if err != nil || rc == nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// formatBlob pretty-prints JSON blobs and returns others unchanged.
func formatBlob(data []byte) string {
	if gjson.ValidBytes(data) {
		return string(pretty.Pretty(data))
	}
	return string(data)
}
