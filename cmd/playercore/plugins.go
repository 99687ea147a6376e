package main

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dshills/playercore/internal/app"
	"github.com/dshills/playercore/internal/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List loaded plugins",
	RunE:  runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) error {
	a, err := newApp(app.Options{})
	if err != nil {
		return err
	}
	defer a.Shutdown()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Unit", "Class", "Capabilities", "State"})

	for _, e := range a.Plugins() {
		caps := lo.Without(plugin.Capabilities(e.Plugin), plugin.CapabilityPlugin)
		t.AppendRow(table.Row{
			e.Descriptor.ID,
			e.Unit,
			e.Descriptor.Class,
			strings.Join(caps, ", "),
			e.State,
		})
	}
	t.Render()
	return nil
}
