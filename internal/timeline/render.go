package timeline

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes items as a table, one row per event.
func Render(w io.Writer, items []Item) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"When", "Event", "Actor", "Description"})
	for _, it := range items {
		actor := ""
		if it.Actor != nil {
			actor = it.Actor.Name
		}
		tw.AppendRow(table.Row{it.Timestamp.Format("2006-01-02 15:04"), it.Badge() + " " + it.Action, actor, it.Description})
	}
	tw.Render()
}
