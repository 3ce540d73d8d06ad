package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/server/runner"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func joinKinds(kinds []component.Kind) string {
	if len(kinds) == 0 {
		return "-"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.ShortString()
	}
	return strings.Join(names, ", ")
}

// renderPlan lists the plan in activation order.
func renderPlan(plan *component.Plan) string {
	t := newTable()
	t.SetTitle("activation plan for %s", plan.Root.ShortString())
	t.AppendHeader(table.Row{"#", "KIND", "DEPENDS ON", "ANCESTORS"})
	for i, kind := range plan.Order {
		t.AppendRow(table.Row{
			i + 1,
			kind.ShortString(),
			joinKinds(plan.Dependencies.Dependencies(kind)),
			joinKinds(plan.Index.AncestorsOf(kind)),
		})
	}
	return t.Render()
}

func colorState(state string) string {
	switch state {
	case component.Built.String(), component.Completed.String():
		return text.FgGreen.Sprint(state)
	case component.Pruned.String():
		return text.FgYellow.Sprint(state)
	case component.Aborted.String():
		return text.FgRed.Sprint(state)
	default:
		return state
	}
}

// renderRun lists each component's final state under the run outcome. The
// run ID goes in the caption, which is never wrapped to the table width.
func renderRun(summary runner.RunSummary, executions []runner.ComponentExecution) string {
	t := newTable()
	t.SetTitle(colorState(summary.Outcome))
	t.SetCaption("run %s", summary.ID)
	t.AppendHeader(table.Row{"KIND", "STATE", "STATUS", "LOG LINES"})
	for _, e := range executions {
		t.AppendRow(table.Row{e.Kind, colorState(e.State), e.Status, len(e.Logs)})
	}
	t.AppendFooter(table.Row{"", "", "duration", summary.Duration().String()})
	out := t.Render()
	if summary.Error != "" {
		out += fmt.Sprintf("\n%s %s", text.FgRed.Sprint("error:"), summary.Error)
	}
	return out
}
