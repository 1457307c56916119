package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/tracker"
)

type chartModel struct {
	engine *tracker.Engine
	width  int
	height int

	chart barchart.Model
}

func newChartModel(e *tracker.Engine) chartModel {
	return chartModel{
		engine: e,
		chart:  barchart.New(60, 12),
	}
}

func (c *chartModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

// build redraws the chart from the engine's current trackers: one stacked
// bar per tracker, completed hours under remaining hours.
func (c *chartModel) build() {
	chartWidth := c.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if c.height > 30 {
		chartHeight = 16
	}

	c.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, t := range c.engine.Trackers() {
		bars = append(bars, barchart.BarData{
			Label: truncate(t.Title, 8),
			Values: []barchart.BarValue{
				{Name: "Completed", Value: t.CompletedHours(), Style: completedBarStyle},
				{Name: "Remaining", Value: t.Remaining().Hours(), Style: remainingBarStyle},
			},
		})
	}

	if len(bars) > 0 {
		c.chart.PushAll(bars)
	}
	c.chart.Draw()
}

func (c chartModel) view() string {
	w := c.width - 4
	title := titleStyle.Render("Chart")

	ts := c.engine.Trackers()
	if len(ts) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("  No trackers to chart"),
		))
	}

	legend := fmt.Sprintf("  %s completed  %s remaining",
		completedBarStyle.Render("█"), remainingBarStyle.Render("█"))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title, "", c.chart.View(), "", legend, "", c.renderSummaryTable(ts, w),
		),
	)
}

func (c chartModel) renderSummaryTable(ts []*tracker.Tracker, w int) string {
	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-24s %12s %12s %9s", "Tracker", "Completed", "Remaining", "Progress"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 60)))))

	for _, t := range ts {
		rows = append(rows, fmt.Sprintf("  %-24s %12s %12s %8.2f%%",
			truncate(t.Title, 24), t.FormattedElapsed(), tracker.FormatElapsed(t.Remaining()), t.Progress(),
		))
	}

	return strings.Join(rows, "\n")
}
