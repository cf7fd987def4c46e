package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/event"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// scheduleColumns are the header labels of the amortization table printed
// by `amfn run`.
var scheduleColumns = []string{"Date", "Type", "Frequency", "Value", "Balance", "Interest"}

// printSchedule renders cf's amortization list as a width-aware table,
// mirroring the teacher's column-alignment concerns in its ledger
// formatter (beancount's amount/currency column alignment) repurposed to
// amortization-schedule columns: every column is padded to the widest
// cell it contains, measured with runewidth so multi-byte currency
// symbols or locale formatting never throw off alignment.
func printSchedule(w io.Writer, title string, elements []*amortize.Element) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(title))

	rows := make([][]string, 0, len(elements))
	for _, e := range elements {
		rows = append(rows, []string{
			e.Date.String(),
			eventTypeLabel(e),
			string(e.Frequency),
			e.Value.String(),
			e.Balance.String(),
			e.Interest.String(),
		})
	}

	widths := make([]int, len(scheduleColumns))
	for i, c := range scheduleColumns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if wd := runewidth.StringWidth(cell); wd > widths[i] {
				widths[i] = wd
			}
		}
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render(padRow(scheduleColumns, widths)))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, padRow(row, widths))
	}
}

func padRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		pad := widths[i] - runewidth.StringWidth(cell)
		if pad < 0 {
			pad = 0
		}
		padded[i] = cell + strings.Repeat(" ", pad)
	}
	return strings.Join(padded, "  ")
}

func eventTypeLabel(e *amortize.Element) string {
	if e.StatisticName != "" {
		return "statistic:" + e.StatisticName
	}
	switch e.EventType {
	case event.KindPrincipalChange:
		return "principal"
	case event.KindInterestChange:
		return "interest"
	case event.KindStatisticValue:
		return "statistic"
	case event.KindCurrentValue:
		return "current-value"
	default:
		return "unknown"
	}
}
