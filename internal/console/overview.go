package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dennisdiepolder/monti/opsdash/internal/aggregator"
)

// overviewView renders the latest metrics composition. A failed cycle
// replaces the snapshot with the single "metrics unavailable" outcome.
type overviewView struct {
	outcome *aggregator.Outcome
	seq     int
	loading bool
}

func (o *overviewView) apply(seq int, outcome aggregator.Outcome) {
	o.seq = seq
	o.outcome = &outcome
	o.loading = false
}

func (o *overviewView) render(spin string) string {
	if o.outcome == nil {
		return spin + " Loading metrics..."
	}
	if o.outcome.Err != nil || o.outcome.Snapshot == nil {
		return errorStyle.Render("Metrics unavailable") + "\n" +
			dimStyle.Render("Retrying on the next refresh. Press r to retry now.")
	}

	kpis := o.outcome.Snapshot.KPIs()
	cards := make([]string, 0, len(kpis))
	for _, kpi := range kpis {
		change := lipgloss.NewStyle().Foreground(toneColor(kpi.Tone)).Render(kpi.Change)
		cards = append(cards, cardStyle.Render(strings.Join([]string{
			dimStyle.Render(kpi.Title),
			cardValueStyle.Render(kpi.Value) + "  " + change,
			dimStyle.Render(kpi.Description),
		}, "\n")))
	}

	var rows []string
	for i := 0; i < len(cards); i += 2 {
		end := min(i+2, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	updated := "Updated " + o.outcome.At.Format("15:04:05")
	if o.loading {
		updated += " " + spin
	}
	rows = append(rows, dimStyle.Render(updated))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
