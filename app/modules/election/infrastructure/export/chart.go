package electionexport

import (
	"bytes"
	"fmt"
	"slices"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// TallyRow is one candidate's count in an export.
type TallyRow struct {
	ID    electiondomain.CandidateID `json:"id"`
	Name  string                     `json:"name"`
	Votes int                        `json:"votes"`
}

// TallyDocument counts the document's ballots: first preferences for
// preferential elections, every selection for block elections. Rows are
// ordered by votes, then candidate id.
func TallyDocument(doc Document) []TallyRow {
	rows := make([]TallyRow, 0, len(doc.Candidates))
	index := make(map[electiondomain.CandidateID]int, len(doc.Candidates))
	for _, c := range doc.Candidates {
		index[c.ID] = len(rows)
		rows = append(rows, TallyRow{ID: c.ID, Name: c.Name})
	}

	for _, b := range doc.Ballots {
		if b.SubmittedAt == nil || len(b.Selections) == 0 {
			continue
		}
		counted := b.Selections
		if doc.System == electiondomain.SystemPreferential {
			counted = counted[:1]
		}
		for _, c := range counted {
			if i, ok := index[c]; ok {
				rows[i].Votes++
			}
		}
	}

	slices.SortStableFunc(rows, func(a, b TallyRow) int {
		if a.Votes != b.Votes {
			return b.Votes - a.Votes
		}
		return int(a.ID) - int(b.ID)
	})
	return rows
}

// ChartPalette colours the tally chart.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Text       drawing.Color
}

// DefaultPalette is used by the admin HTTP surface.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("1b1f23"),
	Bar:        drawing.ColorFromHex("d4a72c"),
	Text:       drawing.ColorFromHex("e6edf3"),
}

// RenderTallyChart produces a PNG bar chart of the document's tally.
func RenderTallyChart(doc Document, palette ChartPalette) ([]byte, error) {
	rows := TallyDocument(doc)
	top := 0
	for _, r := range rows {
		top = max(top, r.Votes)
	}
	if top == 0 {
		return renderNoVotesPlaceholder(palette)
	}

	bars := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, chart.Value{
			Label: r.Name,
			Value: float64(r.Votes),
			Style: chart.Style{FillColor: palette.Bar, StrokeColor: palette.Bar},
		})
	}

	graph := chart.BarChart{
		Title:      doc.Title,
		TitleStyle: chart.Style{FontColor: palette.Text},
		Width:      max(400, 120*len(bars)),
		Height:     400,
		BarWidth:   60,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.Text},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render tally chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderNoVotesPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No ballots submitted"
	)

	graph := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
