package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"StockDashboard/internal/model"
)

// PageTitle is the dashboard heading.
const PageTitle = "Live Stock Price Dashboard"

// State is the lifecycle position of a render pass.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateRendered State = "rendered"
)

// Option is one selectable company in the sidebar.
type Option struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Selected bool   `json:"selected"`
}

// PeriodOption is one entry of the period selector.
type PeriodOption struct {
	Value    model.Period `json:"value"`
	Selected bool         `json:"selected"`
}

// Inputs describes the sidebar controls and their current values.
type Inputs struct {
	Companies  []Option       `json:"companies"`
	Periods    []PeriodOption `json:"periods"`
	Window     int            `json:"window"`
	MinWindow  int            `json:"min_window"`
	MaxWindow  int            `json:"max_window"`
	WindowStep int            `json:"window_step"`
}

// NewInputs builds the sidebar state for sel over the registered names.
func NewInputs(entries []Option, sel model.Selection) Inputs {
	chosen := make(map[string]bool, len(sel.Companies))
	for _, c := range sel.Companies {
		chosen[c] = true
	}
	in := Inputs{
		Window:     sel.Window,
		MinWindow:  model.MinWindow,
		MaxWindow:  model.MaxWindow,
		WindowStep: model.WindowStep,
	}
	for _, e := range entries {
		e.Selected = chosen[e.Name]
		in.Companies = append(in.Companies, e)
	}
	for _, p := range model.Periods {
		in.Periods = append(in.Periods, PeriodOption{Value: p, Selected: p == sel.Period})
	}
	return in
}

// TickerSection is the per-symbol block of the page.
type TickerSection struct {
	Company       string      `json:"company"`
	Symbol        string      `json:"symbol"`
	Title         string      `json:"title"`
	Error         string      `json:"error,omitempty"`
	Close         ChartSpec   `json:"close"`
	Volume        ChartSpec   `json:"volume"`
	MovingAverage ChartSpec   `json:"moving_average"`
	Bollinger     ChartSpec   `json:"bollinger"`
	Candlestick   ChartSpec   `json:"candlestick"`
	Metrics       []MetricRow `json:"metrics,omitempty"`
}

// Failed reports whether the section is an error placeholder.
func (t TickerSection) Failed() bool { return t.Error != "" }

// Charts returns the section's charts in display order.
func (t TickerSection) Charts() []ChartSpec {
	if t.Failed() {
		return nil
	}
	return []ChartSpec{t.Close, t.Volume, t.MovingAverage, t.Bollinger, t.Candlestick}
}

// ComparisonSection holds the cross-symbol charts.
type ComparisonSection struct {
	Title   string    `json:"title"`
	Closing ChartSpec `json:"closing"`
	Volume  ChartSpec `json:"volume"`
	Average ChartSpec `json:"moving_average"`
	Returns ChartSpec `json:"daily_returns"`
}

// Charts returns the comparison charts in display order.
func (c *ComparisonSection) Charts() []ChartSpec {
	if c == nil {
		return nil
	}
	return []ChartSpec{c.Closing, c.Volume, c.Average, c.Returns}
}

// Page is the complete view model of one render pass.
type Page struct {
	Title       string             `json:"title"`
	PassID      string             `json:"pass_id,omitempty"`
	State       State              `json:"state"`
	Inputs      Inputs             `json:"inputs"`
	Period      model.Period       `json:"period"`
	Window      int                `json:"window"`
	Tickers     []TickerSection    `json:"tickers"`
	Comparison  *ComparisonSection `json:"comparison,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// AllCharts returns every drawable chart on the page.
func (p *Page) AllCharts() []ChartSpec {
	var out []ChartSpec
	for _, t := range p.Tickers {
		for _, c := range t.Charts() {
			if !c.Empty {
				out = append(out, c)
			}
		}
	}
	for _, c := range p.Comparison.Charts() {
		if !c.Empty {
			out = append(out, c)
		}
	}
	return out
}

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").ParseFS(templateFS, "templates/dashboard.html"))

// WritePage renders p as a complete HTML document.
func WritePage(w io.Writer, p *Page) error {
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
