package recorder

import "time"

// TickerOutcome is the result of loading one company in a render pass.
// It never carries price data.
type TickerOutcome struct {
	Company string
	Symbol  string
	OK      bool
	Error   string
	Bars    int
}

// PassRecord describes one completed render pass.
type PassRecord struct {
	PassID    string
	StartedAt time.Time
	Duration  time.Duration
	Period    string
	Window    int
	Companies []string
	Outcomes  []TickerOutcome
}

// Failed returns the number of tickers that could not be loaded.
func (p *PassRecord) Failed() int {
	n := 0
	for _, o := range p.Outcomes {
		if !o.OK {
			n++
		}
	}
	return n
}

// Recorder persists render pass history for analysis.
type Recorder interface {
	RecordPass(rec *PassRecord) error
	Close() error
}
