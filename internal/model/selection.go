package model

import "fmt"

// Moving-average window bounds offered by the sidebar slider.
const (
	MinWindow     = 5
	MaxWindow     = 50
	WindowStep    = 5
	DefaultWindow = 20
)

// Selection is the user input for one render pass.
type Selection struct {
	Companies []string
	Period    Period
	Window    int
}

// Normalize fills defaults and validates the selection. Companies are
// de-duplicated keeping the first occurrence.
func (s Selection) Normalize() (Selection, error) {
	out := Selection{Period: s.Period, Window: s.Window}
	if out.Period == "" {
		out.Period = DefaultPeriod
	}
	if _, err := ParsePeriod(string(out.Period)); err != nil {
		return Selection{}, err
	}
	if out.Window == 0 {
		out.Window = DefaultWindow
	}
	if out.Window < MinWindow || out.Window > MaxWindow {
		return Selection{}, fmt.Errorf("window %d out of range [%d,%d]", out.Window, MinWindow, MaxWindow)
	}
	seen := make(map[string]bool, len(s.Companies))
	for _, c := range s.Companies {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out.Companies = append(out.Companies, c)
	}
	return out, nil
}

// Empty reports whether no company is selected.
func (s Selection) Empty() bool { return len(s.Companies) == 0 }
