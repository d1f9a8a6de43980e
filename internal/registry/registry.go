package registry

import (
	"fmt"

	"StockDashboard/internal/model"
)

// Entry maps a human-readable company name to its ticker symbol.
type Entry struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// DefaultEntries is the built-in company list, in sidebar order.
var DefaultEntries = []Entry{
	{"Apple", "AAPL"},
	{"Google", "GOOGL"},
	{"Microsoft", "MSFT"},
	{"Amazon", "AMZN"},
	{"Facebook", "META"},
	{"Tesla", "TSLA"},
	{"Netflix", "NFLX"},
	{"NVIDIA", "NVDA"},
	{"Uber", "UBER"},
}

// Registry is an immutable company name to symbol mapping.
type Registry struct {
	entries []Entry
	symbols map[string]model.Symbol
}

// New builds a Registry. Names and symbols must be unique and non-empty.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		symbols: make(map[string]model.Symbol, len(entries)),
	}
	owners := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Symbol == "" {
			return nil, fmt.Errorf("registry entry %+v: name and symbol are required", e)
		}
		if _, dup := r.symbols[e.Name]; dup {
			return nil, fmt.Errorf("registry entry %q registered twice", e.Name)
		}
		if owner, dup := owners[e.Symbol]; dup {
			return nil, fmt.Errorf("registry entry %q: symbol %s already belongs to %q", e.Name, e.Symbol, owner)
		}
		owners[e.Symbol] = e.Name
		r.entries = append(r.entries, e)
		r.symbols[e.Name] = model.Symbol(e.Symbol)
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(DefaultEntries)
	if err != nil {
		panic(err)
	}
	return r
}

// WithExtra returns a registry holding the default entries followed by extra.
// Extra entries reusing a default name override its symbol.
func WithExtra(extra []Entry) (*Registry, error) {
	merged := make([]Entry, 0, len(DefaultEntries)+len(extra))
	index := make(map[string]int, len(DefaultEntries))
	for _, e := range DefaultEntries {
		index[e.Name] = len(merged)
		merged = append(merged, e)
	}
	for _, e := range extra {
		if i, ok := index[e.Name]; ok {
			merged[i].Symbol = e.Symbol
			continue
		}
		index[e.Name] = len(merged)
		merged = append(merged, e)
	}
	return New(merged)
}

// Resolve returns the symbol registered for name.
func (r *Registry) Resolve(name string) (model.Symbol, error) {
	sym, ok := r.symbols[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, model.ErrUnknownCompany)
	}
	return sym, nil
}

// Names returns the registered company names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the registered entries.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}
