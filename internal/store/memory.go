package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/away0419/eunoia/internal/word"
)

// The Memory* types are in-process implementations of the store contracts.
// Each exposes Fail* hooks so callers can exercise collaborator failures.

// noChange maps ErrNoChange from an Update callback to success.
func noChange(err error) error {
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	return err
}

// MemoryRecords is an in-memory RecordStore.
type MemoryRecords struct {
	mu         sync.Mutex
	records    map[string]word.Record
	FailRead   error
	FailWrite  error
	FailDelete error
}

func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{records: make(map[string]word.Record)}
}

func (m *MemoryRecords) Read(_ context.Context, key string) (*word.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	out := word.Record{Category: rec.Category, Words: slices.Clone(rec.Words)}
	return &out, nil
}

func (m *MemoryRecords) Write(_ context.Context, key string, rec word.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.records[key] = word.Record{Category: rec.Category, Words: slices.Clone(rec.Words)}
	return nil
}

func (m *MemoryRecords) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	delete(m.records, key)
	return nil
}

// Has reports whether a record exists for key.
func (m *MemoryRecords) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	return ok
}

// MemoryDefaults is a DefaultProvider over a fixed map.
type MemoryDefaults map[string]word.Record

func (m MemoryDefaults) ReadDefault(key string) (*word.Record, bool) {
	rec, ok := m[key]
	if !ok {
		return nil, false
	}
	out := word.Record{Category: rec.Category, Words: slices.Clone(rec.Words)}
	return &out, true
}

// MemoryHistory is an in-memory HistoryStore.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []word.Entry
	FailRead  error
	FailWrite error
}

func NewMemoryHistory(entries ...word.Entry) *MemoryHistory {
	return &MemoryHistory{entries: slices.Clone(entries)}
}

func (m *MemoryHistory) Read(context.Context) ([]word.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	return slices.Clone(m.entries), nil
}

func (m *MemoryHistory) Write(_ context.Context, entries []word.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.entries = slices.Clone(entries)
	return nil
}

func (m *MemoryHistory) Update(_ context.Context, fn func([]word.Entry) ([]word.Entry, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return m.FailRead
	}
	next, err := fn(slices.Clone(m.entries))
	if err != nil {
		return noChange(err)
	}
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.entries = slices.Clone(next)
	return nil
}

// MemoryLedger is an in-memory LedgerStore.
type MemoryLedger struct {
	mu        sync.Mutex
	counts    map[string]int
	Writes    int
	FailRead  error
	FailWrite error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{counts: make(map[string]int)}
}

func (m *MemoryLedger) Read(context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	return maps.Clone(m.counts), nil
}

func (m *MemoryLedger) Write(_ context.Context, ledger map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.counts = maps.Clone(ledger)
	m.Writes++
	return nil
}

func (m *MemoryLedger) Update(_ context.Context, fn func(map[string]int) (map[string]int, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return m.FailRead
	}
	next, err := fn(maps.Clone(m.counts))
	if err != nil {
		return noChange(err)
	}
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.counts = maps.Clone(next)
	m.Writes++
	return nil
}

// MemoryDefinitions is an in-memory DefinitionStore.
type MemoryDefinitions struct {
	mu        sync.Mutex
	defs      []word.Definition
	FailRead  error
	FailWrite error
}

func NewMemoryDefinitions() *MemoryDefinitions {
	return &MemoryDefinitions{}
}

func (m *MemoryDefinitions) Read(context.Context) ([]word.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	return slices.Clone(m.defs), nil
}

func (m *MemoryDefinitions) Write(_ context.Context, defs []word.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return m.FailWrite
	}
	m.defs = slices.Clone(defs)
	return nil
}

// MemoryPrefs is an in-memory PrefStore.
type MemoryPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{values: make(map[string]string)}
}

func (m *MemoryPrefs) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryPrefs) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// MemoryResults is an in-memory ResultStore.
type MemoryResults struct {
	mu      sync.Mutex
	results map[string]Tally
}

func NewMemoryResults() *MemoryResults {
	return &MemoryResults{results: make(map[string]Tally)}
}

func (m *MemoryResults) Read(context.Context) (map[string]Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.results), nil
}

func (m *MemoryResults) Write(_ context.Context, results map[string]Tally) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = maps.Clone(results)
	return nil
}

func (m *MemoryResults) Update(_ context.Context, fn func(map[string]Tally) (map[string]Tally, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(maps.Clone(m.results))
	if err != nil {
		return noChange(err)
	}
	m.results = maps.Clone(next)
	return nil
}
