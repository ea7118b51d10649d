// Package store defines the persistence contracts the vocabulary core consumes
// and provides file, SQLite and in-memory implementations of them.
package store

import (
	"context"
	"errors"

	"github.com/away0419/eunoia/internal/word"
)

// RecordStore persists one word record per category key.
type RecordStore interface {
	// Read returns the record for key, or nil when none has been written.
	Read(ctx context.Context, key string) (*word.Record, error)
	Write(ctx context.Context, key string, rec word.Record) error
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, key string) error
}

// DefaultProvider serves the read-only bundled word sets of the built-in categories.
type DefaultProvider interface {
	ReadDefault(key string) (*word.Record, bool)
}

// ErrNoChange may be returned by an Update callback to leave the stored value
// as it is. Update then reports success.
var ErrNoChange = errors.New("store: no change")

// HistoryStore holds the presented-word history as a single list.
//
// Update is the read-modify-write path. fn sees the current list and returns
// the replacement; the SQLite store holds the database write lock for the
// whole cycle, so it is safe across processes sharing one data directory.
// A read failure is returned without calling fn.
type HistoryStore interface {
	Read(ctx context.Context) ([]word.Entry, error)
	Write(ctx context.Context, entries []word.Entry) error
	Update(ctx context.Context, fn func([]word.Entry) ([]word.Entry, error)) error
}

// LedgerStore holds the quiz exposure counts keyed by word.LedgerKey.
type LedgerStore interface {
	Read(ctx context.Context) (map[string]int, error)
	Write(ctx context.Context, ledger map[string]int) error
	Update(ctx context.Context, fn func(map[string]int) (map[string]int, error)) error
}

// DefinitionStore holds the user-created category definitions in creation order.
// Built-in categories are never stored.
type DefinitionStore interface {
	Read(ctx context.Context) ([]word.Definition, error)
	Write(ctx context.Context, defs []word.Definition) error
}

// PrefStore is a small string preference map.
type PrefStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Tally is the running quiz score of one word.
type Tally struct {
	Correct      int    `json:"correct"`
	Incorrect    int    `json:"incorrect"`
	LastAnswered string `json:"last_answered,omitempty"`
}

// ResultStore holds quiz tallies keyed by word.LedgerKey.
type ResultStore interface {
	Read(ctx context.Context) (map[string]Tally, error)
	Write(ctx context.Context, results map[string]Tally) error
	Update(ctx context.Context, fn func(map[string]Tally) (map[string]Tally, error)) error
}

// Preference keys.
const (
	PrefLastFetchDate = "last_word_fetch_date"
)
