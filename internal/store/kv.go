package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/away0419/eunoia/internal/db"
	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/word"
)

// KV namespaces and keys. Each logical store is one JSON document.
const (
	nsHistory    = "history"
	nsQuiz       = "quiz"
	nsCategories = "categories"
	nsPrefs      = "prefs"

	keyHistory     = "history"
	keyExposure    = "exposure"
	keyResults     = "results"
	keyDefinitions = "custom"
)

// doc reads and writes a single JSON document in the kv table.
type doc[T any] struct {
	db        *sql.DB
	namespace string
	key       string
}

func (d doc[T]) read(ctx context.Context) (T, bool, error) {
	var out T
	raw, ok, err := db.GetValue(ctx, d.db, d.namespace, d.key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, false, errors.NewStorage("decode "+d.namespace+"/"+d.key, err)
	}
	return out, true, nil
}

func (d doc[T]) write(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	return db.PutValue(ctx, d.db, d.namespace, d.key, string(data))
}

// update runs fn on the stored document inside db.UpdateValue. A missing row
// reaches fn as the zero value.
func (d doc[T]) update(ctx context.Context, fn func(T) (T, error)) error {
	err := db.UpdateValue(ctx, d.db, d.namespace, d.key, func(raw string, ok bool) (string, error) {
		var cur T
		if ok {
			if err := json.Unmarshal([]byte(raw), &cur); err != nil {
				return "", errors.NewStorage("decode "+d.namespace+"/"+d.key, err)
			}
		}
		next, err := fn(cur)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", errors.NewInternal(err)
		}
		return string(data), nil
	})
	if stderrors.Is(err, ErrNoChange) {
		return nil
	}
	return err
}

// SQLiteHistory is a HistoryStore backed by the kv table.
type SQLiteHistory struct {
	doc doc[[]word.Entry]
}

// NewSQLiteHistory returns a history store on database.
func NewSQLiteHistory(database *sql.DB) *SQLiteHistory {
	return &SQLiteHistory{doc: doc[[]word.Entry]{db: database, namespace: nsHistory, key: keyHistory}}
}

func (s *SQLiteHistory) Read(ctx context.Context) ([]word.Entry, error) {
	entries, _, err := s.doc.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i] = entries[i].Normalized()
	}
	return entries, nil
}

func (s *SQLiteHistory) Write(ctx context.Context, entries []word.Entry) error {
	if entries == nil {
		entries = []word.Entry{}
	}
	return s.doc.write(ctx, entries)
}

func (s *SQLiteHistory) Update(ctx context.Context, fn func([]word.Entry) ([]word.Entry, error)) error {
	return s.doc.update(ctx, func(entries []word.Entry) ([]word.Entry, error) {
		for i := range entries {
			entries[i] = entries[i].Normalized()
		}
		next, err := fn(entries)
		if next == nil {
			next = []word.Entry{}
		}
		return next, err
	})
}

// SQLiteLedger is a LedgerStore backed by the kv table.
type SQLiteLedger struct {
	doc doc[map[string]int]
}

// NewSQLiteLedger returns an exposure ledger store on database.
func NewSQLiteLedger(database *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{doc: doc[map[string]int]{db: database, namespace: nsQuiz, key: keyExposure}}
}

func (s *SQLiteLedger) Read(ctx context.Context) (map[string]int, error) {
	ledger, _, err := s.doc.read(ctx)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = make(map[string]int)
	}
	return ledger, nil
}

func (s *SQLiteLedger) Write(ctx context.Context, ledger map[string]int) error {
	return s.doc.write(ctx, ledger)
}

func (s *SQLiteLedger) Update(ctx context.Context, fn func(map[string]int) (map[string]int, error)) error {
	return s.doc.update(ctx, func(ledger map[string]int) (map[string]int, error) {
		if ledger == nil {
			ledger = make(map[string]int)
		}
		return fn(ledger)
	})
}

// SQLiteDefinitions is a DefinitionStore backed by the kv table.
type SQLiteDefinitions struct {
	doc doc[[]word.Definition]
}

// NewSQLiteDefinitions returns a custom category definition store on database.
func NewSQLiteDefinitions(database *sql.DB) *SQLiteDefinitions {
	return &SQLiteDefinitions{doc: doc[[]word.Definition]{db: database, namespace: nsCategories, key: keyDefinitions}}
}

func (s *SQLiteDefinitions) Read(ctx context.Context) ([]word.Definition, error) {
	defs, _, err := s.doc.read(ctx)
	return defs, err
}

func (s *SQLiteDefinitions) Write(ctx context.Context, defs []word.Definition) error {
	if defs == nil {
		defs = []word.Definition{}
	}
	return s.doc.write(ctx, defs)
}

// SQLitePrefs is a PrefStore backed by the kv table.
type SQLitePrefs struct {
	db *sql.DB
}

// NewSQLitePrefs returns a preference store on database.
func NewSQLitePrefs(database *sql.DB) *SQLitePrefs {
	return &SQLitePrefs{db: database}
}

func (s *SQLitePrefs) Get(ctx context.Context, key string) (string, bool, error) {
	return db.GetValue(ctx, s.db, nsPrefs, key)
}

func (s *SQLitePrefs) Set(ctx context.Context, key, value string) error {
	return db.PutValue(ctx, s.db, nsPrefs, key, value)
}

// SQLiteResults is a ResultStore backed by the kv table.
type SQLiteResults struct {
	doc doc[map[string]Tally]
}

// NewSQLiteResults returns a quiz result store on database.
func NewSQLiteResults(database *sql.DB) *SQLiteResults {
	return &SQLiteResults{doc: doc[map[string]Tally]{db: database, namespace: nsQuiz, key: keyResults}}
}

func (s *SQLiteResults) Read(ctx context.Context) (map[string]Tally, error) {
	results, _, err := s.doc.read(ctx)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = make(map[string]Tally)
	}
	return results, nil
}

func (s *SQLiteResults) Write(ctx context.Context, results map[string]Tally) error {
	return s.doc.write(ctx, results)
}

func (s *SQLiteResults) Update(ctx context.Context, fn func(map[string]Tally) (map[string]Tally, error)) error {
	return s.doc.update(ctx, func(results map[string]Tally) (map[string]Tally, error) {
		if results == nil {
			results = make(map[string]Tally)
		}
		return fn(results)
	})
}
