// Package category is the source of truth for which categories exist and
// which words belong to each.
//
// Store serializes its read-modify-write cycles with a mutex, which orders
// callers within one process only. Two processes editing categories on the
// same data directory at the same moment can lose one edit.
package category

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/history"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// Store manages category definitions and their word records.
//
// Failures are reported as coded errors: INVALID_REQUEST, NOT_FOUND,
// ALREADY_EXISTS and BUILT_IN for rejected requests, STORAGE for collaborator
// I/O. A failed operation leaves every store as it was before the call, or as
// close to it as best-effort rollback allows.
type Store struct {
	records  store.RecordStore
	defaults store.DefaultProvider
	defs     store.DefinitionStore
	history  *history.Log
	log      logrus.FieldLogger
	now      func() time.Time

	// mu serializes read-modify-write cycles on definitions and records.
	// Lock order: Store.mu, then history.Log's lock.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp user-added words.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a category store over its collaborators.
func New(records store.RecordStore, defaults store.DefaultProvider, defs store.DefinitionStore,
	hist *history.Log, log logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{
		records:  records,
		defaults: defaults,
		defs:     defs,
		history:  hist,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// all returns built-ins followed by custom definitions in creation order.
// custom is returned separately for callers that rewrite it.
func (s *Store) all(ctx context.Context) (all, custom []word.Definition, err error) {
	custom, err = s.defs.Read(ctx)
	if err != nil {
		return nil, nil, errors.WrapStorage("read category definitions", err)
	}
	for i := range custom {
		custom[i].BuiltIn = false
	}
	return append(word.BuiltIns(), custom...), custom, nil
}

// ListCategories returns the built-in categories in fixed order followed by
// user-created categories in creation order. It never returns fewer than the
// built-ins: an unreadable definition store is logged and skipped.
func (s *Store) ListCategories(ctx context.Context) []word.Definition {
	all, _, err := s.all(ctx)
	if err != nil {
		s.log.WithError(err).Warn("custom categories unavailable, listing built-ins only")
		return word.BuiltIns()
	}
	return all
}

// Lookup finds a category by exact key, then by exact display name.
func (s *Store) Lookup(ctx context.Context, nameOrKey string) (word.Definition, bool) {
	return find(s.ListCategories(ctx), nameOrKey)
}

func find(defs []word.Definition, nameOrKey string) (word.Definition, bool) {
	nameOrKey = strings.TrimSpace(nameOrKey)
	if def, ok := lo.Find(defs, func(d word.Definition) bool { return d.Key == nameOrKey }); ok {
		return def, true
	}
	return lo.Find(defs, func(d word.Definition) bool { return d.DisplayName == nameOrKey })
}

// ResolveKey maps a key or display name to its key.
func (s *Store) ResolveKey(ctx context.Context, nameOrKey string) (string, bool) {
	def, ok := s.Lookup(ctx, nameOrKey)
	return def.Key, ok
}

// ResolveDisplayName maps a key or display name to its display name, or
// returns the input unchanged when nothing matches.
func (s *Store) ResolveDisplayName(ctx context.Context, nameOrKey string) string {
	if def, ok := s.Lookup(ctx, nameOrKey); ok {
		return def.DisplayName
	}
	return nameOrKey
}

// CreateCategory adds a user category and persists an empty record for it.
// The record is written first; if saving the definition fails the record is
// removed again, so no definition ever exists without its record.
func (s *Store) CreateCategory(ctx context.Context, displayName string) (word.Definition, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return word.Definition{}, errors.NewInvalidRequest("category name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, custom, err := s.all(ctx)
	if err != nil {
		return word.Definition{}, err
	}
	if lo.ContainsBy(all, func(d word.Definition) bool { return d.DisplayName == name }) {
		return word.Definition{}, errors.NewAlreadyExists("category", name)
	}

	existing := lo.SliceToMap(all, func(d word.Definition) (string, bool) { return d.Key, true })
	def := word.Definition{Key: word.GenerateKey(name, existing), DisplayName: name}

	if err := s.records.Write(ctx, def.Key, word.Record{Category: name, Words: []word.Entry{}}); err != nil {
		return word.Definition{}, errors.WrapStorage("write category record", err)
	}
	if err := s.defs.Write(ctx, append(custom, def)); err != nil {
		if delErr := s.records.Delete(context.WithoutCancel(ctx), def.Key); delErr != nil {
			s.log.WithError(delErr).WithField("category", def.Key).Error("failed to remove record after definition write failure")
		}
		return word.Definition{}, errors.WrapStorage("write category definitions", err)
	}

	s.log.WithField("category", def.Key).Info("category created")
	return def, nil
}

// DeleteCategory removes a user category: its definition, its history
// entries and its word record, in that order. If a later step fails the
// earlier ones are rolled back and the error is returned.
func (s *Store) DeleteCategory(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, custom, err := s.all(ctx)
	if err != nil {
		return err
	}
	def, ok := lo.Find(all, func(d word.Definition) bool { return d.Key == key })
	if !ok {
		return errors.NewNotFound("category", key)
	}
	if def.BuiltIn {
		return errors.NewBuiltIn("category " + key)
	}

	snapshot, err := s.history.Snapshot(ctx)
	if err != nil {
		return errors.WrapStorage("read history", err)
	}

	remaining := lo.Reject(custom, func(d word.Definition, _ int) bool { return d.Key == key })
	if err := s.defs.Write(ctx, remaining); err != nil {
		return errors.WrapStorage("write category definitions", err)
	}

	// Rollback runs even if ctx was cancelled mid-operation.
	rollback := context.WithoutCancel(ctx)
	restoreDefs := func() {
		if err := s.defs.Write(rollback, custom); err != nil {
			s.log.WithError(err).WithField("category", key).Error("failed to restore category definitions")
		}
	}

	if _, err := s.history.RemoveCategory(ctx, def.DisplayName); err != nil {
		restoreDefs()
		return errors.WrapStorage("remove category history", err)
	}

	if err := s.records.Delete(ctx, key); err != nil {
		if restoreErr := s.history.Restore(rollback, snapshot); restoreErr != nil {
			s.log.WithError(restoreErr).WithField("category", key).Error("failed to restore history")
		}
		restoreDefs()
		return errors.WrapStorage("delete category record", err)
	}

	s.log.WithField("category", key).Info("category deleted")
	return nil
}

// LoadWords returns the words of a category: the local record when one
// exists, else the bundled set for built-ins, else nothing. Every entry is
// tagged with the category's current display name.
func (s *Store) LoadWords(ctx context.Context, key string) ([]word.Entry, error) {
	def, ok := s.Lookup(ctx, key)
	if !ok {
		return nil, errors.NewNotFound("category", key)
	}
	return s.load(ctx, def)
}

func (s *Store) load(ctx context.Context, def word.Definition) ([]word.Entry, error) {
	rec, err := s.records.Read(ctx, def.Key)
	if err != nil {
		return nil, errors.WrapStorage("read category record", err)
	}
	if rec == nil && def.BuiltIn {
		rec, _ = s.defaults.ReadDefault(def.Key)
	}
	if rec == nil {
		return []word.Entry{}, nil
	}
	words := make([]word.Entry, len(rec.Words))
	for i, e := range rec.Words {
		e = e.Normalized()
		e.Category = def.DisplayName
		words[i] = e
	}
	return words, nil
}

// AddWord appends a user word to a category. A word with the same text
// already in the category is rejected. The entry is stamped with today's date.
func (s *Store) AddWord(ctx context.Context, key, text, meaning string) (word.Entry, error) {
	text, meaning = strings.TrimSpace(text), strings.TrimSpace(meaning)
	if text == "" || meaning == "" {
		return word.Entry{}, errors.NewInvalidRequest("word and meaning are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.Lookup(ctx, key)
	if !ok {
		return word.Entry{}, errors.NewNotFound("category", key)
	}
	words, err := s.load(ctx, def)
	if err != nil {
		return word.Entry{}, err
	}
	if lo.ContainsBy(words, func(e word.Entry) bool { return e.Text == text }) {
		return word.Entry{}, errors.NewAlreadyExists("word", text)
	}

	entry := word.Entry{
		ID:       word.NewID(),
		Text:     text,
		Meaning:  meaning,
		Category: def.DisplayName,
		Date:     word.FormatDate(s.now()),
		Source:   word.SourceUserAdded,
	}
	rec := word.Record{Category: def.DisplayName, Words: append(words, entry)}
	if err := s.records.Write(ctx, def.Key, rec); err != nil {
		return word.Entry{}, errors.WrapStorage("write category record", err)
	}
	return entry, nil
}

// DeleteWord removes every entry matching (text, meaning) from the entry's
// category, then removes the word from history. Bundled words are refused.
// If the history step fails the record is restored.
func (s *Store) DeleteWord(ctx context.Context, e word.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.Lookup(ctx, e.Category)
	if !ok {
		return errors.NewNotFound("category", e.Category)
	}
	words, err := s.load(ctx, def)
	if err != nil {
		return err
	}

	matches := func(w word.Entry) bool { return w.Text == e.Text && w.Meaning == e.Meaning }
	found := lo.Filter(words, func(w word.Entry, _ int) bool { return matches(w) })
	if len(found) == 0 {
		return errors.NewNotFound("word", e.Text)
	}
	if e.IsBundled() || lo.ContainsBy(found, word.Entry.IsBundled) {
		return errors.NewBuiltIn("word " + e.Text)
	}

	kept := lo.Reject(words, func(w word.Entry, _ int) bool { return matches(w) })
	if err := s.records.Write(ctx, def.Key, word.Record{Category: def.DisplayName, Words: kept}); err != nil {
		return errors.WrapStorage("write category record", err)
	}

	if _, err := s.history.Remove(ctx, e.Text, e.Meaning, def.DisplayName, ""); err != nil {
		original := word.Record{Category: def.DisplayName, Words: words}
		if restoreErr := s.records.Write(context.WithoutCancel(ctx), def.Key, original); restoreErr != nil {
			s.log.WithError(restoreErr).WithField("category", def.Key).Error("failed to restore category record")
		}
		return errors.WrapStorage("remove word history", err)
	}
	return nil
}

// AppendGenerated adds generated pairs to a category, skipping pairs whose
// text is already present, and returns the entries actually added.
func (s *Store) AppendGenerated(ctx context.Context, key string, pairs []word.Pair, date string) ([]word.Entry, error) {
	entries := make([]word.Entry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, word.Entry{
			Text:    p.Text,
			Meaning: p.Meaning,
			Date:    date,
			Source:  word.SourceGenerated,
		})
	}
	return s.merge(ctx, key, entries)
}

// ImportWords merges previously exported entries into a category, keeping
// their source and date. Entries whose text is already present are skipped.
// A bundled source is kept only in built-in categories; elsewhere it becomes
// user-added so the word stays deletable.
func (s *Store) ImportWords(ctx context.Context, key string, entries []word.Entry) ([]word.Entry, error) {
	return s.merge(ctx, key, entries)
}

func (s *Store) merge(ctx context.Context, key string, incoming []word.Entry) ([]word.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.Lookup(ctx, key)
	if !ok {
		return nil, errors.NewNotFound("category", key)
	}
	words, err := s.load(ctx, def)
	if err != nil {
		return nil, err
	}

	seen := lo.SliceToMap(words, func(e word.Entry) (string, bool) { return e.Text, true })
	ids := lo.SliceToMap(words, func(e word.Entry) (string, bool) { return e.ID, true })
	var added []word.Entry
	for _, e := range incoming {
		e.Text, e.Meaning = strings.TrimSpace(e.Text), strings.TrimSpace(e.Meaning)
		if e.Text == "" || e.Meaning == "" || seen[e.Text] {
			continue
		}
		seen[e.Text] = true
		if e.ID == "" || ids[e.ID] {
			e.ID = word.NewID()
		}
		ids[e.ID] = true
		e = e.Normalized()
		if !def.BuiltIn && e.IsBundled() {
			// only built-in categories hold bundled words
			e.Source = word.SourceUserAdded
		}
		e.Category = def.DisplayName
		added = append(added, e)
	}
	if len(added) == 0 {
		return nil, nil
	}

	rec := word.Record{Category: def.DisplayName, Words: append(slices.Clip(words), added...)}
	if err := s.records.Write(ctx, def.Key, rec); err != nil {
		return nil, errors.WrapStorage("write category record", err)
	}
	return added, nil
}
