// Package quiz selects quiz batches from the presentation history, weighted
// toward recent days and balanced by how often each word has been quizzed.
package quiz

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// BatchSize is the number of draws per quiz batch.
const BatchSize = 30

// Date weights by recency rank. Every date past the table gets tailWeight.
var rankWeights = []float64{0.30, 0.30, 0.20, 0.10}

const tailWeight = 0.10

// HistoryReader is the read side of the presentation history.
type HistoryReader interface {
	List(ctx context.Context) ([]word.Entry, error)
}

// Selector draws quiz batches and keeps the exposure ledger and answer tallies.
type Selector struct {
	history HistoryReader
	ledger  store.LedgerStore
	results store.ResultStore
	log     logrus.FieldLogger
	now     func() time.Time

	// mu covers rng and orders ledger/results updates within this process.
	// Across processes the stores' Update serializes on the database.
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the random source. Tests pass a seeded one.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

// WithClock overrides the time source used for answer dates.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// New returns a selector.
func New(history HistoryReader, ledger store.LedgerStore, results store.ResultStore, log logrus.FieldLogger, opts ...Option) *Selector {
	s := &Selector{
		history: history,
		ledger:  ledger,
		results: results,
		log:     log,
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type dateWeight struct {
	date   string
	weight float64
}

// Select returns up to BatchSize words and records their exposure.
//
// If history or the ledger cannot be read, Select returns an empty batch and
// the error, and the ledger is not touched. A failure to save the updated
// ledger is logged; the batch is still returned.
func (s *Selector) Select(ctx context.Context) ([]word.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history.List(ctx)
	if err != nil {
		return []word.Entry{}, errors.WrapStorage("read history", err)
	}

	groups := make(map[string][]word.Entry)
	for _, e := range entries {
		if e.Date == "" {
			continue
		}
		groups[e.Date] = append(groups[e.Date], e)
	}
	if len(groups) == 0 {
		return []word.Entry{}, nil
	}

	weights := weigh(groups)
	var total float64
	for _, w := range weights {
		total += w.weight
	}

	var batch []word.Entry
	err = s.ledger.Update(ctx, func(counts map[string]int) (map[string]int, error) {
		if counts == nil {
			counts = make(map[string]int)
		}
		batch = make([]word.Entry, 0, BatchSize)
		for range BatchSize {
			date := pickDate(weights, s.rng.Float64()*total)
			group := groups[date]
			if len(group) == 0 {
				continue
			}

			picked := s.pickFair(group, counts)
			batch = append(batch, picked)
			counts[picked.LedgerKey()]++
		}
		return counts, nil
	})
	switch {
	case err == nil:
	case batch == nil:
		// the ledger was never read
		return []word.Entry{}, errors.WrapStorage("read exposure ledger", err)
	default:
		s.log.WithError(err).Warn("failed to save exposure ledger")
	}
	return batch, nil
}

// weigh orders dates most recent first and assigns each its rank weight.
func weigh(groups map[string][]word.Entry) []dateWeight {
	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	// YYYY-MM-DD sorts chronologically as text
	slices.Sort(dates)
	slices.Reverse(dates)

	out := make([]dateWeight, len(dates))
	for i, d := range dates {
		w := tailWeight
		if i < len(rankWeights) {
			w = rankWeights[i]
		}
		out[i] = dateWeight{date: d, weight: w}
	}
	return out
}

// pickDate returns the first date whose cumulative weight reaches r,
// or the most recent date if none does.
func pickDate(weights []dateWeight, r float64) string {
	var cum float64
	for _, w := range weights {
		cum += w.weight
		if cum >= r {
			return w.date
		}
	}
	return weights[0].date
}

// pickFair draws uniformly among the group's least-exposed words.
func (s *Selector) pickFair(group []word.Entry, counts map[string]int) word.Entry {
	minCount := -1
	for _, e := range group {
		if c := counts[e.LedgerKey()]; minCount < 0 || c < minCount {
			minCount = c
		}
	}
	var candidates []word.Entry
	for _, e := range group {
		if counts[e.LedgerKey()] == minCount {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = group
	}
	return candidates[s.rng.IntN(len(candidates))]
}

// RecordAnswer adds one correct or incorrect answer to the word's tally.
func (s *Selector) RecordAnswer(ctx context.Context, e word.Entry, correct bool) (store.Tally, error) {
	if e.Text == "" {
		return store.Tally{}, errors.NewInvalidRequest("word is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var t store.Tally
	applied := false
	err := s.results.Update(ctx, func(results map[string]store.Tally) (map[string]store.Tally, error) {
		if results == nil {
			results = make(map[string]store.Tally)
		}
		key := e.LedgerKey()
		t = results[key]
		if correct {
			t.Correct++
		} else {
			t.Incorrect++
		}
		t.LastAnswered = word.FormatDate(s.now())
		results[key] = t
		applied = true
		return results, nil
	})
	if err != nil {
		if !applied {
			return store.Tally{}, errors.WrapStorage("read quiz results", err)
		}
		return store.Tally{}, errors.WrapStorage("write quiz results", err)
	}
	return t, nil
}

// Results returns every recorded tally keyed by word.LedgerKey.
func (s *Selector) Results(ctx context.Context) (map[string]store.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	results, err := s.results.Read(ctx)
	if err != nil {
		return nil, errors.WrapStorage("read quiz results", err)
	}
	return results, nil
}

// Exposure returns the current ledger.
func (s *Selector) Exposure(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, errors.WrapStorage("read exposure ledger", err)
	}
	return ledger, nil
}
