// Package today builds the per-day working set of words shown to the user.
package today

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/word"
)

// PerCategory is the number of words each category contributes per day.
const PerCategory = 5

// Source is what the aggregator needs from the category store.
type Source interface {
	ListCategories(ctx context.Context) []word.Definition
	LoadWords(ctx context.Context, key string) ([]word.Entry, error)
}

// Aggregator selects today's words for every category.
type Aggregator struct {
	categories Source
	log        logrus.FieldLogger
}

// New returns an aggregator over the given category source.
func New(categories Source, log logrus.FieldLogger) *Aggregator {
	return &Aggregator{categories: categories, log: log}
}

// Words returns today's words for day, in category order. A category that
// fails to load contributes nothing.
func (a *Aggregator) Words(ctx context.Context, day time.Time) []word.Entry {
	var out []word.Entry
	for _, def := range a.categories.ListCategories(ctx) {
		words, err := a.categories.LoadWords(ctx, def.Key)
		if err != nil {
			a.log.WithError(err).WithField("category", def.Key).Warn("skipping category for today's words")
			continue
		}
		out = append(out, Select(words, def.DisplayName, day)...)
	}
	if out == nil {
		out = []word.Entry{}
	}
	return out
}

// Select picks up to PerCategory entries from one category's words:
// generated-today, then user-added-today, then a window of bundled words
// starting at (day-of-year * PerCategory) mod len(bundled). The window does
// not wrap. Each result is a copy stamped with the category name and date.
func Select(words []word.Entry, displayName string, day time.Time) []word.Entry {
	date := word.FormatDate(day)

	generated := lo.Filter(words, func(e word.Entry, _ int) bool {
		return e.Source == word.SourceGenerated && e.Date == date
	})
	user := lo.Filter(words, func(e word.Entry, _ int) bool {
		return e.Source == word.SourceUserAdded && e.Date == date
	})
	bundled := lo.Filter(words, func(e word.Entry, _ int) bool { return e.IsBundled() })

	picked := append(generated, user...)
	if len(picked) > PerCategory {
		picked = picked[:PerCategory]
	}

	if need := PerCategory - len(picked); need > 0 && len(bundled) > 0 {
		start := (day.YearDay() * PerCategory) % len(bundled)
		end := min(start+need, len(bundled))
		picked = append(picked, bundled[start:end]...)
	}

	out := make([]word.Entry, len(picked))
	for i, e := range picked {
		e = e.Normalized()
		e.Category = displayName
		e.Date = date
		out[i] = e
	}
	return out
}
