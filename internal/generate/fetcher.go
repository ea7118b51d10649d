package generate

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// Categories is what the fetch job needs from the category store.
type Categories interface {
	ListCategories(ctx context.Context) []word.Definition
	LoadWords(ctx context.Context, key string) ([]word.Entry, error)
	AppendGenerated(ctx context.Context, key string, pairs []word.Pair, date string) ([]word.Entry, error)
}

// Outcome reports what one category got from a fetch run.
type Outcome struct {
	Key   string `json:"key"`
	Added int    `json:"added"`
	Error string `json:"error,omitempty"`
}

// Result summarizes a fetch run.
type Result struct {
	Date       string    `json:"date"`
	Skipped    bool      `json:"skipped"`
	Reason     string    `json:"reason,omitempty"`
	Categories []Outcome `json:"categories,omitempty"`
}

// Skip reasons.
const (
	ReasonNoGenerator  = "no api key configured"
	ReasonAlreadyToday = "already fetched today"
)

// Fetcher is the daily job that asks the generator for new words for every
// category and appends them to the category records.
type Fetcher struct {
	gen     Generator
	cats    Categories
	prefs   store.PrefStore
	limiter *rate.Limiter
	log     logrus.FieldLogger
	now     func() time.Time
	mu      sync.Mutex
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithClock overrides the time source that decides "today".
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher returns a fetch job. gen may be nil, in which case every run is
// skipped. interval is the minimum pause between generator calls.
func NewFetcher(gen Generator, cats Categories, prefs store.PrefStore, interval time.Duration,
	log logrus.FieldLogger, opts ...FetcherOption) *Fetcher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	f := &Fetcher{
		gen:     gen,
		cats:    cats,
		prefs:   prefs,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run fetches new words for every category. Unless force is set, a run on a
// day that already completed one is skipped. Per-category failures are logged
// and reported in the result; they do not stop the run.
func (f *Fetcher) Run(ctx context.Context, force bool) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	today := word.FormatDate(f.now())
	result := &Result{Date: today}

	if f.gen == nil {
		result.Skipped, result.Reason = true, ReasonNoGenerator
		return result, nil
	}

	if !force {
		last, ok, err := f.prefs.Get(ctx, store.PrefLastFetchDate)
		if err != nil {
			f.log.WithError(err).Warn("cannot read last fetch date, fetching anyway")
		} else if ok && last == today {
			result.Skipped, result.Reason = true, ReasonAlreadyToday
			return result, nil
		}
	}

	for _, def := range f.cats.ListCategories(ctx) {
		if err := f.limiter.Wait(ctx); err != nil {
			return result, errors.NewCancelled("fetch")
		}
		outcome := f.fetchOne(ctx, def, today)
		result.Categories = append(result.Categories, outcome)
	}

	if err := f.prefs.Set(ctx, store.PrefLastFetchDate, today); err != nil {
		f.log.WithError(err).Warn("failed to save last fetch date")
	}

	added := lo.SumBy(result.Categories, func(o Outcome) int { return o.Added })
	f.log.WithFields(logrus.Fields{"date": today, "added": added, "forced": force}).Info("word fetch finished")
	return result, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, def word.Definition, today string) Outcome {
	out := Outcome{Key: def.Key}
	log := f.log.WithField("category", def.Key)

	words, err := f.cats.LoadWords(ctx, def.Key)
	if err != nil {
		log.WithError(err).Warn("cannot load words, skipping category")
		out.Error = err.Error()
		return out
	}
	texts := lo.Map(words, func(e word.Entry, _ int) string { return e.Text })

	pairs, err := f.gen.Generate(ctx, def.DisplayName, texts)
	if err != nil {
		log.WithError(err).Warn("generation failed, skipping category")
		out.Error = err.Error()
		return out
	}
	if len(pairs) == 0 {
		log.Warn("generator returned no words")
		return out
	}

	added, err := f.cats.AppendGenerated(ctx, def.Key, pairs, today)
	if err != nil {
		log.WithError(err).Warn("cannot store generated words")
		out.Error = err.Error()
		return out
	}
	out.Added = len(added)
	return out
}
