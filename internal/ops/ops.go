// Package ops implements the application operations shared by the CLI, the
// MCP server and the web API. Each operation takes an XxxInput and returns an
// XxxOutput or a coded *errors.EunoiaError.
package ops

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/category"
	"github.com/away0419/eunoia/internal/config"
	"github.com/away0419/eunoia/internal/db"
	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/generate"
	"github.com/away0419/eunoia/internal/history"
	"github.com/away0419/eunoia/internal/quiz"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/today"
	"github.com/away0419/eunoia/internal/word"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Deps is the wired application: storage, components and configuration.
type Deps struct {
	Config  *config.Config
	Log     logrus.FieldLogger
	BaseDir string
	DB      *sql.DB

	Categories *category.Store
	History    *history.Log
	Today      *today.Aggregator
	Quiz       *quiz.Selector
	Fetcher    *generate.Fetcher

	now func() time.Time
}

type openOptions struct {
	now    func() time.Time
	gen    generate.Generator
	genSet bool
	rng    *rand.Rand
}

// Option configures Open.
type Option func(*openOptions)

// WithClock overrides the time source for every component.
func WithClock(now func() time.Time) Option {
	return func(o *openOptions) { o.now = now }
}

// WithGenerator replaces the configured AI client. A nil generator disables
// fetching.
func WithGenerator(gen generate.Generator) Option {
	return func(o *openOptions) { o.gen, o.genSet = gen, true }
}

// WithRand seeds the quiz sampler.
func WithRand(rng *rand.Rand) Option {
	return func(o *openOptions) { o.rng = rng }
}

// Open initializes storage under baseDir and wires every component.
func Open(baseDir string, cfg *config.Config, log logrus.FieldLogger, opts ...Option) (*Deps, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	o := openOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("init database: %w", err))
	}
	db.ConfigurePool(database, cfg)

	defaults := store.NewEmbeddedDefaults()
	if err := defaults.Err(); err != nil {
		database.Close()
		return nil, errors.NewInternal(fmt.Errorf("load bundled words: %w", err))
	}

	records := store.NewFileRecordStore(filepath.Join(baseDir, db.WordsDir), log)
	hist := history.New(store.NewSQLiteHistory(database), log)
	cats := category.New(records, defaults, store.NewSQLiteDefinitions(database), hist, log,
		category.WithClock(o.now))

	quizOpts := []quiz.Option{quiz.WithClock(o.now)}
	if o.rng != nil {
		quizOpts = append(quizOpts, quiz.WithRand(o.rng))
	}

	var gen generate.Generator
	switch {
	case o.genSet:
		gen = o.gen
	case strings.TrimSpace(cfg.AIAPIKey) != "":
		gen = generate.NewClient(cfg, log)
	}

	return &Deps{
		Config:     cfg,
		Log:        log,
		BaseDir:    baseDir,
		DB:         database,
		Categories: cats,
		History:    hist,
		Today:      today.New(cats, log),
		Quiz:       quiz.New(hist, store.NewSQLiteLedger(database), store.NewSQLiteResults(database), log, quizOpts...),
		Fetcher: generate.NewFetcher(gen, cats, store.NewSQLitePrefs(database), cfg.FetchInterval(), log,
			generate.WithClock(o.now)),
		now: o.now,
	}, nil
}

// Close releases the database.
func (d *Deps) Close() error {
	return d.DB.Close()
}

// ExportsDir is the default directory for export files.
func (d *Deps) ExportsDir() string {
	return filepath.Join(d.BaseDir, db.ExportsDir)
}

func (d *Deps) today() string {
	return word.FormatDate(d.now())
}

// category resolves a key or display name to a definition.
func (d *Deps) category(ctx context.Context, nameOrKey string) (word.Definition, error) {
	if strings.TrimSpace(nameOrKey) == "" {
		return word.Definition{}, errors.NewInvalidRequest("category is required")
	}
	def, ok := d.Categories.Lookup(ctx, nameOrKey)
	if !ok {
		return word.Definition{}, errors.NewNotFound("category", nameOrKey)
	}
	return def, nil
}

// parseDate validates an optional YYYY-MM-DD date, defaulting to today.
func (d *Deps) parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return d.today(), nil
	}
	if _, err := word.ParseDate(s); err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", s))
	}
	return s, nil
}

// page clamps limit and offset and slices items.
func page[T any](items []T, limit, offset int) ([]T, Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)
	return items[start:end], Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}
