// Package history keeps the log of words shown to the user.
package history

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// MaxEntries caps the log; the oldest entries are dropped on overflow.
const MaxEntries = 1000

// Log is the presented-word history. Every mutation is a whole-list
// store.HistoryStore.Update. The mutex only orders callers in this process;
// the SQLite store serializes against other processes on the same file.
type Log struct {
	store store.HistoryStore
	log   logrus.FieldLogger
	mu    sync.Mutex
}

// New returns a history log over s.
func New(s store.HistoryStore, log logrus.FieldLogger) *Log {
	return &Log{store: s, log: log}
}

// List returns the history, most recent first.
func (l *Log) List(ctx context.Context) ([]word.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Read(ctx)
}

// Record prepends e, replacing any entry with the same text on the same date.
// Entries without a date are rejected.
func (l *Log) Record(ctx context.Context, e word.Entry) error {
	if e.Date == "" {
		return errors.NewInvalidRequest("history entry requires a date")
	}
	if _, err := word.ParseDate(e.Date); err != nil {
		return errors.NewInvalidRequest("invalid date: " + e.Date)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Update(ctx, func(entries []word.Entry) ([]word.Entry, error) {
		entries = lo.Reject(entries, func(h word.Entry, _ int) bool {
			return h.Text == e.Text && h.Date == e.Date
		})
		entries = append([]word.Entry{e.Normalized()}, entries...)
		if len(entries) > MaxEntries {
			entries = entries[:MaxEntries]
		}
		return entries, nil
	})
}

// Remove deletes entries matching (text, meaning, category). A non-empty date
// narrows the match to that day. It returns the number of entries removed.
func (l *Log) Remove(ctx context.Context, text, meaning, category, date string) (int, error) {
	return l.removeWhere(ctx, func(h word.Entry) bool {
		return h.Text == text && h.Meaning == meaning && h.Category == category &&
			(date == "" || h.Date == date)
	})
}

// RemoveCategory deletes every entry whose category is displayName.
func (l *Log) RemoveCategory(ctx context.Context, displayName string) (int, error) {
	return l.removeWhere(ctx, func(h word.Entry) bool {
		return h.Category == displayName
	})
}

func (l *Log) removeWhere(ctx context.Context, match func(word.Entry) bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	err := l.store.Update(ctx, func(entries []word.Entry) ([]word.Entry, error) {
		kept := lo.Reject(entries, func(h word.Entry, _ int) bool { return match(h) })
		removed = len(entries) - len(kept)
		if removed == 0 {
			return nil, store.ErrNoChange
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Merge adds entries not already present (same text on the same date),
// keeps the list ordered most recent first, and applies the cap. It returns
// the number of entries added.
func (l *Log) Merge(ctx context.Context, incoming []word.Entry) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	err := l.store.Update(ctx, func(entries []word.Entry) ([]word.Entry, error) {
		seen := make(map[[2]string]bool, len(entries))
		for _, e := range entries {
			seen[[2]string{e.Text, e.Date}] = true
		}
		for _, e := range incoming {
			k := [2]string{e.Text, e.Date}
			if e.Date == "" || seen[k] {
				continue
			}
			seen[k] = true
			entries = append(entries, e.Normalized())
			added++
		}
		if added == 0 {
			return nil, store.ErrNoChange
		}
		slices.SortStableFunc(entries, func(a, b word.Entry) int { return strings.Compare(b.Date, a.Date) })
		if len(entries) > MaxEntries {
			entries = entries[:MaxEntries]
		}
		return entries, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Snapshot returns the current list for a later Restore.
func (l *Log) Snapshot(ctx context.Context) ([]word.Entry, error) {
	return l.List(ctx)
}

// Restore overwrites the history with a snapshot taken earlier. It is used to
// undo a removal when a later step of a multi-store operation fails.
func (l *Log) Restore(ctx context.Context, entries []word.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Write(ctx, entries); err != nil {
		l.log.WithError(err).Error("failed to restore history snapshot")
		return err
	}
	return nil
}
