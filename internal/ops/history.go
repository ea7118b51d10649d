package ops

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/word"
)

// RememberInput contains parameters for the Remember operation.
type RememberInput struct {
	Category string // required, key or display name
	Text     string // required
	Date     string // optional YYYY-MM-DD, default: today
}

// RememberOutput contains the result of the Remember operation.
type RememberOutput struct {
	Entry word.Entry `json:"entry"`
}

// Remember records a word from a category into the presentation history.
func Remember(ctx context.Context, d *Deps, input RememberInput) (*RememberOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("word is required")
	}
	date, err := d.parseDate(input.Date)
	if err != nil {
		return nil, err
	}
	def, err := d.category(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	words, err := d.Categories.LoadWords(ctx, def.Key)
	if err != nil {
		return nil, err
	}
	e, ok := lo.Find(words, func(w word.Entry) bool { return w.Text == text })
	if !ok {
		return nil, errors.NewNotFound("word", text)
	}

	e.Date = date
	if err := d.History.Record(ctx, e); err != nil {
		return nil, errors.WrapStorage("record history", err)
	}
	return &RememberOutput{Entry: e}, nil
}

// ForgetInput contains parameters for the Forget operation.
type ForgetInput struct {
	Category string // required, key or display name
	Text     string // required
	Meaning  string // optional, default: every meaning of Text
	Date     string // optional, default: every date
}

// ForgetOutput contains the result of the Forget operation.
type ForgetOutput struct {
	Removed int `json:"removed"`
}

// Forget removes a word from the presentation history.
func Forget(ctx context.Context, d *Deps, input ForgetInput) (*ForgetOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("word is required")
	}
	date := strings.TrimSpace(input.Date)
	if date != "" {
		if _, err := word.ParseDate(date); err != nil {
			return nil, errors.NewInvalidRequest("invalid date: " + date)
		}
	}
	displayName := d.Categories.ResolveDisplayName(ctx, input.Category)

	meanings := []string{strings.TrimSpace(input.Meaning)}
	if meanings[0] == "" {
		entries, err := d.History.List(ctx)
		if err != nil {
			return nil, errors.WrapStorage("read history", err)
		}
		matching := lo.Filter(entries, func(e word.Entry, _ int) bool {
			return e.Text == text && e.Category == displayName
		})
		meanings = lo.Uniq(lo.Map(matching, func(e word.Entry, _ int) string { return e.Meaning }))
	}

	removed := 0
	for _, m := range meanings {
		n, err := d.History.Remove(ctx, text, m, displayName, date)
		if err != nil {
			return nil, errors.WrapStorage("remove history", err)
		}
		removed += n
	}
	if removed == 0 {
		return nil, errors.NewNotFound("history entry", text)
	}
	return &ForgetOutput{Removed: removed}, nil
}

// HistoryListInput contains parameters for the HistoryList operation.
type HistoryListInput struct {
	Category string // optional key or display name filter
	Date     string // optional YYYY-MM-DD filter
	Limit    int
	Offset   int
}

// HistoryListOutput contains the result of the HistoryList operation.
type HistoryListOutput struct {
	Items      []word.Entry `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// HistoryList pages through the presentation history, most recent first.
func HistoryList(ctx context.Context, d *Deps, input HistoryListInput) (*HistoryListOutput, error) {
	entries, err := d.History.List(ctx)
	if err != nil {
		return nil, errors.WrapStorage("read history", err)
	}

	var displayName string
	if input.Category != "" {
		def, err := d.category(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		displayName = def.DisplayName
	}
	date := strings.TrimSpace(input.Date)

	filtered := lo.Filter(entries, func(e word.Entry, _ int) bool {
		return (displayName == "" || e.Category == displayName) && (date == "" || e.Date == date)
	})
	items, p := page(filtered, input.Limit, input.Offset)
	return &HistoryListOutput{Items: items, Pagination: p}, nil
}
