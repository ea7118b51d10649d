package ops

import (
	"context"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/word"
)

// TodayInput contains parameters for the Today operation.
type TodayInput struct {
	Date     string // optional YYYY-MM-DD, default: today
	Category string // optional key or display name filter
}

// TodayOutput contains the result of the Today operation.
type TodayOutput struct {
	Date  string       `json:"date"`
	Count int          `json:"count"`
	Words []word.Entry `json:"words"`
}

// Today returns the day's working set of words.
func Today(ctx context.Context, d *Deps, input TodayInput) (*TodayOutput, error) {
	date, err := d.parseDate(input.Date)
	if err != nil {
		return nil, err
	}
	day, _ := word.ParseDate(date)

	words := d.Today.Words(ctx, day)
	if input.Category != "" {
		def, err := d.category(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		words = lo.Filter(words, func(e word.Entry, _ int) bool { return e.Category == def.DisplayName })
	}

	return &TodayOutput{Date: date, Count: len(words), Words: words}, nil
}
