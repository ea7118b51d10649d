package ops

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// QuizDrawOutput contains the result of the QuizDraw operation.
type QuizDrawOutput struct {
	Count int          `json:"count"`
	Words []word.Entry `json:"words"`
}

// QuizDraw draws a quiz batch from the history. When history or the exposure
// ledger cannot be read the batch is empty; the failure is logged, not returned.
// A cancelled ctx is the exception and comes back as ErrCancelled.
func QuizDraw(ctx context.Context, d *Deps) (*QuizDrawOutput, error) {
	words, err := d.Quiz.Select(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCancelled) {
			return nil, err
		}
		d.Log.WithError(err).Warn("quiz draw degraded to an empty batch")
	}
	if words == nil {
		words = []word.Entry{}
	}
	return &QuizDrawOutput{Count: len(words), Words: words}, nil
}

// QuizAnswerInput contains parameters for the QuizAnswer operation.
type QuizAnswerInput struct {
	Category string // required, key or display name
	Text     string // required
	Meaning  string // optional, looked up in history when empty
	Correct  bool
}

// QuizAnswerOutput contains the result of the QuizAnswer operation.
type QuizAnswerOutput struct {
	Word  string      `json:"word"`
	Tally store.Tally `json:"tally"`
}

// QuizAnswer records the user's answer for one quizzed word.
func QuizAnswer(ctx context.Context, d *Deps, input QuizAnswerInput) (*QuizAnswerOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("word is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, errors.NewInvalidRequest("category is required")
	}
	displayName := d.Categories.ResolveDisplayName(ctx, input.Category)

	meaning := strings.TrimSpace(input.Meaning)
	if meaning == "" {
		entries, err := d.History.List(ctx)
		if err != nil {
			return nil, errors.WrapStorage("read history", err)
		}
		e, ok := lo.Find(entries, func(e word.Entry) bool { return e.Text == text && e.Category == displayName })
		if !ok {
			return nil, errors.NewNotFound("history entry", text)
		}
		meaning = e.Meaning
	}

	tally, err := d.Quiz.RecordAnswer(ctx, word.Entry{Text: text, Meaning: meaning, Category: displayName}, input.Correct)
	if err != nil {
		return nil, err
	}
	return &QuizAnswerOutput{Word: text, Tally: tally}, nil
}

// QuizStatsOutput contains the result of the QuizStats operation.
type QuizStatsOutput struct {
	Correct   int                    `json:"correct"`
	Incorrect int                    `json:"incorrect"`
	Results   map[string]store.Tally `json:"results"`
	Exposure  map[string]int         `json:"exposure"`
}

// QuizStats reports answer tallies and exposure counts.
func QuizStats(ctx context.Context, d *Deps) (*QuizStatsOutput, error) {
	results, err := d.Quiz.Results(ctx)
	if err != nil {
		return nil, err
	}
	exposure, err := d.Quiz.Exposure(ctx)
	if err != nil {
		return nil, err
	}
	tallies := lo.Values(results)
	return &QuizStatsOutput{
		Correct:   lo.SumBy(tallies, func(t store.Tally) int { return t.Correct }),
		Incorrect: lo.SumBy(tallies, func(t store.Tally) int { return t.Incorrect }),
		Results:   lo.Ternary(results == nil, map[string]store.Tally{}, results),
		Exposure:  lo.Ternary(exposure == nil, map[string]int{}, exposure),
	}, nil
}
