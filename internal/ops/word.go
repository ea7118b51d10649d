package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/word"
)

// WordListInput contains parameters for the WordList operation.
type WordListInput struct {
	Category string // required, key or display name
	Source   string // optional filter: asset, ai or user
	Limit    int
	Offset   int
}

// WordListOutput contains the result of the WordList operation.
type WordListOutput struct {
	Category   string       `json:"category"`
	Items      []word.Entry `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// WordList pages through a category's words in stored order.
func WordList(ctx context.Context, d *Deps, input WordListInput) (*WordListOutput, error) {
	def, err := d.category(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	var source word.Source
	if s := strings.ToLower(strings.TrimSpace(input.Source)); s != "" {
		source = word.ParseSource(s)
		if source == word.SourceBundled && s != "asset" && s != "bundled" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown source %q (want asset, ai or user)", s))
		}
	}

	words, err := d.Categories.LoadWords(ctx, def.Key)
	if err != nil {
		return nil, err
	}
	if source != "" {
		words = lo.Filter(words, func(e word.Entry, _ int) bool { return e.Source == source })
	}
	items, p := page(words, input.Limit, input.Offset)
	return &WordListOutput{Category: def.DisplayName, Items: items, Pagination: p}, nil
}

// WordAddInput contains parameters for the WordAdd operation.
type WordAddInput struct {
	Category string // required, key or display name
	Text     string // required
	Meaning  string // required
}

// WordAddOutput contains the result of the WordAdd operation.
type WordAddOutput struct {
	Entry word.Entry `json:"entry"`
}

// WordAdd adds a user word to a category.
func WordAdd(ctx context.Context, d *Deps, input WordAddInput) (*WordAddOutput, error) {
	def, err := d.category(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	e, err := d.Categories.AddWord(ctx, def.Key, input.Text, input.Meaning)
	if err != nil {
		return nil, err
	}
	return &WordAddOutput{Entry: e}, nil
}

// WordDeleteInput contains parameters for the WordDelete operation.
type WordDeleteInput struct {
	Category string // required, key or display name
	Text     string // required
	Meaning  string // optional, narrows the match
}

// WordDeleteOutput contains the result of the WordDelete operation.
type WordDeleteOutput struct {
	Deleted bool       `json:"deleted"`
	Entry   word.Entry `json:"entry"`
}

// WordDelete removes a user or generated word and its history entries.
// Bundled words cannot be deleted.
func WordDelete(ctx context.Context, d *Deps, input WordDeleteInput) (*WordDeleteOutput, error) {
	text, meaning := strings.TrimSpace(input.Text), strings.TrimSpace(input.Meaning)
	if text == "" {
		return nil, errors.NewInvalidRequest("word is required")
	}
	def, err := d.category(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	words, err := d.Categories.LoadWords(ctx, def.Key)
	if err != nil {
		return nil, err
	}
	e, ok := lo.Find(words, func(w word.Entry) bool {
		return w.Text == text && (meaning == "" || w.Meaning == meaning)
	})
	if !ok {
		return nil, errors.NewNotFound("word", text)
	}
	if err := d.Categories.DeleteWord(ctx, e); err != nil {
		return nil, err
	}
	return &WordDeleteOutput{Deleted: true, Entry: e}, nil
}
