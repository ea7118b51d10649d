package ops

import (
	"context"

	"github.com/away0419/eunoia/internal/word"
)

// CategoryItem is a category with its current word count.
type CategoryItem struct {
	word.Definition
	WordCount int `json:"word_count"`
}

// CategoryListOutput contains the result of the CategoryList operation.
type CategoryListOutput struct {
	Items []CategoryItem `json:"items"`
}

// CategoryList returns built-in categories followed by user categories. A
// category whose words cannot be read is listed with a count of zero.
func CategoryList(ctx context.Context, d *Deps) (*CategoryListOutput, error) {
	defs := d.Categories.ListCategories(ctx)
	items := make([]CategoryItem, 0, len(defs))
	for _, def := range defs {
		words, err := d.Categories.LoadWords(ctx, def.Key)
		if err != nil {
			d.Log.WithError(err).WithField("category", def.Key).Warn("word count unavailable")
		}
		items = append(items, CategoryItem{Definition: def, WordCount: len(words)})
	}
	return &CategoryListOutput{Items: items}, nil
}

// CategoryCreateInput contains parameters for the CategoryCreate operation.
type CategoryCreateInput struct {
	Name string // required display name
}

// CategoryCreateOutput contains the result of the CategoryCreate operation.
type CategoryCreateOutput struct {
	Category word.Definition `json:"category"`
}

// CategoryCreate adds a user category.
func CategoryCreate(ctx context.Context, d *Deps, input CategoryCreateInput) (*CategoryCreateOutput, error) {
	def, err := d.Categories.CreateCategory(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return &CategoryCreateOutput{Category: def}, nil
}

// CategoryDeleteInput contains parameters for the CategoryDelete operation.
type CategoryDeleteInput struct {
	Category string // required, key or display name
}

// CategoryDeleteOutput contains the result of the CategoryDelete operation.
type CategoryDeleteOutput struct {
	Deleted  bool   `json:"deleted"`
	Key      string `json:"key"`
	Category string `json:"category"`
}

// CategoryDelete removes a user category with its words and history.
func CategoryDelete(ctx context.Context, d *Deps, input CategoryDeleteInput) (*CategoryDeleteOutput, error) {
	def, err := d.category(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	if err := d.Categories.DeleteCategory(ctx, def.Key); err != nil {
		return nil, err
	}
	return &CategoryDeleteOutput{Deleted: true, Key: def.Key, Category: def.DisplayName}, nil
}
