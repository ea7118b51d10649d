package ops

import (
	"context"

	"github.com/away0419/eunoia/internal/generate"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	Force bool // run even if today's fetch already completed
}

// Fetch asks the AI collaborator for new words for every category.
func Fetch(ctx context.Context, d *Deps, input FetchInput) (*generate.Result, error) {
	return d.Fetcher.Run(ctx, input.Force)
}
