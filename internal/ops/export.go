package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// Export record kinds.
const (
	RecordCategory = "category"
	RecordHistory  = "history"
)

// ExportSchemaVersion is written to every export header.
const ExportSchemaVersion = "1.0"

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	EunoiaExport  bool   `json:"_eunoia_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportRecord is one non-header line: a category with its words, or one
// history entry.
type ExportRecord struct {
	EunoiaExport bool             `json:"_eunoia_export,omitempty"`
	Kind         string           `json:"kind,omitempty"`
	Category     *word.Definition `json:"category,omitempty"`
	Words        []word.Entry     `json:"words,omitempty"`
	Entry        *word.Entry      `json:"entry,omitempty"`
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path     string // optional, default: <base>/exports/<category|all>-<timestamp>.jsonl
	Category string // optional key or display name filter
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Categories int    `json:"categories"`
	Words      int    `json:"words"`
	History    int    `json:"history"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes category records and history to a JSONL file. The file is
// replaced atomically, so an existing export survives a failed run.
func Export(ctx context.Context, d *Deps, input ExportInput) (*ExportOutput, error) {
	now := d.now()
	exportedAt := now.Unix()

	defs := d.Categories.ListCategories(ctx)
	name := "all"
	if input.Category != "" {
		def, err := d.category(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		defs = []word.Definition{def}
		name = def.Key
	}

	// Default names are safe because category keys are slugs.
	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(d.ExportsDir(), fmt.Sprintf("%s-%s.jsonl", name, now.Format("2006-01-02T150405")))
	}
	if err := d.checkTransferPath(exportPath, transferWrite); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ExportHeader{EunoiaExport: true, SchemaVersion: ExportSchemaVersion, ExportedAt: exportedAt}); err != nil {
		return nil, errors.NewInternal(err)
	}

	out := &ExportOutput{Path: exportPath, ExportedAt: exportedAt}
	for _, def := range defs {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}

		words, err := d.Categories.LoadWords(ctx, def.Key)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(ExportRecord{Kind: RecordCategory, Category: &def, Words: words}); err != nil {
			return nil, errors.NewInternal(err)
		}
		out.Categories++
		out.Words += len(words)
	}

	entries, err := d.History.List(ctx)
	if err != nil {
		return nil, errors.WrapStorage("read history", err)
	}
	names := lo.SliceToMap(defs, func(def word.Definition) (string, bool) { return def.DisplayName, true })
	for _, e := range entries {
		if !names[e.Category] {
			continue
		}
		if err := enc.Encode(ExportRecord{Kind: RecordHistory, Entry: &e}); err != nil {
			return nil, errors.NewInternal(err)
		}
		out.History++
	}

	if err := store.WriteFileAtomic(exportPath, buf.Bytes()); err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
	}

	d.Log.WithField("path", exportPath).WithField("categories", out.Categories).Info("export written")
	return out, nil
}
