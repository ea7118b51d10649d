package ops

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/store"
	"github.com/away0419/eunoia/internal/word"
)

// ImportMode controls how line errors are handled.
type ImportMode string

const (
	ImportModeMerge  ImportMode = "merge"  // import valid lines, report bad ones
	ImportModeStrict ImportMode = "strict" // import nothing if any line is bad
)

// maxLineBytes bounds one JSONL line; a category line carries all its words.
const maxLineBytes = 16 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: merge
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	CategoriesCreated int           `json:"categories_created"`
	Words             int           `json:"words"`
	History           int           `json:"history"`
	Skipped           int           `json:"skipped"`
	Errors            []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type parsedRecord struct {
	line int
	ExportRecord
}

// Import merges an export file into the local data. Missing user categories
// are created; words and history entries already present are skipped.
func Import(ctx context.Context, d *Deps, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeMerge
	}
	if input.Mode != ImportModeMerge && input.Mode != ImportModeStrict {
		return nil, errors.NewInvalidRequest("mode must be one of: merge, strict")
	}
	if err := d.checkTransferPath(input.Path, transferRead); err != nil {
		return nil, err
	}

	file, err := store.OpenNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)
	out := &ImportOutput{Errors: []ImportError{}}
	if len(parseErrors) > 0 {
		out.Errors = append(out.Errors, parseErrors...)
		out.Skipped += len(parseErrors)
		if input.Mode == ImportModeStrict {
			return out, nil
		}
	}

	var history []parsedRecord
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("import")
		default:
		}

		if rec.Kind == RecordHistory {
			history = append(history, rec)
			continue
		}
		if err := importCategory(ctx, d, rec, out); err != nil {
			if errors.Is(err, errors.ErrStorage) || errors.Is(err, errors.ErrCancelled) {
				return nil, err
			}
			out.Errors = append(out.Errors, importError(rec.line, rec.Category.DisplayName, err))
			out.Skipped += len(rec.Words)
		}
	}

	// History is only merged for categories that exist after the word pass.
	known := lo.SliceToMap(d.Categories.ListCategories(ctx), func(def word.Definition) (string, bool) {
		return def.DisplayName, true
	})
	entries := make([]word.Entry, 0, len(history))
	for _, rec := range history {
		if !known[rec.Entry.Category] {
			out.Errors = append(out.Errors, ImportError{
				Line:    rec.line,
				Name:    rec.Entry.Text,
				Code:    string(errors.ErrNotFound),
				Message: fmt.Sprintf("category %q does not exist", rec.Entry.Category),
			})
			out.Skipped++
			continue
		}
		entries = append(entries, *rec.Entry)
	}
	added, err := d.History.Merge(ctx, entries)
	if err != nil {
		return nil, errors.WrapStorage("merge history", err)
	}
	out.History = added
	out.Skipped += len(entries) - added

	d.Log.WithField("path", input.Path).WithField("words", out.Words).WithField("history", out.History).Info("import finished")
	return out, nil
}

func importCategory(ctx context.Context, d *Deps, rec parsedRecord, out *ImportOutput) error {
	src := *rec.Category
	var (
		def word.Definition
		ok  bool
	)
	if src.BuiltIn {
		def, ok = lo.Find(d.Categories.ListCategories(ctx), func(c word.Definition) bool { return c.BuiltIn && c.Key == src.Key })
		if !ok {
			return errors.NewNotFound("category", src.Key)
		}
	} else {
		def, ok = lo.Find(d.Categories.ListCategories(ctx), func(c word.Definition) bool { return c.DisplayName == src.DisplayName })
		if !ok {
			created, err := d.Categories.CreateCategory(ctx, src.DisplayName)
			if err != nil {
				return err
			}
			def = created
			out.CategoriesCreated++
		}
	}

	added, err := d.Categories.ImportWords(ctx, def.Key, rec.Words)
	if err != nil {
		return err
	}
	out.Words += len(added)
	out.Skipped += len(rec.Words) - len(added)
	return nil
}

func importError(line int, name string, err error) ImportError {
	code := string(errors.ErrInternal)
	var eErr *errors.EunoiaError
	if stderrors.As(err, &eErr) {
		code = string(eErr.Code)
	}
	return ImportError{Line: line, Name: name, Code: code, Message: err.Error()}
}

// parseExportFile parses a JSONL export into records.
func parseExportFile(r io.Reader) ([]parsedRecord, []ImportError) {
	var records []parsedRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNum := 0
	sawHeader := false

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if record.EunoiaExport {
			sawHeader = true
			continue
		}

		if msg := validateRecord(record); msg != "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}

		records = append(records, parsedRecord{line: lineNum, ExportRecord: record})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	if !sawHeader && lineNum > 0 {
		parseErrors = append(parseErrors, ImportError{
			Line:    1,
			Code:    "INVALID_RECORD",
			Message: "missing export header",
		})
	}

	return records, parseErrors
}

func validateRecord(r ExportRecord) string {
	switch r.Kind {
	case RecordCategory:
		if r.Category == nil || r.Category.DisplayName == "" {
			return "category record without a display name"
		}
	case RecordHistory:
		if r.Entry == nil || r.Entry.Text == "" {
			return "history record without a word"
		}
		if _, err := word.ParseDate(r.Entry.Date); err != nil {
			return fmt.Sprintf("history record with invalid date %q", r.Entry.Date)
		}
	default:
		return fmt.Sprintf("unknown record kind %q", r.Kind)
	}
	return ""
}
