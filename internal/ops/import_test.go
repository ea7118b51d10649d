package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/away0419/eunoia/internal/errors"
)

func writeImportFile(t *testing.T, d *Deps, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(d.ExportsDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

const testHeader = `{"_eunoia_export":true,"schema_version":"1.0","exported_at":1735689600}`

func TestImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestDeps(t)

	_, err := CategoryCreate(ctx, src, CategoryCreateInput{Name: "여행"})
	require.NoError(t, err)
	_, err = WordAdd(ctx, src, WordAddInput{Category: "여행", Text: "나그네", Meaning: "길손"})
	require.NoError(t, err)
	_, err = WordAdd(ctx, src, WordAddInput{Category: "word", Text: "그루잠", Meaning: "깼다가 다시 드는 잠"})
	require.NoError(t, err)
	_, err = Remember(ctx, src, RememberInput{Category: "여행", Text: "나그네"})
	require.NoError(t, err)
	_, err = Remember(ctx, src, RememberInput{Category: "word", Text: "윤슬", Date: "2024-12-30"})
	require.NoError(t, err)

	exported, err := Export(ctx, src, ExportInput{})
	require.NoError(t, err)

	dst := newTestDeps(t)
	data, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	path := filepath.Join(dst.ExportsDir(), "restore.jsonl")
	require.NoError(t, os.WriteFile(path, data, 0600))

	out, err := Import(ctx, dst, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Equal(t, 1, out.CategoriesCreated)
	assert.Equal(t, 2, out.Words, "only the user words are new")
	assert.Equal(t, 2, out.History)

	words, err := WordList(ctx, dst, WordListInput{Category: "여행"})
	require.NoError(t, err)
	require.Len(t, words.Items, 1)
	assert.Equal(t, "나그네", words.Items[0].Text)
	assert.Equal(t, "2025-01-01", words.Items[0].Date)

	hist, err := HistoryList(ctx, dst, HistoryListInput{})
	require.NoError(t, err)
	require.Len(t, hist.Items, 2)
	assert.Equal(t, "2025-01-01", hist.Items[0].Date)

	again, err := Import(ctx, dst, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Zero(t, again.Words)
	assert.Zero(t, again.History)
	assert.Zero(t, again.CategoriesCreated)
	assert.Equal(t, 12+10+12+12+1+2, again.Skipped)
}

func TestImport_BadLines(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	path := writeImportFile(t, d, "bad.jsonl",
		testHeader,
		`{not json`,
		`{"kind":"mystery"}`,
		`{"kind":"category","category":{"key":"trip","display_name":"여행"},"words":[{"word":"노정","meaning":"여행의 길","date":"2024-01-01","source":"user"}]}`,
		`{"kind":"history","entry":{"word":"노정","meaning":"여행의 길","category":"여행","date":"soon"}}`,
		`{"kind":"history","entry":{"word":"유령","meaning":"없음","category":"없는분류","date":"2024-01-01"}}`,
	)

	out, err := Import(ctx, d, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, out.CategoriesCreated)
	assert.Equal(t, 1, out.Words)
	assert.Zero(t, out.History)
	require.Len(t, out.Errors, 4)
	assert.Equal(t, "PARSE_ERROR", out.Errors[0].Code)
	assert.Equal(t, 2, out.Errors[0].Line)
	assert.Equal(t, "INVALID_RECORD", out.Errors[1].Code)
	assert.Equal(t, "INVALID_RECORD", out.Errors[2].Code)
	assert.Equal(t, string(errors.ErrNotFound), out.Errors[3].Code)
	assert.Equal(t, 6, out.Errors[3].Line)
}

func TestImport_StrictModeImportsNothingOnBadLine(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	path := writeImportFile(t, d, "strict.jsonl",
		testHeader,
		`{"kind":"category","category":{"key":"trip","display_name":"여행"},"words":[]}`,
		`{broken`,
	)

	out, err := Import(ctx, d, ImportInput{Path: path, Mode: ImportModeStrict})
	require.NoError(t, err)
	require.Len(t, out.Errors, 1)
	assert.Zero(t, out.CategoriesCreated)

	list, err := CategoryList(ctx, d)
	require.NoError(t, err)
	assert.Len(t, list.Items, 4)
}

func TestImport_MissingHeader(t *testing.T) {
	d := newTestDeps(t)
	path := writeImportFile(t, d, "noheader.jsonl",
		`{"kind":"category","category":{"key":"word","display_name":"단어","built_in":true},"words":[]}`,
	)

	out, err := Import(context.Background(), d, ImportInput{Path: path, Mode: ImportModeStrict})
	require.NoError(t, err)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0].Message, "header")
}

func TestImport_Rejections(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	_, err := Import(ctx, d, ImportInput{Path: filepath.Join(d.ExportsDir(), "missing.jsonl")})
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))

	_, err = Import(ctx, d, ImportInput{Path: filepath.Join(d.ExportsDir(), "x.jsonl"), Mode: "replace"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Import(ctx, d, ImportInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestParseExportFile(t *testing.T) {
	input := strings.Join([]string{
		testHeader,
		"",
		`{"kind":"history","entry":{"word":"윤슬","meaning":"물결","category":"단어","date":"2025-01-01"}}`,
		`{"kind":"history","entry":{"meaning":"빈 단어","category":"단어","date":"2025-01-01"}}`,
	}, "\n")

	records, errs := parseExportFile(strings.NewReader(input))
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].line)
	require.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].Line)
}
