package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/away0419/eunoia/internal/config"
	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/logging"
	"github.com/away0419/eunoia/internal/ops"
)

// testSetup opens a fresh data directory for one test.
func testSetup(t *testing.T, mutate ...func(*config.Config)) *ops.Deps {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	deps, err := ops.Open(t.TempDir(), cfg, logging.Discard(),
		ops.WithClock(func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local) }))
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close() })
	return deps
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleToday(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, err := h.HandleToday(context.Background(), makeRequest(map[string]any{"category": "idiom"}))
	require.NoError(t, err)
	output := parseOutput(t, result)
	assert.Equal(t, "2025-03-01", output["date"])
	assert.EqualValues(t, 5, output["count"])

	result, err = h.HandleToday(context.Background(), makeRequest(map[string]any{"date": "tomorrow"}))
	require.NoError(t, err)
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleToday_UnknownArgument(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, err := h.HandleToday(context.Background(), makeRequest(map[string]any{"categroy": "idiom"}))
	require.NoError(t, err)
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleRememberAndQuiz(t *testing.T) {
	ctx := context.Background()
	h := NewHandlers(testSetup(t))

	result, err := h.HandleRemember(ctx, makeRequest(map[string]any{"category": "단어", "word": "윤슬"}))
	require.NoError(t, err)
	entry := parseOutput(t, result)["entry"].(map[string]any)
	assert.Equal(t, "2025-03-01", entry["date"])

	result, err = h.HandleQuizDraw(ctx, makeRequest(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 30, parseOutput(t, result)["count"])

	result, err = h.HandleQuizAnswer(ctx, makeRequest(map[string]any{"category": "word", "word": "윤슬"}))
	require.NoError(t, err)
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))

	result, err = h.HandleQuizAnswer(ctx, makeRequest(map[string]any{"category": "word", "word": "윤슬", "correct": true}))
	require.NoError(t, err)
	tally := parseOutput(t, result)["tally"].(map[string]any)
	assert.EqualValues(t, 1, tally["correct"])

	result, err = h.HandleQuizStats(ctx, makeRequest(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, parseOutput(t, result)["correct"])

	result, err = h.HandleHistoryList(ctx, makeRequest(map[string]any{"limit": 10}))
	require.NoError(t, err)
	assert.Len(t, parseOutput(t, result)["items"], 1)

	result, err = h.HandleForget(ctx, makeRequest(map[string]any{"category": "word", "word": "윤슬"}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, parseOutput(t, result)["removed"])
}

func TestHandleCategoryAndWords(t *testing.T) {
	ctx := context.Background()
	h := NewHandlers(testSetup(t))

	result, err := h.HandleCategoryCreate(ctx, makeRequest(map[string]any{"name": "여행"}))
	require.NoError(t, err)
	category := parseOutput(t, result)["category"].(map[string]any)
	assert.Equal(t, "여행", category["display_name"])

	result, err = h.HandleCategoryCreate(ctx, makeRequest(map[string]any{"name": "여행"}))
	require.NoError(t, err)
	assertErrorCode(t, result, string(errors.ErrAlreadyExists))

	result, err = h.HandleWordAdd(ctx, makeRequest(map[string]any{"category": "여행", "word": "나그네", "meaning": "길손"}))
	require.NoError(t, err)
	parseOutput(t, result)

	result, err = h.HandleWordList(ctx, makeRequest(map[string]any{"category": "여행"}))
	require.NoError(t, err)
	assert.Len(t, parseOutput(t, result)["items"], 1)

	result, err = h.HandleWordDelete(ctx, makeRequest(map[string]any{"category": "word", "word": "윤슬"}))
	require.NoError(t, err)
	assertErrorCode(t, result, string(errors.ErrBuiltIn))

	result, err = h.HandleWordDelete(ctx, makeRequest(map[string]any{"category": "여행", "word": "나그네"}))
	require.NoError(t, err)
	assert.Equal(t, true, parseOutput(t, result)["deleted"])

	result, err = h.HandleCategoryList(ctx, makeRequest(nil))
	require.NoError(t, err)
	assert.Len(t, parseOutput(t, result)["items"], 5)

	result, err = h.HandleCategoryDelete(ctx, makeRequest(map[string]any{"category": "여행"}))
	require.NoError(t, err)
	assert.Equal(t, true, parseOutput(t, result)["deleted"])

	result, err = h.HandleCategoryDelete(ctx, makeRequest(map[string]any{"category": "idiom"}))
	require.NoError(t, err)
	assertErrorCode(t, result, string(errors.ErrBuiltIn))
}

func TestHandleFetch_NoAPIKey(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, err := h.HandleFetch(context.Background(), makeRequest(map[string]any{"force": true}))
	require.NoError(t, err)
	output := parseOutput(t, result)
	assert.Equal(t, true, output["skipped"])
}

func TestHandleExportImport(t *testing.T) {
	ctx := context.Background()
	deps := testSetup(t)
	h := NewHandlers(deps)

	_, err := h.HandleRemember(ctx, makeRequest(map[string]any{"category": "word", "word": "여우비"}))
	require.NoError(t, err)

	path := filepath.Join(deps.ExportsDir(), "backup.jsonl")
	result, err := h.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	require.NoError(t, err)
	output := parseOutput(t, result)
	assert.Equal(t, path, output["path"])
	assert.EqualValues(t, 1, output["history"])

	result, err = h.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	require.NoError(t, err)
	output = parseOutput(t, result)
	assert.EqualValues(t, 0, output["words"])
	assert.EqualValues(t, 0, output["history"])

	result, err = h.HandleImport(ctx, makeRequest(map[string]any{"path": "/etc/passwd.jsonl"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServerRegistration(t *testing.T) {
	s := NewServer(testSetup(t), "test")
	tools := s.ListTools()
	require.NotNil(t, tools)

	assert.Len(t, tools, len(toolRegistry))
	for _, name := range AllToolNames() {
		assert.Contains(t, tools, name)
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	deps := testSetup(t, func(c *config.Config) {
		c.DisabledTools = []string{"data_import", "category_delete", "category_delete"}
	})
	tools := NewServer(deps, "test").ListTools()

	assert.Len(t, tools, len(toolRegistry)-2)
	assert.NotContains(t, tools, "data_import")
	assert.NotContains(t, tools, "category_delete")
	assert.Contains(t, tools, "today_get")
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	deps := testSetup(t, func(c *config.Config) {
		c.DisabledTypes = []string{"quiz"}
	})
	tools := NewServer(deps, "test").ListTools()

	for name := range tools {
		assert.NotEqual(t, "quiz", GetTypeForTool(name))
	}
	assert.Len(t, tools, len(toolRegistry)-3)
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	deps := testSetup(t, func(c *config.Config) {
		c.DisabledTools = AllToolNames()
	})
	assert.Empty(t, NewServer(deps, "test").ListTools())
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"quiz_draw", "data_import"}, 0},
		{"one unknown", []string{"quiz_draw", "fake_tool"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ValidateDisabledTools(tt.input), tt.wantLen)
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	assert.Empty(t, ValidateDisabledTypes([]string{"quiz", "data"}))
	assert.Equal(t, []string{"notes"}, ValidateDisabledTypes([]string{"word", "notes"}))
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	assert.Len(t, names, 16)
	assert.Empty(t, ValidateDisabledTools(names))
	assert.Empty(t, ValidateDisabledTypes(ExpandTypes(names)))
}

// ExpandTypes maps tool names to their types.
func ExpandTypes(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = GetTypeForTool(n)
	}
	return out
}

func TestGetTypeForTool(t *testing.T) {
	assert.Equal(t, "quiz", GetTypeForTool("quiz_draw"))
	assert.Equal(t, "history", GetTypeForTool("history_remember"))
	assert.Equal(t, "", GetTypeForTool("nounderscore"))
	assert.ElementsMatch(t, []string{"word_add", "word_delete", "word_list"}, ExpandTypesToTools([]string{"word"}))
	assert.Nil(t, ExpandTypesToTools(nil))
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	require.True(t, r.IsError)

	errObj := errorObject(t, r)
	assert.Equal(t, string(errors.ErrInternal), errObj["code"])
	assert.NotContains(t, errObj, "details")
	assert.NotContains(t, errObj["message"], "secret.db")
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	r := errorResult(fmt.Errorf("category 3: %w", errors.NewNotFound("category", "trip")))
	require.True(t, r.IsError)

	errObj := errorObject(t, r)
	assert.Equal(t, string(errors.ErrNotFound), errObj["code"])
	assert.True(t, strings.Contains(errObj["message"].(string), "category 3"))
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("category", "trip"))

	errObj := errorObject(t, r)
	assert.Equal(t, string(errors.ErrNotFound), errObj["code"])
	assert.Contains(t, errObj, "details")
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	assert.Equal(t, "INTERNAL", errObj["code"])
	assert.Equal(t, "an internal error occurred", errObj["message"])
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "expected success, got error: %s", extractErrorMessage(result))
	var output map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output))
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload))
	errObj, ok := payload["error"].(map[string]any)
	require.True(t, ok, "no error object in payload")
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	require.True(t, result.IsError, "expected error result, got: %s", extractErrorMessage(result))
	assert.Equal(t, expectedCode, errorObject(t, result)["code"])
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
