package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps *ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *ops.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Request types for each tool

// TodayRequest represents the arguments for today_get.
type TodayRequest struct {
	Date     string `json:"date,omitempty"`
	Category string `json:"category,omitempty"`
}

// QuizAnswerRequest represents the arguments for quiz_answer.
type QuizAnswerRequest struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Meaning  string `json:"meaning,omitempty"`
	Correct  *bool  `json:"correct"`
}

// HistoryListRequest represents the arguments for history_list.
type HistoryListRequest struct {
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// RememberRequest represents the arguments for history_remember.
type RememberRequest struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Date     string `json:"date,omitempty"`
}

// ForgetRequest represents the arguments for history_forget.
type ForgetRequest struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Meaning  string `json:"meaning,omitempty"`
	Date     string `json:"date,omitempty"`
}

// CategoryCreateRequest represents the arguments for category_create.
type CategoryCreateRequest struct {
	Name string `json:"name"`
}

// CategoryRequest represents the arguments for tools addressing one category.
type CategoryRequest struct {
	Category string `json:"category"`
}

// WordListRequest represents the arguments for word_list.
type WordListRequest struct {
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// WordRequest represents the arguments for word_add and word_delete.
type WordRequest struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Meaning  string `json:"meaning,omitempty"`
}

// FetchRequest represents the arguments for fetch_run.
type FetchRequest struct {
	Force bool `json:"force,omitempty"`
}

// ExportRequest represents the arguments for data_export.
type ExportRequest struct {
	Path     string `json:"path,omitempty"`
	Category string `json:"category,omitempty"`
}

// ImportRequest represents the arguments for data_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleToday handles the today_get tool call.
func (h *Handlers) HandleToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TodayRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Today(ctx, h.deps, ops.TodayInput{Date: input.Date, Category: input.Category}))
}

// HandleQuizDraw handles the quiz_draw tool call.
func (h *Handlers) HandleQuizDraw(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.QuizDraw(ctx, h.deps))
}

// HandleQuizAnswer handles the quiz_answer tool call.
func (h *Handlers) HandleQuizAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuizAnswerRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Correct == nil {
		return errorResult(errors.NewInvalidRequest("correct is required")), nil
	}
	return respond(ops.QuizAnswer(ctx, h.deps, ops.QuizAnswerInput{
		Category: input.Category,
		Text:     input.Word,
		Meaning:  input.Meaning,
		Correct:  *input.Correct,
	}))
}

// HandleQuizStats handles the quiz_stats tool call.
func (h *Handlers) HandleQuizStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.QuizStats(ctx, h.deps))
}

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.HistoryList(ctx, h.deps, ops.HistoryListInput{
		Category: input.Category,
		Date:     input.Date,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}))
}

// HandleRemember handles the history_remember tool call.
func (h *Handlers) HandleRemember(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RememberRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Remember(ctx, h.deps, ops.RememberInput{
		Category: input.Category,
		Text:     input.Word,
		Date:     input.Date,
	}))
}

// HandleForget handles the history_forget tool call.
func (h *Handlers) HandleForget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ForgetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Forget(ctx, h.deps, ops.ForgetInput{
		Category: input.Category,
		Text:     input.Word,
		Meaning:  input.Meaning,
		Date:     input.Date,
	}))
}

// HandleCategoryList handles the category_list tool call.
func (h *Handlers) HandleCategoryList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.CategoryList(ctx, h.deps))
}

// HandleCategoryCreate handles the category_create tool call.
func (h *Handlers) HandleCategoryCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryCreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.CategoryCreate(ctx, h.deps, ops.CategoryCreateInput{Name: input.Name}))
}

// HandleCategoryDelete handles the category_delete tool call.
func (h *Handlers) HandleCategoryDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.CategoryDelete(ctx, h.deps, ops.CategoryDeleteInput{Category: input.Category}))
}

// HandleWordList handles the word_list tool call.
func (h *Handlers) HandleWordList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WordListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.WordList(ctx, h.deps, ops.WordListInput{
		Category: input.Category,
		Source:   input.Source,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}))
}

// HandleWordAdd handles the word_add tool call.
func (h *Handlers) HandleWordAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WordRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.WordAdd(ctx, h.deps, ops.WordAddInput{
		Category: input.Category,
		Text:     input.Word,
		Meaning:  input.Meaning,
	}))
}

// HandleWordDelete handles the word_delete tool call.
func (h *Handlers) HandleWordDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WordRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.WordDelete(ctx, h.deps, ops.WordDeleteInput{
		Category: input.Category,
		Text:     input.Word,
		Meaning:  input.Meaning,
	}))
}

// HandleFetch handles the fetch_run tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Fetch(ctx, h.deps, ops.FetchInput{Force: input.Force}))
}

// HandleExport handles the data_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Export(ctx, h.deps, ops.ExportInput{Path: input.Path, Category: input.Category}))
}

// HandleImport handles the data_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Import(ctx, h.deps, ops.ImportInput{Path: input.Path, Mode: ops.ImportMode(input.Mode)}))
}

// Result helpers

// respond turns an operation's (output, error) pair into a tool result.
func respond[T any](out T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed, so file paths and SQL errors stay private.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var eErr *errors.EunoiaError
	if stderrors.As(err, &eErr) {
		msg := eErr.Message
		switch {
		case eErr.Code == errors.ErrInternal:
			msg = "an internal error occurred"
		case err != error(eErr):
			// keep the wrapper's context
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    eErr.Code,
			"message": msg,
			"status":  eErr.Status,
		}
		if eErr.Code != errors.ErrInternal && eErr.Details != nil {
			errorObj["details"] = eErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
