package web

import (
	"net/http"
	"strconv"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/mcp"
	"github.com/away0419/eunoia/internal/ops"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	deps    *ops.Deps
	version string
}

// HandleIndex handles GET /: service name and version.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"name":    "eunoia",
		"version": h.version,
	})
}

// HandleToday handles GET /api/today: the day's working set.
func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.Today(r.Context(), h.deps, ops.TodayInput{
		Date:     q.Get("date"),
		Category: q.Get("category"),
	})
	respond(w, http.StatusOK, out, err)
}

// HandleQuizDraw handles GET /api/quiz: draw a quiz batch.
func (h *Handlers) HandleQuizDraw(w http.ResponseWriter, r *http.Request) {
	out, err := ops.QuizDraw(r.Context(), h.deps)
	respond(w, http.StatusOK, out, err)
}

// HandleQuizAnswer handles POST /api/quiz/answers.
func (h *Handlers) HandleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var body mcp.QuizAnswerRequest
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	if body.Correct == nil {
		renderError(w, errors.NewInvalidRequest("correct is required"))
		return
	}
	out, err := ops.QuizAnswer(r.Context(), h.deps, ops.QuizAnswerInput{
		Category: body.Category,
		Text:     body.Word,
		Meaning:  body.Meaning,
		Correct:  *body.Correct,
	})
	respond(w, http.StatusOK, out, err)
}

// HandleQuizStats handles GET /api/quiz/stats.
func (h *Handlers) HandleQuizStats(w http.ResponseWriter, r *http.Request) {
	out, err := ops.QuizStats(r.Context(), h.deps)
	respond(w, http.StatusOK, out, err)
}

// HandleHistoryList handles GET /api/history.
func (h *Handlers) HandleHistoryList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.HistoryList(r.Context(), h.deps, ops.HistoryListInput{
		Category: q.Get("category"),
		Date:     q.Get("date"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	respond(w, http.StatusOK, out, err)
}

// HandleRemember handles POST /api/history: record a word as seen.
func (h *Handlers) HandleRemember(w http.ResponseWriter, r *http.Request) {
	var body mcp.RememberRequest
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	out, err := ops.Remember(r.Context(), h.deps, ops.RememberInput{
		Category: body.Category,
		Text:     body.Word,
		Date:     body.Date,
	})
	respond(w, http.StatusCreated, out, err)
}

// HandleForget handles DELETE /api/history?category=&word=&meaning=&date=.
func (h *Handlers) HandleForget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.Forget(r.Context(), h.deps, ops.ForgetInput{
		Category: q.Get("category"),
		Text:     q.Get("word"),
		Meaning:  q.Get("meaning"),
		Date:     q.Get("date"),
	})
	respond(w, http.StatusOK, out, err)
}

// HandleCategoryList handles GET /api/categories.
func (h *Handlers) HandleCategoryList(w http.ResponseWriter, r *http.Request) {
	out, err := ops.CategoryList(r.Context(), h.deps)
	respond(w, http.StatusOK, out, err)
}

// HandleCategoryCreate handles POST /api/categories.
func (h *Handlers) HandleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	var body mcp.CategoryCreateRequest
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	out, err := ops.CategoryCreate(r.Context(), h.deps, ops.CategoryCreateInput{Name: body.Name})
	respond(w, http.StatusCreated, out, err)
}

// HandleCategoryDelete handles DELETE /api/categories/{category}.
func (h *Handlers) HandleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	out, err := ops.CategoryDelete(r.Context(), h.deps, ops.CategoryDeleteInput{
		Category: r.PathValue("category"),
	})
	respond(w, http.StatusOK, out, err)
}

// HandleWordList handles GET /api/categories/{category}/words.
func (h *Handlers) HandleWordList(w http.ResponseWriter, r *http.Request) {
	out, err := ops.WordList(r.Context(), h.deps, ops.WordListInput{
		Category: r.PathValue("category"),
		Source:   r.URL.Query().Get("source"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	respond(w, http.StatusOK, out, err)
}

// wordBody is the POST body for adding a word; the category comes from the path.
type wordBody struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
}

// HandleWordAdd handles POST /api/categories/{category}/words.
func (h *Handlers) HandleWordAdd(w http.ResponseWriter, r *http.Request) {
	var body wordBody
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	out, err := ops.WordAdd(r.Context(), h.deps, ops.WordAddInput{
		Category: r.PathValue("category"),
		Text:     body.Word,
		Meaning:  body.Meaning,
	})
	respond(w, http.StatusCreated, out, err)
}

// HandleWordDelete handles DELETE /api/categories/{category}/words/{word}.
func (h *Handlers) HandleWordDelete(w http.ResponseWriter, r *http.Request) {
	out, err := ops.WordDelete(r.Context(), h.deps, ops.WordDeleteInput{
		Category: r.PathValue("category"),
		Text:     r.PathValue("word"),
		Meaning:  r.URL.Query().Get("meaning"),
	})
	respond(w, http.StatusOK, out, err)
}

// HandleFetch handles POST /api/fetch?force=true.
func (h *Handlers) HandleFetch(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Fetch(r.Context(), h.deps, ops.FetchInput{Force: parseBoolParam(r, "force")})
	respond(w, http.StatusOK, out, err)
}

// HandleExport handles POST /api/export.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var body mcp.ExportRequest
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	out, err := ops.Export(r.Context(), h.deps, ops.ExportInput{Path: body.Path, Category: body.Category})
	respond(w, http.StatusOK, out, err)
}

// HandleImport handles POST /api/import.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	var body mcp.ImportRequest
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	out, err := ops.Import(r.Context(), h.deps, ops.ImportInput{Path: body.Path, Mode: ops.ImportMode(body.Mode)})
	respond(w, http.StatusOK, out, err)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
