package ops

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/away0419/eunoia/internal/config"
	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/generate"
	"github.com/away0419/eunoia/internal/logging"
	"github.com/away0419/eunoia/internal/word"
)

// 2025-01-01 is day 1, so each bundled category contributes entries 5..9.
var fixedNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)

func newTestDeps(t *testing.T, opts ...Option) *Deps {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.FetchIntervalSeconds = 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	d, err := Open(t.TempDir(), cfg, logging.Discard(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

type fakeGenerator struct {
	calls []string
}

func (g *fakeGenerator) Generate(_ context.Context, category string, _ []string) ([]word.Pair, error) {
	g.calls = append(g.calls, category)
	n := len(g.calls)
	return []word.Pair{
		{Text: category + " 새말 " + string(rune('A'+n)), Meaning: "생성된 뜻"},
	}, nil
}

func TestOpen_CreatesLayout(t *testing.T) {
	d := newTestDeps(t)
	assert.DirExists(t, d.ExportsDir())
	assert.NotNil(t, d.Fetcher)
}

func TestToday(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	out, err := Today(ctx, d, TodayInput{})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", out.Date)
	assert.Equal(t, 20, out.Count)
	assert.Equal(t, "금상첨화", out.Words[0].Text)
	for _, e := range out.Words {
		assert.Equal(t, "2025-01-01", e.Date)
	}

	out, err = Today(ctx, d, TodayInput{Category: "단어"})
	require.NoError(t, err)
	require.Len(t, out.Words, 5)
	assert.True(t, lo.EveryBy(out.Words, func(e word.Entry) bool { return e.Category == "단어" }))

	_, err = Today(ctx, d, TodayInput{Date: "2025/01/01"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Today(ctx, d, TodayInput{Category: "없는분류"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestToday_SameIDsAfterReopen(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	cfg := config.DefaultConfig()
	clock := WithClock(func() time.Time { return fixedNow })

	ids := func() []string {
		d, err := Open(base, cfg, logging.Discard(), clock)
		require.NoError(t, err)
		defer d.Close()
		out, err := Today(ctx, d, TodayInput{})
		require.NoError(t, err)
		return lo.Map(out.Words, func(e word.Entry, _ int) string { return e.ID })
	}

	first := ids()
	require.Len(t, first, 20)
	assert.Equal(t, first, ids())
}

func TestToday_GeneratedWordsComeFirst(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	d := newTestDeps(t, WithGenerator(gen))

	_, err := Fetch(ctx, d, FetchInput{})
	require.NoError(t, err)

	out, err := Today(ctx, d, TodayInput{Category: "word"})
	require.NoError(t, err)
	require.Len(t, out.Words, 5)
	assert.Equal(t, word.SourceGenerated, out.Words[0].Source)
	assert.Equal(t, word.SourceBundled, out.Words[1].Source)
}

func TestRememberForgetHistory(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	_, err := Remember(ctx, d, RememberInput{Category: "단어", Text: "미쁘다", Date: "2024-12-31"})
	require.NoError(t, err)

	r, err := Remember(ctx, d, RememberInput{Category: "word", Text: "윤슬"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", r.Entry.Date)
	assert.Equal(t, "단어", r.Entry.Category)
	assert.NotEmpty(t, r.Entry.Meaning)

	list, err := HistoryList(ctx, d, HistoryListInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "윤슬", list.Items[0].Text)
	assert.Equal(t, 2, list.Pagination.Total)
	assert.False(t, list.Pagination.HasMore)

	list, err = HistoryList(ctx, d, HistoryListInput{Date: "2024-12-31"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "미쁘다", list.Items[0].Text)

	list, err = HistoryList(ctx, d, HistoryListInput{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.True(t, list.Pagination.HasMore)

	f, err := Forget(ctx, d, ForgetInput{Category: "word", Text: "윤슬"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Removed)

	_, err = Forget(ctx, d, ForgetInput{Category: "word", Text: "윤슬"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRemember_Rejections(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	_, err := Remember(ctx, d, RememberInput{Category: "word", Text: "없는말"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Remember(ctx, d, RememberInput{Category: "word", Text: " "})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Remember(ctx, d, RememberInput{Category: "word", Text: "윤슬", Date: "어제"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Remember(ctx, d, RememberInput{Text: "윤슬"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestQuizDrawAnswerStats(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	empty, err := QuizDraw(ctx, d)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.Words)

	for _, w := range []string{"윤슬", "미쁘다", "시나브로"} {
		_, err := Remember(ctx, d, RememberInput{Category: "word", Text: w})
		require.NoError(t, err)
	}

	batch, err := QuizDraw(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, 30, batch.Count)

	ans, err := QuizAnswer(ctx, d, QuizAnswerInput{Category: "word", Text: "윤슬", Correct: true})
	require.NoError(t, err)
	assert.Equal(t, 1, ans.Tally.Correct)
	assert.Equal(t, "2025-01-01", ans.Tally.LastAnswered)

	_, err = QuizAnswer(ctx, d, QuizAnswerInput{Category: "word", Text: "미쁘다"})
	require.NoError(t, err)

	_, err = QuizAnswer(ctx, d, QuizAnswerInput{Category: "word", Text: "여우비"})
	assert.True(t, errors.Is(err, errors.ErrNotFound), "not in history")

	stats, err := QuizStats(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Correct)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 30, lo.Sum(lo.Values(stats.Exposure)))
}

func TestQuizDraw_CancelledContext(t *testing.T) {
	d := newTestDeps(t)
	_, err := Remember(context.Background(), d, RememberInput{Category: "word", Text: "윤슬"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = QuizDraw(ctx, d)
	assert.True(t, errors.Is(err, errors.ErrCancelled), "got %v", err)

	exposure, err := d.Quiz.Exposure(context.Background())
	require.NoError(t, err)
	assert.Empty(t, exposure)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	list, err := CategoryList(ctx, d)
	require.NoError(t, err)
	require.Len(t, list.Items, 4)
	assert.Equal(t, "idiom", list.Items[0].Key)
	assert.Equal(t, 12, list.Items[0].WordCount)
	assert.Equal(t, 10, list.Items[1].WordCount)

	created, err := CategoryCreate(ctx, d, CategoryCreateInput{Name: "여행"})
	require.NoError(t, err)
	assert.Equal(t, "여행", created.Category.Key)
	assert.False(t, created.Category.BuiltIn)

	_, err = CategoryCreate(ctx, d, CategoryCreateInput{Name: "여행"})
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	added, err := WordAdd(ctx, d, WordAddInput{Category: "여행", Text: "나그네", Meaning: "길손"})
	require.NoError(t, err)
	assert.Equal(t, word.SourceUserAdded, added.Entry.Source)

	words, err := WordList(ctx, d, WordListInput{Category: "여행"})
	require.NoError(t, err)
	assert.Len(t, words.Items, 1)

	_, err = Remember(ctx, d, RememberInput{Category: "여행", Text: "나그네"})
	require.NoError(t, err)

	del, err := CategoryDelete(ctx, d, CategoryDeleteInput{Category: "여행"})
	require.NoError(t, err)
	assert.True(t, del.Deleted)

	hist, err := HistoryList(ctx, d, HistoryListInput{})
	require.NoError(t, err)
	assert.Empty(t, hist.Items)

	_, err = CategoryDelete(ctx, d, CategoryDeleteInput{Category: "word"})
	assert.True(t, errors.Is(err, errors.ErrBuiltIn))

	list, err = CategoryList(ctx, d)
	require.NoError(t, err)
	assert.Len(t, list.Items, 4)
}

func TestWordList_SourceFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	_, err := WordAdd(ctx, d, WordAddInput{Category: "word", Text: "그루잠", Meaning: "깼다가 다시 드는 잠"})
	require.NoError(t, err)

	out, err := WordList(ctx, d, WordListInput{Category: "word", Source: "user"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "그루잠", out.Items[0].Text)

	out, err = WordList(ctx, d, WordListInput{Category: "word", Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 12, out.Pagination.Total)

	_, err = WordList(ctx, d, WordListInput{Category: "word", Source: "robot"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestWordDelete(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)

	_, err := WordDelete(ctx, d, WordDeleteInput{Category: "word", Text: "윤슬"})
	assert.True(t, errors.Is(err, errors.ErrBuiltIn))

	_, err = WordAdd(ctx, d, WordAddInput{Category: "word", Text: "그루잠", Meaning: "깼다가 다시 드는 잠"})
	require.NoError(t, err)
	_, err = Remember(ctx, d, RememberInput{Category: "word", Text: "그루잠"})
	require.NoError(t, err)

	out, err := WordDelete(ctx, d, WordDeleteInput{Category: "단어", Text: "그루잠"})
	require.NoError(t, err)
	assert.True(t, out.Deleted)

	hist, err := HistoryList(ctx, d, HistoryListInput{})
	require.NoError(t, err)
	assert.Empty(t, hist.Items)

	_, err = WordDelete(ctx, d, WordDeleteInput{Category: "word", Text: "그루잠"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("no generator", func(t *testing.T) {
		d := newTestDeps(t)
		res, err := Fetch(ctx, d, FetchInput{})
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Equal(t, generate.ReasonNoGenerator, res.Reason)
	})

	t.Run("once per day unless forced", func(t *testing.T) {
		gen := &fakeGenerator{}
		d := newTestDeps(t, WithGenerator(gen))

		res, err := Fetch(ctx, d, FetchInput{})
		require.NoError(t, err)
		require.Len(t, res.Categories, 4)
		assert.Equal(t, 4, lo.SumBy(res.Categories, func(o generate.Outcome) int { return o.Added }))

		res, err = Fetch(ctx, d, FetchInput{})
		require.NoError(t, err)
		assert.Equal(t, generate.ReasonAlreadyToday, res.Reason)

		res, err = Fetch(ctx, d, FetchInput{Force: true})
		require.NoError(t, err)
		assert.False(t, res.Skipped)
		assert.Len(t, gen.calls, 8)

		words, err := WordList(ctx, d, WordListInput{Category: "english", Source: "ai", Limit: MaxListLimit})
		require.NoError(t, err)
		assert.Len(t, words.Items, 2)
		assert.True(t, strings.HasPrefix(words.Items[0].Text, "영어"))
	})
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got, p := page(items, 2, 4)
	assert.Equal(t, []int{5}, got)
	assert.False(t, p.HasMore)

	got, p = page(items, 0, -3)
	assert.Equal(t, items, got)
	assert.Equal(t, DefaultListLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)

	got, p = page(items, 1000, 9)
	assert.Empty(t, got)
	assert.Equal(t, MaxListLimit, p.Limit)
}
