package mcp

import "github.com/mark3labs/mcp-go/mcp"

var todayToolDef = mcp.NewTool("today_get",
	mcp.WithDescription("Get the day's words: freshly generated first, then user-added, then a rotating slice of the bundled vocabulary, five per category."),
	mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default: today)")),
	mcp.WithString("category", mcp.Description("Only this category (key or display name)")),
)

var quizDrawToolDef = mcp.NewTool("quiz_draw",
	mcp.WithDescription("Draw a batch of 30 quiz words from the history, weighted toward recent days and toward words quizzed least often."),
)

var quizAnswerToolDef = mcp.NewTool("quiz_answer",
	mcp.WithDescription("Record whether the user answered a quiz word correctly."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
	mcp.WithString("word", mcp.Required(), mcp.Description("The quizzed word")),
	mcp.WithString("meaning", mcp.Description("Meaning shown (default: looked up in history)")),
	mcp.WithBoolean("correct", mcp.Required(), mcp.Description("True if answered correctly")),
)

var quizStatsToolDef = mcp.NewTool("quiz_stats",
	mcp.WithDescription("Report quiz answer tallies and how often each word has been drawn."),
)

var historyListToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List words the user has been shown, most recent first."),
	mcp.WithString("category", mcp.Description("Only this category (key or display name)")),
	mcp.WithString("date", mcp.Description("Only this day (YYYY-MM-DD)")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var historyRememberToolDef = mcp.NewTool("history_remember",
	mcp.WithDescription("Record a category word as shown to the user on a day, making it eligible for quizzes."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
	mcp.WithString("word", mcp.Required(), mcp.Description("Word text as stored in the category")),
	mcp.WithString("date", mcp.Description("Day shown as YYYY-MM-DD (default: today)")),
)

var historyForgetToolDef = mcp.NewTool("history_forget",
	mcp.WithDescription("Remove a word from the history."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
	mcp.WithString("word", mcp.Required(), mcp.Description("Word text")),
	mcp.WithString("meaning", mcp.Description("Only entries with this meaning")),
	mcp.WithString("date", mcp.Description("Only entries from this day (YYYY-MM-DD)")),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List categories: the four built-ins first, then user categories in creation order, with word counts."),
)

var categoryCreateToolDef = mcp.NewTool("category_create",
	mcp.WithDescription("Create a user category."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Display name, unique among categories")),
)

var categoryDeleteToolDef = mcp.NewTool("category_delete",
	mcp.WithDescription("Delete a user category with its words and history. Built-in categories cannot be deleted."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
)

var wordListToolDef = mcp.NewTool("word_list",
	mcp.WithDescription("List the words of a category."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
	mcp.WithString("source", mcp.Description("Only words from this source"), mcp.Enum("asset", "ai", "user")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var wordAddToolDef = mcp.NewTool("word_add",
	mcp.WithDescription("Add a user word to a category."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
	mcp.WithString("word", mcp.Required(), mcp.Description("Word text, unique within the category")),
	mcp.WithString("meaning", mcp.Required(), mcp.Description("Meaning")),
)

var wordDeleteToolDef = mcp.NewTool("word_delete",
	mcp.WithDescription("Delete a user-added or generated word and its history entries. Bundled words cannot be deleted."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category key or display name")),
	mcp.WithString("word", mcp.Required(), mcp.Description("Word text")),
	mcp.WithString("meaning", mcp.Description("Only the entry with this meaning")),
)

var fetchRunToolDef = mcp.NewTool("fetch_run",
	mcp.WithDescription("Ask the AI model for up to five new words per category. Runs once per day unless forced."),
	mcp.WithBoolean("force", mcp.Description("Run even if today's fetch already completed")),
)

var dataExportToolDef = mcp.NewTool("data_export",
	mcp.WithDescription("Export categories, words and history to a JSONL file."),
	mcp.WithString("path", mcp.Description("Output .jsonl path (default: <base>/exports/<category|all>-<timestamp>.jsonl)")),
	mcp.WithString("category", mcp.Description("Only this category (key or display name)")),
)

var dataImportToolDef = mcp.NewTool("data_import",
	mcp.WithDescription("Import a JSONL export. Missing user categories are created; existing words and history entries are kept."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .jsonl export")),
	mcp.WithString("mode", mcp.Description("merge skips bad lines; strict imports nothing if any line is bad"), mcp.Enum("merge", "strict")),
)
