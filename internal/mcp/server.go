package mcp

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"today", "quiz", "history", "category", "word", "fetch", "data"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"today_get": {
		def:     todayToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleToday },
	},
	"quiz_draw": {
		def:     quizDrawToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizDraw },
	},
	"quiz_answer": {
		def:     quizAnswerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizAnswer },
	},
	"quiz_stats": {
		def:     quizStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizStats },
	},
	"history_list": {
		def:     historyListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryList },
	},
	"history_remember": {
		def:     historyRememberToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemember },
	},
	"history_forget": {
		def:     historyForgetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleForget },
	},
	"category_list": {
		def:     categoryListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryList },
	},
	"category_create": {
		def:     categoryCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryCreate },
	},
	"category_delete": {
		def:     categoryDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryDelete },
	},
	"word_list": {
		def:     wordListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWordList },
	},
	"word_add": {
		def:     wordAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWordAdd },
	},
	"word_delete": {
		def:     wordDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWordDelete },
	},
	"fetch_run": {
		def:     fetchRunToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"data_export": {
		def:     dataExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"data_import": {
		def:     dataImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	return slices.Sorted(maps.Keys(toolRegistry))
}

// ValidateDisabledTools returns the names that are not registered tools.
func ValidateDisabledTools(names []string) []string {
	return lo.Reject(names, func(name string, _ int) bool {
		_, ok := toolRegistry[name]
		return ok
	})
}

// ValidateDisabledTypes returns the names that are not tool types.
func ValidateDisabledTypes(names []string) []string {
	return lo.Reject(names, func(name string, _ int) bool { return lo.Contains(KnownTypes, name) })
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "quiz_draw" → "quiz").
func GetTypeForTool(toolName string) string {
	typ, _, ok := strings.Cut(toolName, "_")
	if !ok {
		return ""
	}
	return typ
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	return lo.Filter(AllToolNames(), func(name string, _ int) bool {
		return lo.Contains(types, GetTypeForTool(name))
	})
}

// NewServer creates a new MCP server with Eunoia tools registered.
// Tools listed in DisabledTools or belonging to DisabledTypes are excluded
// from registration.
func NewServer(deps *ops.Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"eunoia",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(deps)
	cfg := deps.Config

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(deps *ops.Deps, version string) error {
	return server.ServeStdio(NewServer(deps, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
