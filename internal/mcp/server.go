package mcp

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/studio/internal/builder"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/ops"
)

// KnownTypes lists the tool groups. A group name in disabled_tools disables
// every tool of that group.
var KnownTypes = []string{"template", "library", "finance", "builder"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"template_list_uploads": {
		def:     listUploadsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListUploads },
	},
	"template_create_job": {
		def:     createJobToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateJob },
	},
	"template_get_job": {
		def:     getJobToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetJob },
	},
	"template_list_jobs": {
		def:     listJobsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListJobs },
	},
	"template_job_schema": {
		def:     jobSchemaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleJobSchema },
	},
	"library_list": {
		def:     listLibraryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListLibrary },
	},
	"library_promote": {
		def:     promoteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromote },
	},
	"library_categories": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
	"library_readme": {
		def:     readmeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReadme },
	},
	"finance_list_expenses": {
		def:     listExpensesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListExpenses },
	},
	"finance_summary": {
		def:     summaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummary },
	},
	"finance_mark_paid": {
		def:     markPaidToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMarkPaid },
	},
	"builder_suggest_text": {
		def:     suggestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggest },
	},
	"builder_service_catalog": {
		def:     catalogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleServiceCatalog },
	},
	"builder_check_domain": {
		def:     checkDomainToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCheckDomain },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns the entries that name neither a tool nor a
// tool group.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; ok || isKnownType(name) {
			continue
		}
		unknown = append(unknown, name)
	}
	return unknown
}

func isKnownType(name string) bool {
	for _, t := range KnownTypes {
		if t == name {
			return true
		}
	}
	return false
}

// GetTypeForTool extracts the group from a tool name ("finance_summary" → "finance").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandDisabled resolves disabled_tools entries, which may be tool or group
// names, to the set of tool names to skip.
func ExpandDisabled(names []string) map[string]bool {
	disabled := make(map[string]bool)
	groups := make(map[string]bool)
	for _, n := range names {
		if isKnownType(n) {
			groups[n] = true
		} else {
			disabled[n] = true
		}
	}
	if len(groups) > 0 {
		for name := range toolRegistry {
			if groups[GetTypeForTool(name)] {
				disabled[name] = true
			}
		}
	}
	return disabled
}

// Deps are the collaborators shared by all tool handlers.
type Deps struct {
	DB        *sql.DB
	Config    *config.Config
	Logger    *slog.Logger
	Runner    ops.Runner
	Suggester builder.Suggester
	Version   string
}

// NewServer creates an MCP server with the studio tools registered, minus
// those disabled by cfg.DisabledTools.
func NewServer(d Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"studio",
		d.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(d)
	disabled := ExpandDisabled(d.Config.DisabledTools)
	registered := 0
	for _, name := range AllToolNames() {
		if disabled[name] {
			continue
		}
		s.AddTool(toolRegistry[name].def, toolRegistry[name].handler(h))
		registered++
	}
	h.logger.Info("mcp.tools", "registered", registered, "disabled", len(disabled))
	return s
}

// Run serves MCP over stdio until stdin closes.
func Run(d Deps) error {
	return server.ServeStdio(NewServer(d))
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	logger    *slog.Logger
	runner    ops.Runner
	suggester builder.Suggester
	now       func() time.Time
}

// NewHandlers creates a Handlers instance. A nil Suggester falls back to the
// built-in templates.
func NewHandlers(d Deps) *Handlers {
	s := d.Suggester
	if s == nil {
		s = builder.TemplateSuggester{}
	}
	return &Handlers{
		db:        d.DB,
		cfg:       d.Config,
		logger:    logging.OrDiscard(d.Logger),
		runner:    d.Runner,
		suggester: s,
		now:       time.Now,
	}
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
