// Package mcp exposes the quote operations as MCP tools over stdio.
package mcp

import (
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "quotekeeper"

// toolEntry pairs a tool definition with its handler.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"quote_random": {
		def: mcp.NewTool("quote_random",
			mcp.WithDescription("Pick a random quote. Without a category the saved filter applies."),
			mcp.WithString("category", mcp.Description(`Category to pick from, or "all"`)),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRandom },
	},
	"quote_add": {
		def: mcp.NewTool("quote_add",
			mcp.WithDescription("Add a quote to the collection"),
			mcp.WithString("text", mcp.Required(), mcp.Description("Quote text")),
			mcp.WithString("category", mcp.Required(), mcp.Description("Quote category")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"quote_categories": {
		def: mcp.NewTool("quote_categories",
			mcp.WithDescription(`List the category filter options ("all" first) and the saved filter`),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
	"quote_export": {
		def: mcp.NewTool("quote_export",
			mcp.WithDescription("Write the collection to quotes.json"),
			mcp.WithString("dir", mcp.Description("Directory to write into. Defaults to the configured export directory.")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"quote_import": {
		def: mcp.NewTool("quote_import",
			mcp.WithDescription("Append quotes from a JSON array file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path of the JSON document")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// ToolNames returns the registered tool names, sorted.
func ToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// NewServer creates an MCP server with every quote tool registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Serve runs the MCP server on stdin and stdout until stdin closes.
func Serve(h *Handlers, version string) error {
	if err := server.ServeStdio(NewServer(h, version)); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}
