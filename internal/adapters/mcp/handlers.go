package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/files"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Handlers serves the quote tools from the application services.
type Handlers struct {
	quotes         *app.QuoteService
	exportDir      string
	maxImportBytes int64
	logger         *slog.Logger
}

// HandlersConfig contains the tool handlers' dependencies.
type HandlersConfig struct {
	Quotes         *app.QuoteService
	ExportDir      string
	MaxImportBytes int64
	Logger         *slog.Logger
}

// NewHandlers creates the tool handlers.
// Panics if Quotes is nil.
func NewHandlers(cfg HandlersConfig) *Handlers {
	if cfg.Quotes == nil {
		panic("mcp.Handlers: Quotes is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handlers{
		quotes:         cfg.Quotes,
		exportDir:      cfg.ExportDir,
		maxImportBytes: cfg.MaxImportBytes,
		logger:         logger.With(slog.String("component", "mcp.Handlers")),
	}
}

// RandomRequest is the quote_random input.
type RandomRequest struct {
	Category string `json:"category,omitempty"`
}

// AddRequest is the quote_add input.
type AddRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// ExportRequest is the quote_export input.
type ExportRequest struct {
	Dir string `json:"dir,omitempty"`
}

// ImportRequest is the quote_import input.
type ImportRequest struct {
	Path string `json:"path"`
}

// HandleRandom handles quote_random.
func (h *Handlers) HandleRandom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RandomRequest](req)
	if err != nil {
		return h.errorResult(ctx, invalidArguments(err)), nil
	}

	sel, err := h.quotes.RandomQuote(ctx, strings.TrimSpace(input.Category))
	if err != nil {
		return h.errorResult(ctx, err), nil
	}

	return successResult(dto.FromSelection(sel))
}

// HandleAdd handles quote_add.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return h.errorResult(ctx, invalidArguments(err)), nil
	}

	q, err := h.quotes.AddQuote(ctx, input.Text, input.Category)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}

	return successResult(dto.AddQuoteResponse{
		Quote:   dto.FromQuote(q),
		Message: q.AddedMessage(),
	})
}

// HandleCategories handles quote_categories.
func (h *Handlers) HandleCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := h.quotes.Categories(ctx)

	return successResult(dto.CategoriesResponse{
		Options:  list.Options,
		Selected: list.Selected,
	})
}

// HandleExport handles quote_export.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return h.errorResult(ctx, invalidArguments(err)), nil
	}

	dir := input.Dir
	if dir == "" {
		dir = h.exportDir
	}

	data, err := h.quotes.Export(ctx)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}

	path, err := files.WriteExport(dir, data)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}

	return successResult(dto.ExportFileResponse{Path: path, Count: h.quotes.Count(ctx)})
}

// HandleImport handles quote_import.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return h.errorResult(ctx, invalidArguments(err)), nil
	}

	if strings.TrimSpace(input.Path) == "" {
		return h.errorResult(ctx, domain.NewValidationError("path", "path is required")), nil
	}

	data, err := files.ReadImport(input.Path, h.maxImportBytes)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}

	n, err := h.quotes.Import(ctx, data)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}

	return successResult(dto.ImportResponse{Imported: n, Total: h.quotes.Count(ctx)})
}

func invalidArguments(err error) error {
	return domain.NewValidationError("", fmt.Sprintf("invalid arguments: %v", err))
}

// errorResult reports err as a tool error carrying the same envelope the
// HTTP API returns. Internal details stay in the log.
func (h *Handlers) errorResult(ctx context.Context, err error) *mcp.CallToolResult {
	status, resp := dto.MapDomainError(err)

	if resp.Error.Code == dto.ErrorCodeInternal {
		h.logger.ErrorContext(ctx, "tool failed", slog.Any("error", err))
	}

	payload := map[string]any{
		"error": map[string]any{
			"code":    resp.Error.Code,
			"message": resp.Error.Message,
			"status":  status,
			"details": resp.Error.Details,
		},
	}

	content, _ := json.Marshal(payload)

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

// decode unmarshals the tool arguments into T.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T

	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}

	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}

	return result, nil
}
