package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/files"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// importFormField is the multipart field an import file is uploaded under.
const importFormField = "file"

// QuoteHandler handles the quote collection endpoints.
type QuoteHandler struct {
	service        *app.QuoteService
	exportDir      string
	maxImportBytes int64
	logger         *slog.Logger
}

// QuoteHandlerConfig contains the quote handler's dependencies.
type QuoteHandlerConfig struct {
	Service *app.QuoteService

	// ExportDir is where POST /quotes/export/file writes quotes.json.
	ExportDir string

	// MaxImportBytes bounds import documents. <= 0 means no limit.
	MaxImportBytes int64

	Logger *slog.Logger
}

// NewQuoteHandler creates a new quote handler.
// Panics if Service is nil.
func NewQuoteHandler(cfg QuoteHandlerConfig) *QuoteHandler {
	if cfg.Service == nil {
		panic("QuoteHandler: Service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteHandler{
		service:        cfg.Service,
		exportDir:      cfg.ExportDir,
		maxImportBytes: cfg.MaxImportBytes,
		logger:         logger.With(slog.String("component", "http.QuoteHandler")),
	}
}

// ListQuotes handles GET /api/v1/quotes.
//
// @Summary List quotes
// @Tags quotes
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.Quote]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	page, err := dto.PageQuotes(h.service.List(c.Request.Context()), &req)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetRandomQuote handles GET /api/v1/quotes/random.
// The category query parameter overrides the persisted filter.
//
// @Summary Get a random quote
// @Tags quotes
// @Param category query string false "Category, or all"
// @Success 200 {object} dto.RandomQuoteResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	var req dto.RandomQuoteRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sel, err := h.service.RandomQuote(c.Request.Context(), strings.TrimSpace(req.Category))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSelection(sel))
}

// GetLastQuote handles GET /api/v1/quotes/last.
//
// @Summary Get the last shown quote
// @Tags quotes
// @Success 200 {object} dto.Quote
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/last [get]
func (h *QuoteHandler) GetLastQuote(c *gin.Context) {
	q, err := h.service.LastQuote(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromQuote(q))
}

// AddQuote handles POST /api/v1/quotes.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Param body body dto.AddQuoteRequest true "Quote"
// @Success 201 {object} dto.AddQuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	q, err := h.service.AddQuote(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AddQuoteResponse{
		Quote:   dto.FromQuote(q),
		Message: q.AddedMessage(),
	})
}

// GetCategories handles GET /api/v1/categories.
//
// @Summary List filter options
// @Tags categories
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/categories [get]
func (h *QuoteHandler) GetCategories(c *gin.Context) {
	list := h.service.Categories(c.Request.Context())

	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Options:  list.Options,
		Selected: list.Selected,
	})
}

// SetFilter handles PUT /api/v1/filter.
//
// @Summary Select the category filter
// @Tags categories
// @Accept json
// @Param body body dto.SetFilterRequest true "Filter"
// @Success 200 {object} dto.FilterResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/filter [put]
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req dto.SetFilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	filter, err := h.service.SetFilter(c.Request.Context(), strings.TrimSpace(req.Category))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FilterResponse{Filter: filter})
}

// ExportQuotes handles GET /api/v1/quotes/export as a quotes.json download.
//
// @Summary Download the collection
// @Tags transfer
// @Produce json
// @Success 200 {array} dto.Quote
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	data, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", files.ExportFileName))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// ExportFile handles POST /api/v1/quotes/export/file.
//
// @Summary Write the collection to the export directory
// @Tags transfer
// @Success 200 {object} dto.ExportFileResponse
// @Router /api/v1/quotes/export/file [post]
func (h *QuoteHandler) ExportFile(c *gin.Context) {
	ctx := c.Request.Context()

	data, err := h.service.Export(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	path, err := files.WriteExport(h.exportDir, data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.logger.InfoContext(ctx, "export written", slog.String("path", path))

	c.JSON(http.StatusOK, dto.ExportFileResponse{
		Path:  path,
		Count: h.service.Count(ctx),
	})
}

// ImportQuotes handles POST /api/v1/quotes/import. The document is either
// the raw request body or a multipart upload in the "file" field.
//
// @Summary Append quotes from a JSON document
// @Tags transfer
// @Accept json,mpfd
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	ctx := c.Request.Context()

	data, err := h.readImport(c)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	n, err := h.service.Import(ctx, data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{
		Imported: n,
		Total:    h.service.Count(ctx),
	})
}

func (h *QuoteHandler) readImport(c *gin.Context) ([]byte, error) {
	body := c.Request.Body

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile(importFormField)
		if err != nil {
			return nil, domain.NewValidationError(importFormField, "multipart upload requires a file field")
		}

		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload: %w", err)
		}
		defer func() { _ = file.Close() }()

		body = file
	}

	var r io.Reader = body
	if h.maxImportBytes > 0 {
		r = io.LimitReader(body, h.maxImportBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.NewFormatError(fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
		}

		return nil, fmt.Errorf("reading import: %w", err)
	}

	if h.maxImportBytes > 0 && int64(len(data)) > h.maxImportBytes {
		return nil, domain.NewFormatError(fmt.Sprintf("document exceeds %d bytes", h.maxImportBytes))
	}

	return data, nil
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.GetRandomQuote)
	quotes.GET("/last", h.GetLastQuote)
	quotes.GET("/export", h.ExportQuotes)
	quotes.POST("/export/file", h.ExportFile)
	quotes.POST("/import", h.ImportQuotes)

	rg.GET("/categories", h.GetCategories)
	rg.PUT("/filter", h.SetFilter)
}
