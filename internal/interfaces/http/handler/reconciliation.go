package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/interfaces/http/dto"
	"github.com/stockrecon/backend/internal/interfaces/http/middleware"
	"github.com/stockrecon/backend/internal/interfaces/http/router"
)

// salesFileField is the multipart field carrying the sales extract
const salesFileField = "file"

// Reconciler is the application surface the handler drives
type Reconciler interface {
	Run(ctx context.Context, cmd appreconcile.RunCommand) (*appreconcile.RunReport, error)
	CheckMappings(ctx context.Context, salesCSV []byte) (*appreconcile.MappingCheck, error)
	StockPreview(ctx context.Context, limit int) (*appreconcile.StockPreview, error)
	RefreshMasterData(ctx context.Context) error
}

// ReconciliationHandler exposes reconciliation runs over HTTP
type ReconciliationHandler struct {
	BaseHandler
	service Reconciler
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service Reconciler) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// Routes returns the route group of the reconciliation API
func (h *ReconciliationHandler) Routes() *router.DomainGroup {
	group := router.NewDomainGroup("")

	group.Group("/reconciliations").
		POST("", h.Run).
		POST("/check", h.CheckMappings)
	group.GET("/stock", h.StockPreview)
	group.Group("/master-data").
		POST("/refresh", h.RefreshMasterData)

	return group
}

// Run godoc
//
//	@Summary		Reconcile a sales extract against the stock ledger
//	@Accept			multipart/form-data,text/csv
//	@Produce		json
//	@Param			file	formData	file	false	"Sales CSV"
//	@Param			dry_run	query		bool	false	"Compute the audit without writing"
//	@Success		200		{object}	dto.Response
//	@Failure		400		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		502		{object}	dto.Response
//	@Router			/reconciliations [post]
func (h *ReconciliationHandler) Run(c *gin.Context) {
	var query dto.RunQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sales, ok := h.readSalesFile(c)
	if !ok {
		return
	}

	report, err := h.service.Run(c.Request.Context(), appreconcile.RunCommand{
		SalesCSV: sales,
		DryRun:   query.DryRun,
	})
	if err != nil {
		if report == nil {
			h.HandleError(c, err)
			return
		}
		h.HandleErrorWithData(c, err, report)
		return
	}
	h.Success(c, report)
}

// CheckMappings godoc
//
//	@Summary		List the sale labels of an extract that have no mapping
//	@Accept			multipart/form-data,text/csv
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Failure		400	{object}	dto.Response
//	@Router			/reconciliations/check [post]
func (h *ReconciliationHandler) CheckMappings(c *gin.Context) {
	sales, ok := h.readSalesFile(c)
	if !ok {
		return
	}

	check, err := h.service.CheckMappings(c.Request.Context(), sales)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// StockPreview godoc
//
//	@Summary		Show the first rows of the stock ledger
//	@Produce		json
//	@Param			limit	query		int	false	"Rows to return, 0 for all"
//	@Success		200		{object}	dto.Response
//	@Router			/stock [get]
func (h *ReconciliationHandler) StockPreview(c *gin.Context) {
	query := dto.StockQuery{Limit: dto.DefaultStockLimit}
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	preview, err := h.service.StockPreview(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// RefreshMasterData godoc
//
//	@Summary		Drop cached master data tables
//	@Success		204
//	@Router			/master-data/refresh [post]
func (h *ReconciliationHandler) RefreshMasterData(c *gin.Context) {
	if err := h.service.RefreshMasterData(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// readSalesFile returns the uploaded CSV from the multipart "file" field or,
// for any other content type, from the raw body. It writes the error response
// itself and reports false when there is nothing to read.
func (h *ReconciliationHandler) readSalesFile(c *gin.Context) ([]byte, bool) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))

	var (
		data []byte
		err  error
	)
	if mediaType == "multipart/form-data" {
		file, _, ferr := c.Request.FormFile(salesFileField)
		if ferr != nil {
			if isBodyTooLarge(ferr) {
				h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
				return nil, false
			}
			h.BadRequest(c, "multipart field 'file' is required")
			return nil, false
		}
		defer file.Close()
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(c.Request.Body)
	}

	if err != nil {
		if isBodyTooLarge(err) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return nil, false
		}
		h.BadRequest(c, "failed to read sales file")
		return nil, false
	}
	return data, true
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
