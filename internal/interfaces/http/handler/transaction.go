package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	transactionapp "github.com/hospital-erp/backend/internal/application/transaction"
)

// TransactionHandler serves the transaction history and its reports
type TransactionHandler struct {
	BaseHandler
	transactionService *transactionapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *transactionapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// List godoc
// @Summary      List inventory transactions
// @Tags         inventory-transactions
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "Transaction type" Enums(Transfer, Usage, Restocking, Procurement, Checkout)
// @Param        kind query string false "Direction" Enums(checkin, checkout)
// @Param        departmentId query int false "Department ID"
// @Param        search query string false "Item name search"
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD), inclusive"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200 {object} APIResponse[transactionapp.TransactionListResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory-transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var filter transactionapp.ListTransactionsFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.transactionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MonthlyReport godoc
// @Summary      Monthly report
// @Description  Transactions of one calendar month with the most used items
// @Tags         inventory-transactions
// @Produce      json
// @Security     BearerAuth
// @Param        month query int false "Month (1-12), defaults to the current month"
// @Param        year query int false "Year, defaults to the current year"
// @Success      200 {object} APIResponse[transactionapp.MonthlyReportResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory-transactions/monthly-report [get]
func (h *TransactionHandler) MonthlyReport(c *gin.Context) {
	var query transactionapp.MonthlyReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.transactionService.MonthlyReport(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportCSV godoc
// @Summary      Export transactions as CSV
// @Description  Streams the file, or returns a download link when object storage is configured
// @Tags         inventory-transactions
// @Produce      text/csv
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "Transaction type"
// @Param        kind query string false "Direction" Enums(checkin, checkout)
// @Param        departmentId query int false "Department ID"
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD), inclusive"
// @Success      200 {file} file
// @Success      200 {object} APIResponse[transactionapp.ExportResult]
// @Router       /inventory-transactions/export/csv [get]
func (h *TransactionHandler) ExportCSV(c *gin.Context) {
	var filter transactionapp.ExportFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.transactionService.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.writeExport(c, result)
}

// ExportXLSX godoc
// @Summary      Export monthly report as XLSX
// @Tags         inventory-transactions
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      json
// @Security     BearerAuth
// @Param        month query int false "Month (1-12)"
// @Param        year query int false "Year"
// @Success      200 {file} file
// @Success      200 {object} APIResponse[transactionapp.ExportResult]
// @Router       /inventory-transactions/export/xlsx [get]
func (h *TransactionHandler) ExportXLSX(c *gin.Context) {
	var query transactionapp.MonthlyReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.transactionService.ExportMonthlyXLSX(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.writeExport(c, result)
}

// writeExport streams an inline export or returns the link of an uploaded one
func (h *TransactionHandler) writeExport(c *gin.Context, result *transactionapp.ExportResult) {
	if result.URL != "" {
		h.Success(c, result)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
