package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// reportingHandler handles HTTP requests related to financial reports
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

// registerReportingRoutes registers routes related to financial reports
func registerReportingRoutes(rg *gin.RouterGroup, reporting portssvc.ReportingSvcFacade) {
	h := &reportingHandler{reportingService: reporting}

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.getTrialBalance)
		reports.GET("/profit-and-loss", h.getProfitAndLoss)
		reports.GET("/balance-sheet", h.getBalanceSheet)
		reports.GET("/aged-receivables", h.getAgedReceivables)
		reports.GET("/income-expense", h.getIncomeExpense)
		reports.GET("/cash-flow", h.getCashFlow)
	}
}

func asOfFromQuery(c *gin.Context) (time.Time, bool) {
	var params dto.AsOfParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return time.Time{}, false
	}
	asOf, err := dto.ParseOptionalDate("asOf", params.AsOf, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		respondWithError(c, err, "Invalid report date")
		return time.Time{}, false
	}
	return asOf, true
}

// getTrialBalance godoc
// @Summary Generate trial balance report
// @Description Every account's balance as of a date. Base balances always sum to zero.
// @Tags reports
// @Produce json
// @Param asOf query string false "Report date (YYYY-MM-DD)" default(current date)
// @Success 200 {object} domain.TrialBalance
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 500 {object} dto.ErrorResponse "Invariant violation"
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	asOf, ok := asOfFromQuery(c)
	if !ok {
		return
	}
	report, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err, "Failed to generate trial balance")
		return
	}
	c.JSON(http.StatusOK, report)
}

// getProfitAndLoss godoc
// @Summary Generate profit and loss report
// @Description Income and expense activity within an inclusive date range.
// @Tags reports
// @Produce json
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} domain.ProfitAndLoss
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Security BearerAuth
// @Router /reports/profit-and-loss [get]
func (h *reportingHandler) getProfitAndLoss(c *gin.Context) {
	var params dto.DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	start, err := dto.ParseDate("start", params.Start)
	if err != nil {
		respondWithError(c, err, "Invalid report range")
		return
	}
	end, err := dto.ParseDate("end", params.End)
	if err != nil {
		respondWithError(c, err, "Invalid report range")
		return
	}
	report, err := h.reportingService.ProfitAndLoss(c.Request.Context(), start, end)
	if err != nil {
		respondWithError(c, err, "Failed to generate profit and loss")
		return
	}
	c.JSON(http.StatusOK, report)
}

// getBalanceSheet godoc
// @Summary Generate balance sheet report
// @Tags reports
// @Produce json
// @Param asOf query string false "Report date (YYYY-MM-DD)" default(current date)
// @Success 200 {object} domain.BalanceSheet
// @Failure 500 {object} dto.ErrorResponse "Invariant violation"
// @Security BearerAuth
// @Router /reports/balance-sheet [get]
func (h *reportingHandler) getBalanceSheet(c *gin.Context) {
	asOf, ok := asOfFromQuery(c)
	if !ok {
		return
	}
	report, err := h.reportingService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err, "Failed to generate balance sheet")
		return
	}
	c.JSON(http.StatusOK, report)
}

// getAgedReceivables godoc
// @Summary Generate aged receivables report
// @Tags reports
// @Produce json
// @Param asOf query string false "Report date (YYYY-MM-DD)" default(current date)
// @Success 200 {object} domain.AgedReceivables
// @Security BearerAuth
// @Router /reports/aged-receivables [get]
func (h *reportingHandler) getAgedReceivables(c *gin.Context) {
	asOf, ok := asOfFromQuery(c)
	if !ok {
		return
	}
	report, err := h.reportingService.AgedReceivables(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err, "Failed to generate aged receivables")
		return
	}
	c.JSON(http.StatusOK, report)
}

// getIncomeExpense godoc
// @Summary Generate income and expense report
// @Description Income and expense per day, ISO week, month or year within an inclusive range.
// @Tags reports
// @Produce json
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Param groupBy query string false "Row grouping" Enums(day, week, month, year) default(month)
// @Success 200 {object} domain.IncomeExpenseReport
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Security BearerAuth
// @Router /reports/income-expense [get]
func (h *reportingHandler) getIncomeExpense(c *gin.Context) {
	var params dto.IncomeExpenseParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	start, err := dto.ParseDate("start", params.Start)
	if err != nil {
		respondWithError(c, err, "Invalid report range")
		return
	}
	end, err := dto.ParseDate("end", params.End)
	if err != nil {
		respondWithError(c, err, "Invalid report range")
		return
	}
	groupBy, _ := domain.ParseReportGrouping(params.GroupBy)
	report, err := h.reportingService.IncomeExpense(c.Request.Context(), start, end, groupBy)
	if err != nil {
		respondWithError(c, err, "Failed to generate income and expense report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// getCashFlow godoc
// @Summary Generate monthly cash flow report
// @Description Inflows and outflows of cash accounts per month with a running balance.
// @Tags reports
// @Produce json
// @Param end query string false "Last day covered (YYYY-MM-DD)" default(current date)
// @Param months query int false "Number of months" default(12)
// @Success 200 {object} domain.CashFlowReport
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Security BearerAuth
// @Router /reports/cash-flow [get]
func (h *reportingHandler) getCashFlow(c *gin.Context) {
	var params dto.CashFlowParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	end, err := dto.ParseOptionalDate("end", params.End, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		respondWithError(c, err, "Invalid report date")
		return
	}
	report, err := h.reportingService.CashFlow(c.Request.Context(), end, params.Months)
	if err != nil {
		respondWithError(c, err, "Failed to generate cash flow report")
		return
	}
	c.JSON(http.StatusOK, report)
}
