package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// periodHandler opens and closes accounting periods.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

// registerPeriodRoutes registers routes related to accounting periods.
func registerPeriodRoutes(rg *gin.RouterGroup, periods portssvc.PeriodSvcFacade) {
	h := &periodHandler{periodService: periods}

	group := rg.Group("/periods")
	{
		group.POST("", h.openPeriod)
		group.GET("", h.listPeriods)
		group.GET("/:periodID", h.getPeriod)
		group.POST("/:periodID/close", h.closePeriod)
	}
}

// openPeriod godoc
// @Summary Open an accounting period
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   period body dto.OpenPeriodRequest true "Period bounds"
// @Success 201 {object} domain.AccountingPeriod
// @Failure 409 {object} dto.ErrorResponse "Overlaps an existing period"
// @Security BearerAuth
// @Router /periods [post]
func (h *periodHandler) openPeriod(c *gin.Context) {
	var req dto.OpenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	start, err := dto.ParseDate("startDate", req.StartDate)
	if err != nil {
		respondWithError(c, err, "Invalid period")
		return
	}
	end, err := dto.ParseDate("endDate", req.EndDate)
	if err != nil {
		respondWithError(c, err, "Invalid period")
		return
	}

	period, err := h.periodService.OpenPeriod(c.Request.Context(), req.Name, start, end, userID)
	if err != nil {
		respondWithError(c, err, "Failed to open period")
		return
	}
	c.JSON(http.StatusCreated, period)
}

// closePeriod godoc
// @Summary Close an accounting period
// @Description Verifies the roll-forward and stores closing balances.
// @Tags periods
// @Produce  json
// @Param   periodID path string true "Period ID"
// @Success 200 {object} domain.AccountingPeriod
// @Failure 409 {object} dto.ErrorResponse "Earlier period open, already closed or unbalanced"
// @Security BearerAuth
// @Router /periods/{periodID}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	period, err := h.periodService.Close(c.Request.Context(), c.Param("periodID"), userID)
	if err != nil {
		respondWithError(c, err, "Failed to close period")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period closed", slog.String("period", period.Name))
	c.JSON(http.StatusOK, period)
}

// getPeriod godoc
// @Summary Get an accounting period
// @Tags periods
// @Produce  json
// @Param   periodID path string true "Period ID"
// @Success 200 {object} domain.AccountingPeriod
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /periods/{periodID} [get]
func (h *periodHandler) getPeriod(c *gin.Context) {
	period, err := h.periodService.GetPeriod(c.Request.Context(), c.Param("periodID"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve period")
		return
	}
	c.JSON(http.StatusOK, period)
}

// listPeriods godoc
// @Summary List accounting periods
// @Tags periods
// @Produce  json
// @Success 200 {object} dto.ListPeriodsResponse
// @Security BearerAuth
// @Router /periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	periods, err := h.periodService.ListPeriods(c.Request.Context())
	if err != nil {
		respondWithError(c, err, "Failed to list periods")
		return
	}
	c.JSON(http.StatusOK, dto.ListPeriodsResponse{Periods: periods})
}
