package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// exchangeRateHandler manages the rate table.
type exchangeRateHandler struct {
	rateService portssvc.RateTableSvcFacade
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, rates portssvc.RateTableSvcFacade) {
	h := &exchangeRateHandler{rateService: rates}

	group := rg.Group("/rates")
	{
		group.PUT("", h.upsertRate)
		group.GET("", h.listRates)
		group.POST("/cross", h.ingestCrossRate)
		group.GET("/convert", h.convert)
	}
}

// upsertRate godoc
// @Summary Upsert an exchange rate
// @Description Rates already used in a committed conversion cannot be overwritten.
// @Tags rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.UpsertRateRequest true "Rate"
// @Success 200 {object} domain.ExchangeRate
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Rate in use"
// @Security BearerAuth
// @Router /rates [put]
func (h *exchangeRateHandler) upsertRate(c *gin.Context) {
	var req dto.UpsertRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	ingestion, err := req.ToDomain()
	if err != nil {
		respondWithError(c, err, "Invalid rate")
		return
	}
	rate, err := h.rateService.IngestRate(c.Request.Context(), ingestion, userID)
	if err != nil {
		respondWithError(c, err, "Failed to ingest rate")
		return
	}
	c.JSON(http.StatusOK, rate)
}

// ingestCrossRate godoc
// @Summary Derive a cross rate
// @Description Stores from->to computed from from->via and via->to on the effective date.
// @Tags rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.CrossRateRequest true "Cross rate legs"
// @Success 200 {object} domain.ExchangeRate
// @Failure 422 {object} dto.ErrorResponse "Leg rate missing"
// @Security BearerAuth
// @Router /rates/cross [post]
func (h *exchangeRateHandler) ingestCrossRate(c *gin.Context) {
	var req dto.CrossRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	date, err := dto.ParseDate("effectiveDate", req.EffectiveDate)
	if err != nil {
		respondWithError(c, err, "Invalid cross rate")
		return
	}
	rate, err := h.rateService.IngestCrossRate(c.Request.Context(), req.FromCurrency, req.ViaCurrency, req.ToCurrency, date, userID)
	if err != nil {
		respondWithError(c, err, "Failed to ingest cross rate")
		return
	}
	c.JSON(http.StatusOK, rate)
}

// listRates godoc
// @Summary List exchange rates
// @Tags rates
// @Produce  json
// @Param   from query string false "From currency"
// @Param   to query string false "To currency"
// @Success 200 {object} dto.ListRatesResponse
// @Security BearerAuth
// @Router /rates [get]
func (h *exchangeRateHandler) listRates(c *gin.Context) {
	var params dto.ListRatesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	rates, err := h.rateService.ListRates(c.Request.Context(), params.From, params.To)
	if err != nil {
		respondWithError(c, err, "Failed to list rates")
		return
	}
	c.JSON(http.StatusOK, dto.ListRatesResponse{Rates: rates})
}

// convert godoc
// @Summary Convert an amount
// @Description Uses the latest direct rate effective on or before the date.
// @Tags rates
// @Produce  json
// @Param   amount query int true "Amount in minor units"
// @Param   from query string true "From currency"
// @Param   to query string true "To currency"
// @Param   date query string false "Conversion date (YYYY-MM-DD)"
// @Success 200 {object} domain.Conversion
// @Failure 422 {object} dto.ErrorResponse "No rate available"
// @Security BearerAuth
// @Router /rates/convert [get]
func (h *exchangeRateHandler) convert(c *gin.Context) {
	var params dto.ConvertParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	date, err := dto.ParseOptionalDate("date", params.Date, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		respondWithError(c, err, "Invalid conversion date")
		return
	}
	conv, err := h.rateService.Convert(c.Request.Context(), domain.Money{Amount: params.Amount, Currency: params.From}, params.To, date)
	if err != nil {
		respondWithError(c, err, "Failed to convert")
		return
	}
	c.JSON(http.StatusOK, conv)
}
