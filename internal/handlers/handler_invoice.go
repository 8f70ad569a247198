package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// invoiceHandler drives the invoice lifecycle.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

// registerInvoiceRoutes registers routes related to invoices.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoices portssvc.InvoiceSvcFacade) {
	h := &invoiceHandler{invoiceService: invoices}

	group := rg.Group("/invoices")
	{
		group.POST("", h.createInvoice)
		group.GET("", h.listInvoices)
		group.GET("/summary", h.getSummary)
		group.GET("/:invoiceID", h.getInvoice)
		group.PATCH("/:invoiceID", h.updateInvoice)
		group.POST("/:invoiceID/issue", h.issueInvoice)
		group.POST("/:invoiceID/payments", h.recordPayment)
		group.POST("/:invoiceID/credits", h.applyCredit)
		group.POST("/:invoiceID/void", h.voidInvoice)
	}
}

// createInvoice godoc
// @Summary Create a draft invoice
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} domain.InvoiceView
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	cmd, err := req.ToCommand(userID)
	if err != nil {
		respondWithError(c, err, "Invalid invoice request")
		return
	}

	view, err := h.invoiceService.CreateInvoice(c.Request.Context(), cmd)
	if err != nil {
		respondWithError(c, err, "Failed to create invoice")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Invoice created",
		slog.String("invoice_id", view.InvoiceID), slog.String("invoice_number", view.InvoiceNumber))
	c.JSON(http.StatusCreated, view)
}

// listInvoices godoc
// @Summary List invoices
// @Description Status is derived at asOf (default today).
// @Tags invoices
// @Produce  json
// @Param   stage query string false "Stored stage" Enums(draft, issued, void)
// @Param   clientRef query string false "Client reference"
// @Param   asOf query string false "Status date (YYYY-MM-DD)"
// @Success 200 {object} dto.ListInvoicesResponse
// @Security BearerAuth
// @Router /invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	var params dto.ListInvoicesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	asOf, err := dto.ParseOptionalDate("asOf", params.AsOf, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		respondWithError(c, err, "Invalid invoice filter")
		return
	}

	views, err := h.invoiceService.ListInvoices(c.Request.Context(), domain.InvoiceFilter{
		Stage:     domain.InvoiceStage(params.Stage),
		ClientRef: params.ClientRef,
	}, asOf)
	if err != nil {
		respondWithError(c, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, dto.ListInvoicesResponse{Invoices: views})
}

// getInvoice godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   asOf query string false "Status date (YYYY-MM-DD)"
// @Success 200 {object} domain.InvoiceView
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{invoiceID} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	var params dto.AsOfParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	asOf, err := dto.ParseOptionalDate("asOf", params.AsOf, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		respondWithError(c, err, "Invalid date")
		return
	}
	view, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("invoiceID"), asOf)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, view)
}

// getSummary godoc
// @Summary Summarize invoices
// @Description Counts and totals per currency, split by derived status and by client.
// @Tags invoices
// @Produce  json
// @Param   from query string false "Earliest issue date (YYYY-MM-DD)"
// @Param   to query string false "Latest issue date (YYYY-MM-DD)"
// @Param   asOf query string false "Status date (YYYY-MM-DD)"
// @Success 200 {object} domain.InvoiceSummary
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /invoices/summary [get]
func (h *invoiceHandler) getSummary(c *gin.Context) {
	var params dto.InvoiceSummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	from, to, err := params.Range()
	if err != nil {
		respondWithError(c, err, "Invalid summary range")
		return
	}
	asOf, err := dto.ParseOptionalDate("asOf", params.AsOf, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		respondWithError(c, err, "Invalid date")
		return
	}
	summary, err := h.invoiceService.Summary(c.Request.Context(), from, to, asOf)
	if err != nil {
		respondWithError(c, err, "Failed to summarize invoices")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// updateInvoice godoc
// @Summary Edit an invoice
// @Description Drafts accept any field. Issued invoices accept only notes and terms.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   invoice body dto.UpdateInvoiceRequest true "Fields to change"
// @Success 200 {object} domain.InvoiceView
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Invoice is no longer editable"
// @Security BearerAuth
// @Router /invoices/{invoiceID} [patch]
func (h *invoiceHandler) updateInvoice(c *gin.Context) {
	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	cmd, err := req.ToCommand(userID)
	if err != nil {
		respondWithError(c, err, "Invalid invoice update")
		return
	}
	view, err := h.invoiceService.UpdateInvoice(c.Request.Context(), c.Param("invoiceID"), cmd)
	if err != nil {
		respondWithError(c, err, "Failed to update invoice")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *invoiceHandler) transition(c *gin.Context, what string, fn func(id string, cmd domain.TransitionCommand) (*domain.InvoiceView, error)) {
	var req dto.TransitionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	view, err := fn(c.Param("invoiceID"), domain.TransitionCommand{IdempotencyKey: req.IdempotencyKey, Actor: userID})
	if err != nil {
		respondWithError(c, err, "Failed to "+what+" invoice")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *invoiceHandler) settle(c *gin.Context, what string, fn func(id string, cmd domain.SettlementCommand) (*domain.InvoiceView, error)) {
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	cmd, err := req.ToCommand(userID)
	if err != nil {
		respondWithError(c, err, "Invalid "+what)
		return
	}
	view, err := fn(c.Param("invoiceID"), cmd)
	if err != nil {
		respondWithError(c, err, "Failed to record "+what)
		return
	}
	c.JSON(http.StatusOK, view)
}

// issueInvoice godoc
// @Summary Issue a draft invoice
// @Description Posts Dr receivable / Cr revenue at the issue date.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   body body dto.TransitionRequest false "Idempotency key"
// @Success 200 {object} domain.InvoiceView
// @Failure 409 {object} dto.ErrorResponse "Invoice is not a draft"
// @Security BearerAuth
// @Router /invoices/{invoiceID}/issue [post]
func (h *invoiceHandler) issueInvoice(c *gin.Context) {
	h.transition(c, "issue", func(id string, cmd domain.TransitionCommand) (*domain.InvoiceView, error) {
		return h.invoiceService.Issue(c.Request.Context(), id, cmd)
	})
}

// voidInvoice godoc
// @Summary Void an invoice
// @Description Drafts void without posting; issued invoices with no settlements are reversed.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   body body dto.TransitionRequest false "Idempotency key"
// @Success 200 {object} domain.InvoiceView
// @Failure 409 {object} dto.ErrorResponse "Invoice has settlements"
// @Security BearerAuth
// @Router /invoices/{invoiceID}/void [post]
func (h *invoiceHandler) voidInvoice(c *gin.Context) {
	h.transition(c, "void", func(id string, cmd domain.TransitionCommand) (*domain.InvoiceView, error) {
		return h.invoiceService.Void(c.Request.Context(), id, cmd)
	})
}

// recordPayment godoc
// @Summary Record a payment
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   payment body dto.SettlementRequest true "Payment"
// @Success 200 {object} domain.InvoiceView
// @Failure 409 {object} dto.ErrorResponse "Invoice not issued"
// @Failure 422 {object} dto.ErrorResponse "Overpayment"
// @Security BearerAuth
// @Router /invoices/{invoiceID}/payments [post]
func (h *invoiceHandler) recordPayment(c *gin.Context) {
	h.settle(c, "payment", func(id string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
		return h.invoiceService.RecordPayment(c.Request.Context(), id, cmd)
	})
}

// applyCredit godoc
// @Summary Apply a credit note
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   credit body dto.SettlementRequest true "Credit note"
// @Success 200 {object} domain.InvoiceView
// @Failure 422 {object} dto.ErrorResponse "Credit exceeds the outstanding balance"
// @Security BearerAuth
// @Router /invoices/{invoiceID}/credits [post]
func (h *invoiceHandler) applyCredit(c *gin.Context) {
	h.settle(c, "credit", func(id string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
		return h.invoiceService.ApplyCredit(c.Request.Context(), id, cmd)
	})
}
