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

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	chartService  portssvc.ChartSvcFacade
	ledgerService portssvc.LedgerReaderSvc
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, chart portssvc.ChartSvcFacade, ledger portssvc.LedgerReaderSvc) {
	h := &accountHandler{chartService: chart, ledgerService: ledger}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:code", h.getAccount)
		accounts.GET("/:code/balance", h.getBalance)
		accounts.POST("/:code/deactivate", h.deactivateAccount)
		accounts.PUT("/:code/type", h.changeAccountType)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Description Adds an account to the chart. Codes are never reused.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} domain.Account
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 409 {object} dto.ErrorResponse "Code already used"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}

	account, err := h.chartService.CreateAccount(c.Request.Context(), req.ToCommand(userID))
	if err != nil {
		respondWithError(c, err, "Failed to create account")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account created", slog.String("account_code", account.Code))
	c.JSON(http.StatusCreated, account)
}

// listAccounts godoc
// @Summary List the chart of accounts
// @Tags accounts
// @Produce  json
// @Success 200 {object} dto.ListAccountsResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	accounts, err := h.chartService.ListAccounts(c.Request.Context())
	if err != nil {
		respondWithError(c, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: accounts})
}

// getAccount godoc
// @Summary Get an account by code
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Success 200 {object} domain.Account
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{code} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.chartService.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// getBalance godoc
// @Summary Get an account balance
// @Description Replays committed lines up to a date, or up to a journal sequence when one is given.
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Param   asOf query string false "Balance date (YYYY-MM-DD), defaults to today"
// @Param   sequence query int false "Journal sequence bound"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /accounts/{code}/balance [get]
func (h *accountHandler) getBalance(c *gin.Context) {
	var q dto.BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	code := c.Param("code")
	now := time.Now().UTC()

	var (
		balance *domain.AccountBalance
		err     error
	)
	if q.Sequence > 0 {
		balance, err = h.ledgerService.BalanceAsOfSequence(c.Request.Context(), code, q.Sequence)
	} else {
		var asOf time.Time
		asOf, err = dto.ParseOptionalDate("asOf", q.AsOf, domain.DateOnly(now))
		if err == nil {
			balance, err = h.ledgerService.BalanceAsOf(c.Request.Context(), code, asOf)
		}
	}
	if err != nil {
		respondWithError(c, err, "Failed to compute balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountBalance: *balance, QueriedAt: now})
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Fails while the account carries a balance or appears in an open period.
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Success 200 {object} domain.Account
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Account in use"
// @Security BearerAuth
// @Router /accounts/{code}/deactivate [post]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	account, err := h.chartService.Deactivate(c.Request.Context(), c.Param("code"), userID)
	if err != nil {
		respondWithError(c, err, "Failed to deactivate account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// changeAccountType godoc
// @Summary Change an account's type
// @Description Allowed only while no journal line references the account.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   code path string true "Account code"
// @Param   body body dto.ChangeAccountTypeRequest true "New type"
// @Success 200 {object} domain.Account
// @Failure 409 {object} dto.ErrorResponse "Account in use"
// @Security BearerAuth
// @Router /accounts/{code}/type [put]
func (h *accountHandler) changeAccountType(c *gin.Context) {
	var req dto.ChangeAccountTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	accountType, _ := domain.ParseAccountType(req.AccountType)
	account, err := h.chartService.ChangeAccountType(c.Request.Context(), c.Param("code"), accountType, userID)
	if err != nil {
		respondWithError(c, err, "Failed to change account type")
		return
	}
	c.JSON(http.StatusOK, account)
}
