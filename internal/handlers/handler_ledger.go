package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// ledgerHandler exposes posting, reversal and journal queries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerLedgerRoutes registers routes related to journal entries.
func registerLedgerRoutes(rg *gin.RouterGroup, ledger portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledger}

	entries := rg.Group("/ledger/entries")
	{
		entries.POST("", h.postEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
		entries.POST("/:entryID/reverse", h.reverseEntry)
	}
}

// postEntry godoc
// @Summary Post a journal entry
// @Description Commits a balanced entry. Replaying the same idempotency key returns the original entry.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   entry body dto.PostEntryRequest true "Posting request"
// @Success 201 {object} dto.PostEntryResponse
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 409 {object} dto.ErrorResponse "Period closed or write contention"
// @Failure 422 {object} dto.ErrorResponse "Unbalanced entry, missing rate or idempotency mismatch"
// @Security BearerAuth
// @Router /ledger/entries [post]
func (h *ledgerHandler) postEntry(c *gin.Context) {
	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	posting, err := req.ToDomain(userID)
	if err != nil {
		respondWithError(c, err, "Invalid posting request")
		return
	}

	entry, err := h.ledgerService.Post(c.Request.Context(), posting)
	if err != nil {
		respondWithError(c, err, "Failed to post entry")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Entry posted",
		slog.String("entry_id", entry.EntryID), slog.Int64("sequence", entry.Sequence))
	c.JSON(http.StatusCreated, dto.ToPostEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a journal entry
// @Description Posts a new entry with every direction inverted. Closed periods are corrected this way.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   body body dto.ReverseEntryRequest false "Reversal options"
// @Success 201 {object} dto.PostEntryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already reversed or period closed"
// @Security BearerAuth
// @Router /ledger/entries/{entryID}/reverse [post]
func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	var req dto.ReverseEntryRequest
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
	reversal, err := req.ToDomain(userID)
	if err != nil {
		respondWithError(c, err, "Invalid reversal request")
		return
	}

	entry, err := h.ledgerService.Reverse(c.Request.Context(), c.Param("entryID"), reversal)
	if err != nil {
		respondWithError(c, err, "Failed to reverse entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPostEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry
// @Tags ledger
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /ledger/entries/{entryID} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	entry, err := h.ledgerService.GetEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// listEntries godoc
// @Summary List journal entries
// @Description Pages through the journal in sequence order.
// @Tags ledger
// @Produce  json
// @Param   from query string false "First posting date (YYYY-MM-DD)"
// @Param   to query string false "Last posting date (YYYY-MM-DD)"
// @Param   accountCode query string false "Only entries touching this account"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /ledger/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	filter, err := params.ToFilter()
	if err != nil {
		respondWithError(c, err, "Invalid entry filter")
		return
	}

	entries, next, err := h.ledgerService.ListEntries(c.Request.Context(), filter, params.NextToken)
	if err != nil {
		respondWithError(c, err, "Failed to list entries")
		return
	}
	c.JSON(http.StatusOK, dto.ListEntriesResponse{Entries: entries, NextToken: next})
}
