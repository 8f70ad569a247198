package dto

import "github.com/SscSPs/ledger_engine/internal/core/domain"

// OpenPeriodRequest opens an inclusive date range for posting.
type OpenPeriodRequest struct {
	Name      string `json:"name" binding:"max=64"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

// ListPeriodsResponse wraps periods in start order.
type ListPeriodsResponse struct {
	Periods []domain.AccountingPeriod `json:"periods"`
}
