package dto

import "github.com/SscSPs/ledger_engine/internal/core/domain"

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code         string `json:"code" binding:"required,max=32"`
	Name         string `json:"name" binding:"required,max=255"`
	AccountType  string `json:"accountType" binding:"required"`
	CurrencyCode string `json:"currencyCode" binding:"required,currency"`
}

// ToCommand converts the request. The account type is validated by the service.
func (r CreateAccountRequest) ToCommand(actor string) domain.CreateAccountCommand {
	accountType, _ := domain.ParseAccountType(r.AccountType)
	return domain.CreateAccountCommand{
		Code:         r.Code,
		Name:         r.Name,
		AccountType:  accountType,
		CurrencyCode: r.CurrencyCode,
		Actor:        actor,
	}
}

// ChangeAccountTypeRequest reclassifies an account that has no lines yet.
type ChangeAccountTypeRequest struct {
	AccountType string `json:"accountType" binding:"required"`
}

// ListAccountsResponse wraps the chart of accounts.
type ListAccountsResponse struct {
	Accounts []domain.Account `json:"accounts"`
}

// BalanceQuery selects a balance either at a date or at a journal sequence.
type BalanceQuery struct {
	AsOf     string `form:"asOf"`
	Sequence int64  `form:"sequence" binding:"gte=0"`
}
