package dto

// AsOfParams selects a report date; empty means today.
type AsOfParams struct {
	AsOf string `form:"asOf"`
}

// DateRangeParams selects an inclusive reporting window.
type DateRangeParams struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

// IncomeExpenseParams selects a window and a row grouping.
type IncomeExpenseParams struct {
	DateRangeParams
	GroupBy string `form:"groupBy" binding:"omitempty,oneof=day week month year"`
}

// CashFlowParams selects the trailing months ending with the month of End.
type CashFlowParams struct {
	End    string `form:"end"`
	Months int    `form:"months,default=12" binding:"gte=1,lte=120"`
}
