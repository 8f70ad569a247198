package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers and the CLI.
type ServiceContainer struct {
	Chart     ChartSvcFacade
	RateTable RateTableSvcFacade
	Ledger    LedgerSvcFacade
	Invoice   InvoiceSvcFacade
	Period    PeriodSvcFacade
	Reporting ReportingSvcFacade
}
