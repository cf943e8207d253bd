package services

// Services wires every service over one store. Commands and the HTTP
// server share it.
type Services struct {
	Store        Store
	Catalog      *CatalogService
	Transactions *TransactionService
	Budgets      *BudgetService
	Recurring    *RecurringService
	Processor    *RecurringProcessor
	Analytics    *AnalyticsService
	Preferences  *PreferencesService
	Dashboard    *DashboardService
	Transfer     *TransferService
}

// New accepts a nil publisher and a nil clock (system time).
func New(store Store, publisher EventPublisher, clock Clock) *Services {
	if clock == nil {
		clock = SystemClock
	}
	catalog := NewCatalogService(store)
	transactions := NewTransactionService(store, publisher)
	budgets := NewBudgetService(store)
	preferences := NewPreferencesService(store)

	return &Services{
		Store:        store,
		Catalog:      catalog,
		Transactions: transactions,
		Budgets:      budgets,
		Recurring:    NewRecurringService(store),
		Processor:    NewRecurringProcessor(store, transactions, clock),
		Analytics:    NewAnalyticsService(store),
		Preferences:  preferences,
		Dashboard:    NewDashboardService(store, budgets, preferences, clock),
		Transfer:     NewTransferService(store, catalog, transactions),
	}
}
