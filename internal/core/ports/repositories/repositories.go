package repositories

// RepositoryProvider bundles all repository facades for dependency injection.
type RepositoryProvider struct {
	UserRepo         UserRepositoryFacade
	CompanyRepo      CompanyRepositoryWithTx
	ExpenseRepo      ExpenseRepositoryWithTx
	NotificationRepo NotificationRepositoryFacade
	ExchangeRateRepo ExchangeRateRepositoryFacade
}
