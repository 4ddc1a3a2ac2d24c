package services

// ServiceContainer holds instances of all the application services. It is
// the entry point handlers use to reach service functionality.
type ServiceContainer struct {
	Auth               AuthSvcFacade
	TokenService       TokenSvcFacade
	GoogleOAuthHandler GoogleOAuthHandlerSvcFacade
	User               UserSvcFacade
	Company            CompanySvcFacade
	Expense            ExpenseSvcFacade
	ExchangeRate       ExchangeRateSvcFacade
	Notification       NotificationSvcFacade
	Reminder           ReminderSvcFacade
}
