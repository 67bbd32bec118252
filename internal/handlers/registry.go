package handlers

// AppHandlers holds all HTTP handlers of the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	ExamHandler         *ExamHandler
	SubscriptionHandler *SubscriptionHandler
	PaymentHandler      *PaymentHandler
	QuestionHandler     *QuestionHandler
}
