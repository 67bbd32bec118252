package services

// ServiceContainer holds all application services.
type ServiceContainer struct {
	AuthService         AuthService
	EntitlementService  EntitlementService
	SamplerService      SamplerService
	ExamService         ExamService
	SubscriptionService SubscriptionService
	PaymentService      PaymentService
	QuestionService     QuestionService
}
