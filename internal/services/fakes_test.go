package services

import (
	"context"
	"time"

	"ikizamini_backend/internal/gateway"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
)

// In-memory repository fakes. Each method delegates to a func field
// when set, so tests only wire the calls they care about.

type fakeSubscriptionRepo struct {
	createPlanFn        func(plan *models.SubscriptionPlan) error
	findPlanByIDFn      func(id string) (*models.SubscriptionPlan, error)
	findPlanByTypeFn    func(planType string) (*models.SubscriptionPlan, error)
	findActivePlansFn   func() ([]models.SubscriptionPlan, error)
	updatePlanFn        func(plan *models.SubscriptionPlan) error
	deletePlanFn        func(id string) error
	countPlansFn        func() (int64, error)
	findByUserFn        func(userID string) (*models.UserSubscription, error)
	deactivateFn        func(subscriptionID string) error
	consumeAttemptFn    func(subscriptionID string) error
	deactivateExpiredFn func(cutoff time.Time) (int64, error)
	applyPlanFn         func(userID, planID string, startDate, endDate time.Time) error
}

func (f *fakeSubscriptionRepo) CreatePlan(plan *models.SubscriptionPlan) error {
	if f.createPlanFn != nil {
		return f.createPlanFn(plan)
	}
	return nil
}

func (f *fakeSubscriptionRepo) FindPlanByID(id string) (*models.SubscriptionPlan, error) {
	if f.findPlanByIDFn != nil {
		return f.findPlanByIDFn(id)
	}
	return nil, repositories.ErrPlanNotFound
}

func (f *fakeSubscriptionRepo) FindPlanByType(planType string) (*models.SubscriptionPlan, error) {
	if f.findPlanByTypeFn != nil {
		return f.findPlanByTypeFn(planType)
	}
	return nil, repositories.ErrPlanNotFound
}

func (f *fakeSubscriptionRepo) FindActivePlans() ([]models.SubscriptionPlan, error) {
	if f.findActivePlansFn != nil {
		return f.findActivePlansFn()
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) UpdatePlan(plan *models.SubscriptionPlan) error {
	if f.updatePlanFn != nil {
		return f.updatePlanFn(plan)
	}
	return nil
}

func (f *fakeSubscriptionRepo) DeletePlan(id string) error {
	if f.deletePlanFn != nil {
		return f.deletePlanFn(id)
	}
	return nil
}

func (f *fakeSubscriptionRepo) CountPlans() (int64, error) {
	if f.countPlansFn != nil {
		return f.countPlansFn()
	}
	return 0, nil
}

func (f *fakeSubscriptionRepo) FindByUser(userID string) (*models.UserSubscription, error) {
	if f.findByUserFn != nil {
		return f.findByUserFn(userID)
	}
	return nil, repositories.ErrSubscriptionNotFound
}

func (f *fakeSubscriptionRepo) Deactivate(subscriptionID string) error {
	if f.deactivateFn != nil {
		return f.deactivateFn(subscriptionID)
	}
	return nil
}

func (f *fakeSubscriptionRepo) ConsumeAttempt(subscriptionID string) error {
	if f.consumeAttemptFn != nil {
		return f.consumeAttemptFn(subscriptionID)
	}
	return nil
}

func (f *fakeSubscriptionRepo) DeactivateExpired(cutoff time.Time) (int64, error) {
	if f.deactivateExpiredFn != nil {
		return f.deactivateExpiredFn(cutoff)
	}
	return 0, nil
}

func (f *fakeSubscriptionRepo) ApplyPlan(userID, planID string, startDate, endDate time.Time) error {
	if f.applyPlanFn != nil {
		return f.applyPlanFn(userID, planID, startDate, endDate)
	}
	return nil
}

type fakeQuestionRepo struct {
	createFn         func(question *models.Question) error
	findByIDFn       func(id string) (*models.Question, error)
	findByIDsFn      func(ids []string) ([]models.Question, error)
	updateFn         func(question *models.Question) error
	deleteFn         func(id string) error
	listFn           func(filter repositories.QuestionFilter) ([]models.Question, int64, error)
	countActiveFn    func(language models.Language, isPicture *bool) (int64, error)
	sampleRandomFn   func(language models.Language, isPicture bool, excludeIDs []string, limit int) ([]models.Question, error)
	incrementUsageFn func(ids []string) error
}

func (f *fakeQuestionRepo) Create(question *models.Question) error {
	if f.createFn != nil {
		return f.createFn(question)
	}
	return nil
}

func (f *fakeQuestionRepo) FindByID(id string) (*models.Question, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(id)
	}
	return nil, repositories.ErrQuestionNotFound
}

func (f *fakeQuestionRepo) FindByIDs(ids []string) ([]models.Question, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ids)
	}
	return nil, nil
}

func (f *fakeQuestionRepo) Update(question *models.Question) error {
	if f.updateFn != nil {
		return f.updateFn(question)
	}
	return nil
}

func (f *fakeQuestionRepo) Delete(id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	return nil
}

func (f *fakeQuestionRepo) List(filter repositories.QuestionFilter) ([]models.Question, int64, error) {
	if f.listFn != nil {
		return f.listFn(filter)
	}
	return nil, 0, nil
}

func (f *fakeQuestionRepo) CountActive(language models.Language, isPicture *bool) (int64, error) {
	if f.countActiveFn != nil {
		return f.countActiveFn(language, isPicture)
	}
	return 0, nil
}

func (f *fakeQuestionRepo) SampleRandom(language models.Language, isPicture bool, excludeIDs []string, limit int) ([]models.Question, error) {
	if f.sampleRandomFn != nil {
		return f.sampleRandomFn(language, isPicture, excludeIDs, limit)
	}
	return nil, nil
}

func (f *fakeQuestionRepo) IncrementUsage(ids []string) error {
	if f.incrementUsageFn != nil {
		return f.incrementUsageFn(ids)
	}
	return nil
}

type fakeExamRepo struct {
	createAttemptFn      func(attempt *models.ExamAttempt, answers []models.ExamAnswer) error
	findByIDFn           func(id, userID string) (*models.ExamAttempt, error)
	findInProgressFn     func(userID string) (*models.ExamAttempt, error)
	findInProgressByIDFn func(id, userID string) (*models.ExamAttempt, error)
	recentQuestionIDsFn  func(userID string, window int) ([]string, error)
	recordAnswerFn       func(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error
	correctCountFn       func(attemptID string) (int64, error)
	answeredCountFn      func(attemptID string) (int64, error)
	completeAttemptFn    func(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error
	listByUserFn         func(userID string, page, limit int) ([]models.ExamAttempt, int64, error)
	statsByUserFn        func(userID string) (*repositories.ExamStats, error)
}

func (f *fakeExamRepo) CreateAttemptWithAnswers(attempt *models.ExamAttempt, answers []models.ExamAnswer) error {
	if f.createAttemptFn != nil {
		return f.createAttemptFn(attempt, answers)
	}
	return nil
}

func (f *fakeExamRepo) FindByID(id, userID string) (*models.ExamAttempt, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(id, userID)
	}
	return nil, repositories.ErrExamAttemptNotFound
}

func (f *fakeExamRepo) FindInProgressByUser(userID string) (*models.ExamAttempt, error) {
	if f.findInProgressFn != nil {
		return f.findInProgressFn(userID)
	}
	return nil, repositories.ErrExamAttemptNotFound
}

func (f *fakeExamRepo) FindInProgressByID(id, userID string) (*models.ExamAttempt, error) {
	if f.findInProgressByIDFn != nil {
		return f.findInProgressByIDFn(id, userID)
	}
	return nil, repositories.ErrExamAttemptNotFound
}

func (f *fakeExamRepo) RecentQuestionIDs(userID string, window int) ([]string, error) {
	if f.recentQuestionIDsFn != nil {
		return f.recentQuestionIDsFn(userID, window)
	}
	return nil, nil
}

func (f *fakeExamRepo) RecordAnswer(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error {
	if f.recordAnswerFn != nil {
		return f.recordAnswerFn(attemptID, questionID, selected, isCorrect, answeredAt)
	}
	return nil
}

func (f *fakeExamRepo) CorrectCount(attemptID string) (int64, error) {
	if f.correctCountFn != nil {
		return f.correctCountFn(attemptID)
	}
	return 0, nil
}

func (f *fakeExamRepo) AnsweredCount(attemptID string) (int64, error) {
	if f.answeredCountFn != nil {
		return f.answeredCountFn(attemptID)
	}
	return 0, nil
}

func (f *fakeExamRepo) CompleteAttempt(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error {
	if f.completeAttemptFn != nil {
		return f.completeAttemptFn(attemptID, status, score, passed, autoSubmitted, completedAt)
	}
	return nil
}

func (f *fakeExamRepo) ListByUser(userID string, page, limit int) ([]models.ExamAttempt, int64, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(userID, page, limit)
	}
	return nil, 0, nil
}

func (f *fakeExamRepo) StatsByUser(userID string) (*repositories.ExamStats, error) {
	if f.statsByUserFn != nil {
		return f.statsByUserFn(userID)
	}
	return &repositories.ExamStats{}, nil
}

type fakePaymentRepo struct {
	createFn             func(payment *models.Payment) error
	findByIDFn           func(id string) (*models.Payment, error)
	findByTxIDFn         func(transactionID string) (*models.Payment, error)
	setTransactionIDFn   func(paymentID, transactionID string) error
	markCompletedFn      func(paymentID, transactionID string, completedAt time.Time) error
	markFailedFn         func(paymentID, reason string) error
	reopenFn             func(paymentID string) error
	cancelFn             func(paymentID string) error
	cancelExpiredFn      func(cutoff time.Time) (int64, error)
	listByUserFn         func(userID string, page, limit int) ([]models.Payment, int64, error)
	createProductFn      func(product *models.DigitalProduct) error
	findProductByIDFn    func(id string) (*models.DigitalProduct, error)
	findActiveProductsFn func() ([]models.DigitalProduct, error)
	createPurchaseFn     func(purchase *models.Purchase) error
	hasPurchaseFn        func(userID, productID string) (bool, error)
	listPurchasesFn      func(userID string) ([]models.Purchase, error)
}

func (f *fakePaymentRepo) Create(payment *models.Payment) error {
	if f.createFn != nil {
		return f.createFn(payment)
	}
	return nil
}

func (f *fakePaymentRepo) FindByID(id string) (*models.Payment, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(id)
	}
	return nil, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) FindByTransactionID(transactionID string) (*models.Payment, error) {
	if f.findByTxIDFn != nil {
		return f.findByTxIDFn(transactionID)
	}
	return nil, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) SetTransactionID(paymentID, transactionID string) error {
	if f.setTransactionIDFn != nil {
		return f.setTransactionIDFn(paymentID, transactionID)
	}
	return nil
}

func (f *fakePaymentRepo) MarkCompleted(paymentID, transactionID string, completedAt time.Time) error {
	if f.markCompletedFn != nil {
		return f.markCompletedFn(paymentID, transactionID, completedAt)
	}
	return nil
}

func (f *fakePaymentRepo) MarkFailed(paymentID, reason string) error {
	if f.markFailedFn != nil {
		return f.markFailedFn(paymentID, reason)
	}
	return nil
}

func (f *fakePaymentRepo) Reopen(paymentID string) error {
	if f.reopenFn != nil {
		return f.reopenFn(paymentID)
	}
	return nil
}

func (f *fakePaymentRepo) Cancel(paymentID string) error {
	if f.cancelFn != nil {
		return f.cancelFn(paymentID)
	}
	return nil
}

func (f *fakePaymentRepo) CancelExpired(cutoff time.Time) (int64, error) {
	if f.cancelExpiredFn != nil {
		return f.cancelExpiredFn(cutoff)
	}
	return 0, nil
}

func (f *fakePaymentRepo) ListByUser(userID string, page, limit int) ([]models.Payment, int64, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(userID, page, limit)
	}
	return nil, 0, nil
}

func (f *fakePaymentRepo) CreateProduct(product *models.DigitalProduct) error {
	if f.createProductFn != nil {
		return f.createProductFn(product)
	}
	return nil
}

func (f *fakePaymentRepo) FindProductByID(id string) (*models.DigitalProduct, error) {
	if f.findProductByIDFn != nil {
		return f.findProductByIDFn(id)
	}
	return nil, repositories.ErrProductNotFound
}

func (f *fakePaymentRepo) FindActiveProducts() ([]models.DigitalProduct, error) {
	if f.findActiveProductsFn != nil {
		return f.findActiveProductsFn()
	}
	return nil, nil
}

func (f *fakePaymentRepo) CreatePurchase(purchase *models.Purchase) error {
	if f.createPurchaseFn != nil {
		return f.createPurchaseFn(purchase)
	}
	return nil
}

func (f *fakePaymentRepo) HasPurchase(userID, productID string) (bool, error) {
	if f.hasPurchaseFn != nil {
		return f.hasPurchaseFn(userID, productID)
	}
	return false, nil
}

func (f *fakePaymentRepo) ListPurchasesByUser(userID string) ([]models.Purchase, error) {
	if f.listPurchasesFn != nil {
		return f.listPurchasesFn(userID)
	}
	return nil, nil
}

type fakeGateway struct {
	payFn func(ctx context.Context, req gateway.PayRequest) (*gateway.PayResponse, error)
}

func (f *fakeGateway) Pay(ctx context.Context, req gateway.PayRequest) (*gateway.PayResponse, error) {
	if f.payFn != nil {
		return f.payFn(ctx, req)
	}
	return &gateway.PayResponse{TransactionID: "tx-fake", Status: "pending"}, nil
}
