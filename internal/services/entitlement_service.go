package services

import (
	"time"

	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/pkg/apperrors"
)

// EntitlementService gates exam access on the user's subscription.
type EntitlementService interface {
	// CheckAccess returns the subscription a new exam would run under.
	// Admins bypass the check and get a nil subscription. An expired
	// subscription is deactivated as a side effect.
	CheckAccess(userID string, role models.UserRole) (*models.UserSubscription, error)

	// ConsumeAttempt takes one attempt from the subscription. A nil
	// subscription (admin bypass) consumes nothing.
	ConsumeAttempt(sub *models.UserSubscription) error

	MySubscription(userID string) (*dto.MySubscriptionResponse, error)
}

type entitlementService struct {
	subscriptionRepo repositories.SubscriptionRepository
	now              func() time.Time
}

func NewEntitlementService(subscriptionRepo repositories.SubscriptionRepository) EntitlementService {
	return &entitlementService{
		subscriptionRepo: subscriptionRepo,
		now:              time.Now,
	}
}

func (s *entitlementService) CheckAccess(userID string, role models.UserRole) (*models.UserSubscription, error) {
	if role == models.UserRoleAdmin {
		return nil, nil
	}

	sub, err := s.subscriptionRepo.FindByUser(userID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			return nil, apperrors.ErrNoSubscription
		}
		return nil, apperrors.InternalError(err)
	}

	if !sub.IsActive {
		return nil, apperrors.ErrNoSubscription
	}

	if sub.IsExpired(s.now()) {
		// Lazy expiry: flip the flag on first access after the window
		// closes, ahead of any sweeper run
		if err := s.subscriptionRepo.Deactivate(sub.ID); err != nil {
			logger.Error("failed to deactivate expired subscription", "subscription_id", sub.ID, "error", err)
		}
		return nil, apperrors.ErrSubscriptionExpired
	}

	if !sub.Plan.IsUnlimited() && sub.ExamAttemptsUsed >= *sub.Plan.ExamLimit {
		return nil, apperrors.ErrExamLimitReached(sub.ExamAttemptsUsed, *sub.Plan.ExamLimit)
	}

	return sub, nil
}

func (s *entitlementService) ConsumeAttempt(sub *models.UserSubscription) error {
	if sub == nil {
		return nil
	}

	err := s.subscriptionRepo.ConsumeAttempt(sub.ID)
	if err == repositories.ErrAttemptsExhausted {
		// Lost the race for the last attempt
		limit := 0
		if !sub.Plan.IsUnlimited() {
			limit = *sub.Plan.ExamLimit
		}
		return apperrors.ErrExamLimitReached(limit, limit)
	}
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *entitlementService) MySubscription(userID string) (*dto.MySubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByUser(userID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			return nil, apperrors.ErrNoSubscription
		}
		return nil, apperrors.InternalError(err)
	}

	limit := 0
	if !sub.Plan.IsUnlimited() {
		limit = *sub.Plan.ExamLimit
	}

	return &dto.MySubscriptionResponse{
		PlanType:          sub.Plan.Type,
		PlanName:          planNameFor(&sub.Plan, models.LanguageEnglish),
		StartDate:         sub.StartDate,
		EndDate:           sub.EndDate,
		ExamAttemptsUsed:  sub.ExamAttemptsUsed,
		ExamLimit:         limit,
		AttemptsRemaining: sub.AttemptsRemaining(),
		IsActive:          sub.IsActive,
		IsExpired:         sub.IsExpired(s.now()),
	}, nil
}
