package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ikizamini_backend/internal/models"
)

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrPlanAlreadyExists    = errors.New("subscription plan type already exists")
	ErrSubscriptionNotFound = errors.New("user subscription not found")
	ErrAttemptsExhausted    = errors.New("exam attempts exhausted")
)

type SubscriptionRepository interface {
	// Plan operations
	CreatePlan(plan *models.SubscriptionPlan) error
	FindPlanByID(id string) (*models.SubscriptionPlan, error)
	FindPlanByType(planType string) (*models.SubscriptionPlan, error)
	FindActivePlans() ([]models.SubscriptionPlan, error)
	UpdatePlan(plan *models.SubscriptionPlan) error
	DeletePlan(id string) error
	CountPlans() (int64, error)

	// UserSubscription operations
	FindByUser(userID string) (*models.UserSubscription, error)
	Deactivate(subscriptionID string) error

	// ConsumeAttempt atomically increments the usage counter, guarded
	// by the plan limit in the same statement. Returns
	// ErrAttemptsExhausted when the limit was already reached.
	ConsumeAttempt(subscriptionID string) error

	// DeactivateExpired bulk-flips subscriptions whose window closed
	// before the cutoff. Returns the number of rows affected.
	DeactivateExpired(cutoff time.Time) (int64, error)

	// ApplyPlan grants the plan to the user, overwriting any existing
	// subscription row in place with a fresh window and zero usage.
	ApplyPlan(userID, planID string, startDate, endDate time.Time) error
}

type SubscriptionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &SubscriptionRepositoryImpl{db: db}
}

// Plan operations

func (r *SubscriptionRepositoryImpl) CreatePlan(plan *models.SubscriptionPlan) error {
	err := r.db.Create(plan).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrPlanAlreadyExists
	}
	return err
}

func (r *SubscriptionRepositoryImpl) FindPlanByID(id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepositoryImpl) FindPlanByType(planType string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.Where("type = ?", planType).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepositoryImpl) FindActivePlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *SubscriptionRepositoryImpl) UpdatePlan(plan *models.SubscriptionPlan) error {
	result := r.db.Model(plan).Updates(map[string]interface{}{
		"name":          plan.Name,
		"description":   plan.Description,
		"price":         plan.Price,
		"currency":      plan.Currency,
		"duration_days": plan.DurationDays,
		"exam_limit":    plan.ExamLimit,
		"is_active":     plan.IsActive,
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) DeletePlan(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.SubscriptionPlan{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) CountPlans() (int64, error) {
	var count int64
	err := r.db.Model(&models.SubscriptionPlan{}).Count(&count).Error
	return count, err
}

// UserSubscription operations

func (r *SubscriptionRepositoryImpl) FindByUser(userID string) (*models.UserSubscription, error) {
	var subscription models.UserSubscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *SubscriptionRepositoryImpl) Deactivate(subscriptionID string) error {
	result := r.db.Model(&models.UserSubscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ConsumeAttempt increments usage and checks the plan limit in one
// statement, so two concurrent exam starts cannot both take the last
// attempt.
func (r *SubscriptionRepositoryImpl) ConsumeAttempt(subscriptionID string) error {
	result := r.db.Exec(`
		UPDATE user_subscriptions us
		SET exam_attempts_used = us.exam_attempts_used + 1,
		    updated_at = now()
		FROM subscription_plans p
		WHERE us.id = ?
		  AND us.plan_id = p.id
		  AND us.is_active = true
		  AND (p.exam_limit IS NULL OR p.exam_limit = 0 OR us.exam_attempts_used < p.exam_limit)
	`, subscriptionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAttemptsExhausted
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) DeactivateExpired(cutoff time.Time) (int64, error) {
	result := r.db.Model(&models.UserSubscription{}).
		Where("is_active = ? AND end_date < ?", true, cutoff).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepositoryImpl) ApplyPlan(userID, planID string, startDate, endDate time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserSubscription
		err := tx.Where("user_id = ?", userID).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.UserSubscription{
				UserID:    userID,
				PlanID:    planID,
				StartDate: startDate,
				EndDate:   endDate,
				IsActive:  true,
			}).Error
		}
		if err != nil {
			return err
		}

		// Overwrite in place: a repeat purchase replaces the window and
		// resets usage rather than stacking
		return tx.Model(&existing).Updates(map[string]interface{}{
			"plan_id":            planID,
			"start_date":         startDate,
			"end_date":           endDate,
			"exam_attempts_used": 0,
			"is_active":          true,
			"updated_at":         time.Now(),
		}).Error
	})
}
