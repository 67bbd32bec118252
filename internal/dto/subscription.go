package dto

import "time"

// PlanResponse renders a plan with name and description resolved to the
// requested language.
type PlanResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"durationDays"`
	ExamLimit    int     `json:"examLimit"` // 0 means unlimited
}

type CreatePlanRequest struct {
	Type         string            `json:"type" validate:"required,min=2,max=32"`
	Name         map[string]string `json:"name" validate:"required"`
	Description  map[string]string `json:"description"`
	Price        float64           `json:"price" validate:"required,min=0"`
	Currency     string            `json:"currency" validate:"omitempty,len=3"`
	DurationDays int               `json:"durationDays" validate:"required,min=1"`
	ExamLimit    int               `json:"examLimit" validate:"min=0"`
}

type UpdatePlanRequest struct {
	Name         map[string]string `json:"name"`
	Description  map[string]string `json:"description"`
	Price        *float64          `json:"price" validate:"omitempty,min=0"`
	DurationDays *int              `json:"durationDays" validate:"omitempty,min=1"`
	ExamLimit    *int              `json:"examLimit" validate:"omitempty,min=0"`
	IsActive     *bool             `json:"isActive"`
}

type MySubscriptionResponse struct {
	PlanType          string    `json:"planType"`
	PlanName          string    `json:"planName"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	ExamAttemptsUsed  int       `json:"examAttemptsUsed"`
	ExamLimit         int       `json:"examLimit"` // 0 means unlimited
	AttemptsRemaining int       `json:"attemptsRemaining"` // -1 means unlimited
	IsActive          bool      `json:"isActive"`
	IsExpired         bool      `json:"isExpired"`
}
