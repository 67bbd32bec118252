package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan is a purchasable entitlement tier. Name, Description
// and the display Price fields are keyed by language code in jsonb, e.g.
// {"en": "Weekly", "fr": "Hebdomadaire", "rw": "Icyumweru"}.
type SubscriptionPlan struct {
	BaseModel
	Type         string         `gorm:"uniqueIndex;not null" json:"type"` // "daily", "weekly", "monthly", ...
	Name         datatypes.JSON `gorm:"type:jsonb;not null" json:"name"`
	Description  datatypes.JSON `gorm:"type:jsonb" json:"description"`
	Price        float64        `gorm:"not null" json:"price"`
	Currency     string         `gorm:"default:'RWF'" json:"currency"`
	DurationDays int            `gorm:"not null" json:"durationDays"`
	ExamLimit    *int           `json:"examLimit"` // nil or 0 means unlimited
	IsActive     bool           `gorm:"default:true" json:"isActive"`
}

// IsUnlimited reports whether the plan places no cap on exam attempts.
func (p *SubscriptionPlan) IsUnlimited() bool {
	return p.ExamLimit == nil || *p.ExamLimit == 0
}

// EntitlementEnd returns the end of the subscription window granted by
// this plan. Count-based plans carry no duration; they get a far-future
// end date so the attempt limit, not the clock, exhausts them.
func (p *SubscriptionPlan) EntitlementEnd(start time.Time) time.Time {
	if p.DurationDays <= 0 {
		return start.AddDate(10, 0, 0)
	}
	return start.AddDate(0, 0, p.DurationDays)
}

// UserSubscription is the single entitlement row per user. A repeat
// purchase overwrites this row in place rather than stacking a second
// subscription.
type UserSubscription struct {
	BaseModel
	UserID           string    `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	PlanID           string    `gorm:"type:uuid;not null;index" json:"planId"`
	StartDate        time.Time `gorm:"not null" json:"startDate"`
	EndDate          time.Time `gorm:"not null" json:"endDate"`
	ExamAttemptsUsed int       `gorm:"default:0" json:"examAttemptsUsed"`
	IsActive         bool      `gorm:"default:true;index" json:"isActive"`

	// Relations
	Plan SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan"`
}

// IsExpired reports whether the subscription window has closed at the
// given instant.
func (s *UserSubscription) IsExpired(now time.Time) bool {
	return now.After(s.EndDate)
}

// AttemptsRemaining returns the remaining attempt count, or -1 when the
// plan is unlimited.
func (s *UserSubscription) AttemptsRemaining() int {
	if s.Plan.IsUnlimited() {
		return -1
	}
	remaining := *s.Plan.ExamLimit - s.ExamAttemptsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
