package models

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ikizamini_backend/internal/validator"
)

type Payment struct {
	BaseModel
	UserID        string        `gorm:"type:uuid;not null;index" json:"userId"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Currency      string        `gorm:"default:'RWF'" json:"currency"`
	PhoneNumber   string        `gorm:"not null" json:"phoneNumber"`
	Method        PaymentMethod `gorm:"type:varchar(16);not null" json:"method"`
	Type          PaymentType   `gorm:"type:varchar(16);not null" json:"type"`
	Status        PaymentStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`
	TransactionID *string       `gorm:"uniqueIndex" json:"transactionId,omitempty"`
	PlanID        *string       `gorm:"type:uuid" json:"planId,omitempty"`
	ProductID     *string       `gorm:"type:uuid" json:"productId,omitempty"`
	FailureReason string        `json:"failureReason,omitempty"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`

	// Relations
	User    User              `gorm:"foreignKey:UserID" json:"-"`
	Plan    *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"-"`
	Product *DigitalProduct   `gorm:"foreignKey:ProductID" json:"-"`
}

// BeforeSave normalizes the phone number to the local 07XXXXXXXX form
// and rejects numbers that do not normalize to a valid Rwandan mobile.
func (p *Payment) BeforeSave(tx *gorm.DB) error {
	p.PhoneNumber = validator.NormalizePhone(p.PhoneNumber)

	if !validator.IsValidRwandanPhone(p.PhoneNumber) {
		return errors.New("invalid phone number: must be 10 digits starting with 07")
	}

	if !IsValidPaymentMethod(p.Method) {
		return errors.New("unsupported payment method")
	}

	switch p.Type {
	case PaymentTypeSubscription:
		if p.PlanID == nil {
			return errors.New("subscription payment requires a plan reference")
		}
	case PaymentTypeProduct:
		if p.ProductID == nil {
			return errors.New("product payment requires a product reference")
		}
	default:
		return errors.New("payment type must be subscription or product")
	}

	return nil
}

// DigitalProduct is a one-off purchasable item (study guide, question
// pack export).
type DigitalProduct struct {
	BaseModel
	Name        string  `gorm:"not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	Currency    string  `gorm:"default:'RWF'" json:"currency"`
	FileURL     string  `json:"fileUrl,omitempty"`
	IsActive    bool    `gorm:"default:true" json:"isActive"`
}

// Purchase records a completed product payment. One row per user and
// product.
type Purchase struct {
	BaseModel
	UserID    string `gorm:"type:uuid;not null;index:idx_user_product,unique" json:"userId"`
	ProductID string `gorm:"type:uuid;not null;index:idx_user_product,unique" json:"productId"`
	PaymentID string `gorm:"type:uuid;not null" json:"paymentId"`

	// Relations
	Product DigitalProduct `gorm:"foreignKey:ProductID" json:"product"`
}
