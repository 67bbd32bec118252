package dto

import "time"

type InitiatePaymentRequest struct {
	Type        string `json:"type" validate:"required,oneof=subscription product"`
	PlanID      string `json:"planId" validate:"required_if=Type subscription,omitempty,uuid"`
	ProductID   string `json:"productId" validate:"required_if=Type product,omitempty,uuid"`
	Method      string `json:"method" validate:"required,oneof=mtn_momo airtel_money spenn"`
	PhoneNumber string `json:"phoneNumber" validate:"required,rwphone"`
}

type PaymentResponse struct {
	ID            string     `json:"id"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	PhoneNumber   string     `json:"phoneNumber"`
	Method        string     `json:"method"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transactionId,omitempty"`
	PlanID        string     `json:"planId,omitempty"`
	ProductID     string     `json:"productId,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// VerifyPaymentRequest is the gateway webhook payload.
type VerifyPaymentRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=success failed"`
	Reason        string `json:"reason"`
}

type PaymentHistoryResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Purchased   bool    `json:"purchased"`
}

type PurchaseResponse struct {
	ID          string          `json:"id"`
	Product     ProductResponse `json:"product"`
	PurchasedAt time.Time       `json:"purchasedAt"`
}
