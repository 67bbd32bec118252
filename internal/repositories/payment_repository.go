package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ikizamini_backend/internal/models"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentNotPending = errors.New("payment is not pending")
	ErrProductNotFound   = errors.New("product not found")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrDuplicatePurchase = errors.New("product already purchased")
)

type PaymentRepository interface {
	Create(payment *models.Payment) error
	FindByID(id string) (*models.Payment, error)
	FindByTransactionID(transactionID string) (*models.Payment, error)

	// SetTransactionID attaches the gateway reference to a pending
	// payment so the webhook can find it later.
	SetTransactionID(paymentID, transactionID string) error

	// MarkCompleted moves the payment from pending to completed. The
	// status guard makes the transition first-wins: a second caller
	// gets ErrPaymentNotPending.
	MarkCompleted(paymentID string, transactionID string, completedAt time.Time) error
	MarkFailed(paymentID, reason string) error
	Cancel(paymentID string) error

	// Reopen returns a failed payment to pending so initiation can be
	// retried. Any other status returns ErrPaymentNotPending.
	Reopen(paymentID string) error

	// CancelExpired bulk-cancels pending payments created before the
	// cutoff. Returns the number of rows swept.
	CancelExpired(cutoff time.Time) (int64, error)

	ListByUser(userID string, page, limit int) ([]models.Payment, int64, error)

	// Product operations
	CreateProduct(product *models.DigitalProduct) error
	FindProductByID(id string) (*models.DigitalProduct, error)
	FindActiveProducts() ([]models.DigitalProduct, error)

	// Purchase operations
	CreatePurchase(purchase *models.Purchase) error
	HasPurchase(userID, productID string) (bool, error)
	ListPurchasesByUser(userID string) ([]models.Purchase, error)
}

type PaymentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{db: db}
}

func (r *PaymentRepositoryImpl) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepositoryImpl) FindByID(id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Preload("Plan").Preload("Product").First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) FindByTransactionID(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Preload("Plan").Preload("Product").
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) SetTransactionID(paymentID, transactionID string) error {
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Update("transaction_id", transactionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}
	return nil
}

func (r *PaymentRepositoryImpl) MarkCompleted(paymentID string, transactionID string, completedAt time.Time) error {
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusCompleted,
			"transaction_id": transactionID,
			"completed_at":   completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}
	return nil
}

func (r *PaymentRepositoryImpl) MarkFailed(paymentID, reason string) error {
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusFailed,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}
	return nil
}

func (r *PaymentRepositoryImpl) Reopen(paymentID string) error {
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusFailed).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusPending,
			"failure_reason": "",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}
	return nil
}

func (r *PaymentRepositoryImpl) Cancel(paymentID string) error {
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Update("status", models.PaymentStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}
	return nil
}

func (r *PaymentRepositoryImpl) CancelExpired(cutoff time.Time) (int64, error) {
	result := r.db.Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusCancelled,
			"failure_reason": "payment window expired",
		})
	return result.RowsAffected, result.Error
}

func (r *PaymentRepositoryImpl) ListByUser(userID string, page, limit int) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	var payments []models.Payment
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payments).Error
	return payments, total, err
}

// Product operations

func (r *PaymentRepositoryImpl) CreateProduct(product *models.DigitalProduct) error {
	return r.db.Create(product).Error
}

func (r *PaymentRepositoryImpl) FindProductByID(id string) (*models.DigitalProduct, error) {
	var product models.DigitalProduct
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *PaymentRepositoryImpl) FindActiveProducts() ([]models.DigitalProduct, error) {
	var products []models.DigitalProduct
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&products).Error
	return products, err
}

// Purchase operations

func (r *PaymentRepositoryImpl) CreatePurchase(purchase *models.Purchase) error {
	err := r.db.Create(purchase).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePurchase
	}
	return err
}

func (r *PaymentRepositoryImpl) HasPurchase(userID, productID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Purchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepositoryImpl) ListPurchasesByUser(userID string) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}
