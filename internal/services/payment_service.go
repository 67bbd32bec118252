package services

import (
	"context"
	"strings"
	"time"

	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/gateway"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/internal/validator"
	"ikizamini_backend/pkg/apperrors"
)

// PaymentService runs the mobile-money payment lifecycle and applies
// the purchased entitlement exactly once per completed payment.
type PaymentService interface {
	InitiatePayment(ctx context.Context, userID string, req *dto.InitiatePaymentRequest) (*dto.PaymentResponse, error)

	// ReinitiatePayment retries the gateway charge for an existing
	// payment. Completed and cancelled payments are rejected; a
	// gateway-failed payment is reopened and charged again.
	ReinitiatePayment(ctx context.Context, userID, paymentID string) (*dto.PaymentResponse, error)

	// VerifyPayment handles the gateway webhook. Repeated deliveries
	// for an already-settled payment are a no-op.
	VerifyPayment(req *dto.VerifyPaymentRequest) error

	GetPayment(userID, paymentID string) (*dto.PaymentResponse, error)
	CancelPayment(userID, paymentID string) error
	GetHistory(userID string, page, limit int) (*dto.PaymentHistoryResponse, error)

	// ManualVerify lets an admin settle a payment the webhook missed.
	ManualVerify(paymentID string) error

	ListProducts(userID string) ([]dto.ProductResponse, error)
	ListPurchases(userID string) ([]dto.PurchaseResponse, error)
}

type paymentService struct {
	paymentRepo      repositories.PaymentRepository
	subscriptionRepo repositories.SubscriptionRepository
	gateway          gateway.PaymentGateway
	now              func() time.Time
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	gw gateway.PaymentGateway,
) PaymentService {
	return &paymentService{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		gateway:          gw,
		now:              time.Now,
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, userID string, req *dto.InitiatePaymentRequest) (*dto.PaymentResponse, error) {
	phone := validator.NormalizePhone(req.PhoneNumber)
	if !validator.IsValidRwandanPhone(phone) {
		return nil, apperrors.ErrInvalidPhone
	}

	payment := &models.Payment{
		UserID:      userID,
		PhoneNumber: phone,
		Method:      models.PaymentMethod(req.Method),
		Type:        models.PaymentType(req.Type),
		Status:      models.PaymentStatusPending,
	}

	switch payment.Type {
	case models.PaymentTypeSubscription:
		plan, err := s.subscriptionRepo.FindPlanByID(req.PlanID)
		if err != nil {
			if err == repositories.ErrPlanNotFound {
				return nil, apperrors.ErrNotFound(err)
			}
			return nil, apperrors.InternalError(err)
		}
		payment.Amount = plan.Price
		payment.Currency = plan.Currency
		payment.PlanID = &plan.ID

	case models.PaymentTypeProduct:
		product, err := s.paymentRepo.FindProductByID(req.ProductID)
		if err != nil {
			if err == repositories.ErrProductNotFound {
				return nil, apperrors.ErrNotFound(err)
			}
			return nil, apperrors.InternalError(err)
		}

		owned, err := s.paymentRepo.HasPurchase(userID, product.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if owned {
			return nil, apperrors.ErrPurchaseExists
		}

		payment.Amount = product.Price
		payment.Currency = product.Currency
		payment.ProductID = &product.ID
	}

	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return s.runGateway(ctx, payment)
}

// ReinitiatePayment retries an existing payment by id. This is the path
// for charges the provider rejected: the row is reopened and sent back
// to the gateway. Swept (cancelled) and completed payments stay final.
func (s *paymentService) ReinitiatePayment(ctx context.Context, userID, paymentID string) (*dto.PaymentResponse, error) {
	payment, err := s.findOwned(userID, paymentID)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case models.PaymentStatusCompleted:
		return nil, apperrors.ErrPaymentAlreadyCompleted
	case models.PaymentStatusCancelled:
		return nil, apperrors.ErrPaymentNotPending(string(payment.Status))
	case models.PaymentStatusFailed:
		if err := s.paymentRepo.Reopen(payment.ID); err != nil {
			if err == repositories.ErrPaymentNotPending {
				return nil, apperrors.ErrPaymentNotPending(string(payment.Status))
			}
			return nil, apperrors.InternalError(err)
		}
	}

	return s.runGateway(ctx, payment)
}

// runGateway charges the payment's phone and records the outcome. A
// synchronous provider settlement completes the payment right here;
// otherwise the transaction id is stored for the webhook to find.
func (s *paymentService) runGateway(ctx context.Context, payment *models.Payment) (*dto.PaymentResponse, error) {
	resp, err := s.gateway.Pay(ctx, gateway.PayRequest{
		Amount:      payment.Amount,
		PhoneNumber: payment.PhoneNumber,
		Method:      payment.Method,
	})
	if err != nil {
		// A known gateway failure must not leave the row pending
		if markErr := s.paymentRepo.MarkFailed(payment.ID, err.Error()); markErr != nil {
			logger.Error("failed to mark payment failed", "payment_id", payment.ID, "error", markErr)
		}
		return nil, err
	}

	if resp.TransactionID != "" {
		if isSettledStatus(resp.Status) {
			// Some methods settle synchronously
			if err := s.completePayment(payment.ID, resp.TransactionID); err != nil {
				return nil, err
			}
		} else if err := s.paymentRepo.SetTransactionID(payment.ID, resp.TransactionID); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	fresh, err := s.paymentRepo.FindByID(payment.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("payment initiated",
		"payment_id", fresh.ID,
		"user_id", fresh.UserID,
		"type", fresh.Type,
		"method", fresh.Method,
		"amount", fresh.Amount,
		"status", fresh.Status,
	)

	return paymentToDTO(fresh), nil
}

func (s *paymentService) VerifyPayment(req *dto.VerifyPaymentRequest) error {
	payment, err := s.paymentRepo.FindByTransactionID(req.TransactionID)
	if err != nil {
		if err == repositories.ErrPaymentNotFound {
			return apperrors.ErrPaymentNotFound
		}
		return apperrors.InternalError(err)
	}

	// Idempotent: the provider retries webhooks
	if payment.Status != models.PaymentStatusPending {
		return nil
	}

	if req.Status != "success" {
		reason := req.Reason
		if reason == "" {
			reason = "payment failed at provider"
		}
		if err := s.paymentRepo.MarkFailed(payment.ID, reason); err != nil && err != repositories.ErrPaymentNotPending {
			return apperrors.InternalError(err)
		}
		return nil
	}

	return s.completePayment(payment.ID, req.TransactionID)
}

// completePayment settles the payment and grants the entitlement. The
// status-guarded update is the exactly-once gate: only the caller that
// flips pending to completed applies the grant.
func (s *paymentService) completePayment(paymentID, transactionID string) error {
	err := s.paymentRepo.MarkCompleted(paymentID, transactionID, s.now())
	if err != nil {
		if err == repositories.ErrPaymentNotPending {
			// Another path already settled it
			return nil
		}
		return apperrors.InternalError(err)
	}

	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.applyEntitlement(payment); err != nil {
		return err
	}

	logger.Info("payment completed",
		"payment_id", payment.ID,
		"user_id", payment.UserID,
		"type", payment.Type,
		"transaction_id", transactionID,
	)
	return nil
}

func (s *paymentService) applyEntitlement(payment *models.Payment) error {
	switch payment.Type {
	case models.PaymentTypeSubscription:
		if payment.PlanID == nil {
			return apperrors.ErrMissingPaymentMetadata
		}

		plan, err := s.subscriptionRepo.FindPlanByID(*payment.PlanID)
		if err != nil {
			return apperrors.InternalError(err)
		}

		start := s.now()
		end := plan.EntitlementEnd(start)

		if err := s.subscriptionRepo.ApplyPlan(payment.UserID, plan.ID, start, end); err != nil {
			return apperrors.InternalError(err)
		}

	case models.PaymentTypeProduct:
		if payment.ProductID == nil {
			return apperrors.ErrMissingPaymentMetadata
		}

		err := s.paymentRepo.CreatePurchase(&models.Purchase{
			UserID:    payment.UserID,
			ProductID: *payment.ProductID,
			PaymentID: payment.ID,
		})
		// A duplicate here means a replayed settlement; the purchase
		// already exists, which is the desired end state
		if err != nil && err != repositories.ErrDuplicatePurchase {
			return apperrors.InternalError(err)
		}
	}

	return nil
}

func (s *paymentService) GetPayment(userID, paymentID string) (*dto.PaymentResponse, error) {
	payment, err := s.findOwned(userID, paymentID)
	if err != nil {
		return nil, err
	}
	return paymentToDTO(payment), nil
}

func (s *paymentService) CancelPayment(userID, paymentID string) error {
	payment, err := s.findOwned(userID, paymentID)
	if err != nil {
		return err
	}

	if payment.Status != models.PaymentStatusPending {
		return apperrors.ErrPaymentNotPending(string(payment.Status))
	}

	if err := s.paymentRepo.Cancel(payment.ID); err != nil {
		if err == repositories.ErrPaymentNotPending {
			return apperrors.ErrPaymentNotPending(string(models.PaymentStatusCompleted))
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *paymentService) GetHistory(userID string, page, limit int) (*dto.PaymentHistoryResponse, error) {
	payments, total, err := s.paymentRepo.ListByUser(userID, page, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		out[i] = *paymentToDTO(&payments[i])
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	return &dto.PaymentHistoryResponse{
		Payments: out,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *paymentService) ManualVerify(paymentID string) error {
	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		if err == repositories.ErrPaymentNotFound {
			return apperrors.ErrPaymentNotFound
		}
		return apperrors.InternalError(err)
	}

	if payment.Status == models.PaymentStatusCompleted {
		return apperrors.ErrPaymentAlreadyCompleted
	}
	if payment.Status != models.PaymentStatusPending {
		return apperrors.ErrPaymentNotPending(string(payment.Status))
	}

	transactionID := "manual-" + payment.ID
	if payment.TransactionID != nil && *payment.TransactionID != "" {
		transactionID = *payment.TransactionID
	}

	return s.completePayment(payment.ID, transactionID)
}

func (s *paymentService) ListProducts(userID string) ([]dto.ProductResponse, error) {
	products, err := s.paymentRepo.FindActiveProducts()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	purchases, err := s.paymentRepo.ListPurchasesByUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	owned := make(map[string]bool, len(purchases))
	for _, p := range purchases {
		owned[p.ProductID] = true
	}

	out := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		out[i] = dto.ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Currency:    p.Currency,
			Purchased:   owned[p.ID],
		}
	}
	return out, nil
}

func (s *paymentService) ListPurchases(userID string) ([]dto.PurchaseResponse, error) {
	purchases, err := s.paymentRepo.ListPurchasesByUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.PurchaseResponse, len(purchases))
	for i, p := range purchases {
		out[i] = dto.PurchaseResponse{
			ID: p.ID,
			Product: dto.ProductResponse{
				ID:          p.Product.ID,
				Name:        p.Product.Name,
				Description: p.Product.Description,
				Price:       p.Product.Price,
				Currency:    p.Product.Currency,
				Purchased:   true,
			},
			PurchasedAt: p.CreatedAt,
		}
	}
	return out, nil
}

func (s *paymentService) findOwned(userID, paymentID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		if err == repositories.ErrPaymentNotFound {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if payment.UserID != userID {
		return nil, apperrors.ErrPaymentUnauthorized
	}
	return payment, nil
}

func isSettledStatus(status string) bool {
	switch strings.ToLower(status) {
	case "success", "successful", "completed", "paid":
		return true
	}
	return false
}

func paymentToDTO(p *models.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:            p.ID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PhoneNumber:   p.PhoneNumber,
		Method:        string(p.Method),
		Type:          string(p.Type),
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
	if p.TransactionID != nil {
		resp.TransactionID = *p.TransactionID
	}
	if p.PlanID != nil {
		resp.PlanID = *p.PlanID
	}
	if p.ProductID != nil {
		resp.ProductID = *p.ProductID
	}
	return resp
}
