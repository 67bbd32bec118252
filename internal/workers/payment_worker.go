package workers

import (
	"context"
	"time"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/repositories"
)

// PaymentWorker sweeps abandoned pending payments and deactivates
// expired subscriptions in the background.
type PaymentWorker struct {
	paymentRepo      repositories.PaymentRepository
	subscriptionRepo repositories.SubscriptionRepository
	sweepInterval    time.Duration
	pendingExpiry    time.Duration
	now              func() time.Time
}

func NewPaymentWorker(
	paymentRepo repositories.PaymentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	cfg *config.Config,
) *PaymentWorker {
	return &PaymentWorker{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		sweepInterval:    time.Duration(cfg.Payment.SweepIntervalMinutes) * time.Minute,
		pendingExpiry:    time.Duration(cfg.Payment.PendingExpiryMinutes) * time.Minute,
		now:              time.Now,
	}
}

// Start launches the background loops. They stop when ctx is cancelled.
func (w *PaymentWorker) Start(ctx context.Context) {
	go w.sweepLoop(ctx)
	go w.expiryLoop(ctx)
}

func (w *PaymentWorker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("payment worker stopped")
			return
		case <-ticker.C:
			if _, err := w.SweepExpiredPayments(); err != nil {
				logger.WorkerLog("payment_worker", "sweep_expired_payments", err)
			}
		}
	}
}

func (w *PaymentWorker) expiryLoop(ctx context.Context) {
	// Subscription expiry is also checked lazily on exam access; this
	// loop keeps the table clean between accesses
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SweepExpiredSubscriptions(); err != nil {
				logger.WorkerLog("payment_worker", "sweep_expired_subscriptions", err)
			}
		}
	}
}

// SweepExpiredPayments cancels pending payments older than the expiry
// window. Returns the number of payments swept.
func (w *PaymentWorker) SweepExpiredPayments() (int64, error) {
	cutoff := w.now().Add(-w.pendingExpiry)

	swept, err := w.paymentRepo.CancelExpired(cutoff)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		logger.Info("cancelled expired pending payments", "count", swept, "cutoff", cutoff)
	}
	return swept, nil
}

// SweepExpiredSubscriptions deactivates subscriptions whose end date
// has passed.
func (w *PaymentWorker) SweepExpiredSubscriptions() (int64, error) {
	expired, err := w.subscriptionRepo.DeactivateExpired(w.now())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		logger.Info("deactivated expired subscriptions", "count", expired)
	}
	return expired, nil
}
