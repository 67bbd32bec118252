package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/pkg/apperrors"
)

// PaymentGateway initiates mobile-money charges with the provider.
type PaymentGateway interface {
	Pay(ctx context.Context, req PayRequest) (*PayResponse, error)
}

type PayRequest struct {
	Amount      float64
	PhoneNumber string
	Method      models.PaymentMethod
}

type PayResponse struct {
	TransactionID string
	Status        string
}

// ITECPay talks to the ITEC mobile-money aggregator. Each payment
// method carries its own API key.
type ITECPay struct {
	apiURL string
	keys   map[models.PaymentMethod]string
	client *http.Client
}

func NewITECPay(cfg *config.Config) *ITECPay {
	return &ITECPay{
		apiURL: cfg.Payment.APIURL,
		keys: map[models.PaymentMethod]string{
			models.PaymentMethodMTN:    cfg.Payment.MTNAPIKey,
			models.PaymentMethodAirtel: cfg.Payment.AirtelAPIKey,
			models.PaymentMethodSpenn:  cfg.Payment.SpennAPIKey,
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type itecPayload struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone"`
	Key    string  `json:"key"`
}

type itecResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
	} `json:"data"`
}

func (g *ITECPay) Pay(ctx context.Context, req PayRequest) (*PayResponse, error) {
	key := g.keys[req.Method]
	if key == "" {
		return nil, apperrors.ErrGatewayUnconfigured(string(req.Method))
	}

	body, err := json.Marshal(itecPayload{
		Amount: req.Amount,
		Phone:  req.PhoneNumber,
		Key:    key,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		logger.GatewayLog(string(req.Method), 0, time.Since(start), err)
		return nil, apperrors.ErrGateway(err, "Payment provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.ErrGateway(err, "Failed to read provider response")
	}

	logger.GatewayLog(string(req.Method), resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.ErrGateway(
			fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, raw),
			"Payment provider rejected the request",
		)
	}

	var parsed itecResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperrors.ErrGateway(err, "Malformed provider response")
	}

	status := parsed.Data.Status
	if status == "" {
		status = parsed.Status
	}

	return &PayResponse{
		TransactionID: parsed.Data.TransactionID,
		Status:        status,
	}, nil
}
