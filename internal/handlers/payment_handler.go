package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/middleware"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/services"
	"ikizamini_backend/pkg/apperrors"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	cfg            *config.Config
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		cfg:            cfg,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		// External callback, authenticated by signature instead of JWT
		payments.POST("/verify", h.VerifyPayment)
	}

	authed := r.Group("/payments")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("", h.InitiatePayment)
		authed.POST("/:paymentId/initiate", h.ReinitiatePayment)
		authed.GET("/history", h.GetHistory)
		authed.GET("/:paymentId", h.GetPayment)
		authed.PUT("/:paymentId/cancel", h.CancelPayment)
	}

	adminPayments := r.Group("/admin/payments")
	adminPayments.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		adminPayments.POST("/:paymentId/verify", h.ManualVerify)
	}

	products := r.Group("/products")
	products.Use(middleware.AuthMiddleware())
	{
		products.GET("", h.ListProducts)
		products.GET("/purchases", h.ListPurchases)
	}
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.InitiatePaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.InitiatePayment(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ReinitiatePayment retries the gateway charge for an existing payment.
func (h *PaymentHandler) ReinitiatePayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.ReinitiatePayment(c.Request.Context(), userID, c.Param("paymentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyPayment is the gateway webhook. When a webhook secret is
// configured the request must carry a valid HMAC signature; without a
// secret the check is skipped, which is only acceptable in development.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	if secret := h.cfg.Payment.WebhookSecret; secret != "" {
		signature := c.GetHeader("X-Webhook-Signature")
		if !validSignature(body, signature, secret) {
			logger.CtxWarn(c.Request.Context(), "webhook signature mismatch", "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid webhook signature"))
			return
		}
	}

	var req dto.VerifyPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid webhook payload"))
		return
	}
	if req.TransactionID == "" || req.Status == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Webhook payload missing transactionId or status"))
		return
	}

	if err := h.paymentService.VerifyPayment(&req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook processed"})
}

func validSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.GetPayment(userID, c.Param("paymentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.paymentService.CancelPayment(userID, c.Param("paymentId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment cancelled"})
}

func (h *PaymentHandler) GetHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, limit := ParsePagination(c)
	resp, err := h.paymentService.GetHistory(userID, page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) ManualVerify(c *gin.Context) {
	if err := h.paymentService.ManualVerify(c.Param("paymentId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment verified"})
}

func (h *PaymentHandler) ListProducts(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.ListProducts(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": resp})
}

func (h *PaymentHandler) ListPurchases(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.ListPurchases(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": resp})
}
