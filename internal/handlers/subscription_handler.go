package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/middleware"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/services"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes - plan catalog
	plans := r.Group("/plans")
	{
		plans.GET("", h.GetPlans)
		plans.GET("/:planId", h.GetPlan)
	}

	// Admin routes - plan management
	admin := r.Group("/admin/plans")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.POST("", h.CreatePlan)
		admin.PUT("/:planId", h.UpdatePlan)
		admin.DELETE("/:planId", h.DeletePlan)
	}
}

// queryLanguage reads the optional ?lang= parameter for localized plan
// names, defaulting to English.
func queryLanguage(c *gin.Context) models.Language {
	lang := models.Language(c.DefaultQuery("lang", string(models.LanguageEnglish)))
	if !models.IsValidLanguage(lang) {
		return models.LanguageEnglish
	}
	return lang
}

func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	resp, err := h.subscriptionService.GetPlans(queryLanguage(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": resp})
}

func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	resp, err := h.subscriptionService.GetPlan(c.Param("planId"), queryLanguage(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.CreatePlan(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.UpdatePlan(c.Param("planId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) DeletePlan(c *gin.Context) {
	if err := h.subscriptionService.DeletePlan(c.Param("planId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}
