package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/middleware"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/services"
)

type ExamHandler struct {
	*BaseHandler
	examService        services.ExamService
	entitlementService services.EntitlementService
}

func NewExamHandler(
	base *BaseHandler,
	examService services.ExamService,
	entitlementService services.EntitlementService,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler:        base,
		examService:        examService,
		entitlementService: entitlementService,
	}
}

func (h *ExamHandler) RegisterRoutes(r *gin.RouterGroup) {
	exams := r.Group("/exams")
	exams.Use(middleware.AuthMiddleware())
	{
		exams.POST("", h.StartExam)
		exams.GET("/current", h.GetCurrentExam)
		exams.GET("/history", h.GetHistory)
		exams.GET("/stats", h.GetStats)
		exams.PUT("/:examId/answers", h.SubmitAnswer)
		exams.POST("/:examId/submit", h.SubmitExam)
		exams.GET("/:examId/review", h.GetReview)
	}

	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware())
	{
		subscriptions.GET("/my", h.GetMySubscription)
	}
}

func (h *ExamHandler) StartExam(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StartExamRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	role := models.UserRoleStudent
	if middleware.IsAdmin(c) {
		role = models.UserRoleAdmin
	}

	resp, err := h.examService.StartExam(userID, role, models.Language(req.Language))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ExamHandler) GetCurrentExam(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.examService.GetCurrentExam(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitAnswerRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.examService.SubmitAnswer(userID, c.Param("examId"), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer recorded"})
}

func (h *ExamHandler) SubmitExam(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.examService.SubmitExam(userID, c.Param("examId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ExamHandler) GetReview(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.examService.GetReview(userID, c.Param("examId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ExamHandler) GetHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, limit := ParsePagination(c)
	resp, err := h.examService.GetHistory(userID, page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ExamHandler) GetStats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.examService.GetStats(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ExamHandler) GetMySubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.entitlementService.MySubscription(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
