package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/middleware"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/internal/services"
)

type QuestionHandler struct {
	*BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(base *BaseHandler, questionService services.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     base,
		questionService: questionService,
	}
}

func (h *QuestionHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin/questions")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.GET("/:questionId", h.Get)
		admin.PUT("/:questionId", h.Update)
		admin.DELETE("/:questionId", h.Delete)
	}
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.questionService.Create(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *QuestionHandler) Get(c *gin.Context) {
	resp, err := h.questionService.Get(c.Param("questionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	var req dto.UpdateQuestionRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.questionService.Update(c.Param("questionId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questionService.Delete(c.Param("questionId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

func (h *QuestionHandler) List(c *gin.Context) {
	page, limit := ParsePagination(c)

	filter := repositories.QuestionFilter{
		Language: models.Language(c.Query("language")),
		Category: c.Query("category"),
		Page:     page,
		Limit:    limit,
	}
	if v := c.Query("isPicture"); v != "" {
		isPicture := v == "true"
		filter.IsPicture = &isPicture
	}

	resp, err := h.questionService.List(filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
