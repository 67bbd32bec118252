package services

import (
	"encoding/json"

	"gorm.io/datatypes"

	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/pkg/apperrors"
)

// SubscriptionService manages the plan catalog.
type SubscriptionService interface {
	GetPlans(language models.Language) ([]dto.PlanResponse, error)
	GetPlan(planID string, language models.Language) (*dto.PlanResponse, error)
	CreatePlan(req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(planID string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(planID string) error
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
}

func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{subscriptionRepo: subscriptionRepo}
}

func (s *subscriptionService) GetPlans(language models.Language) ([]dto.PlanResponse, error) {
	plans, err := s.subscriptionRepo.FindActivePlans()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.PlanResponse, len(plans))
	for i := range plans {
		out[i] = *planToDTO(&plans[i], language)
	}
	return out, nil
}

func (s *subscriptionService) GetPlan(planID string, language models.Language) (*dto.PlanResponse, error) {
	plan, err := s.subscriptionRepo.FindPlanByID(planID)
	if err != nil {
		if err == repositories.ErrPlanNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return planToDTO(plan, language), nil
}

func (s *subscriptionService) CreatePlan(req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	name, err := json.Marshal(req.Name)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	description, err := json.Marshal(req.Description)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "RWF"
	}

	plan := &models.SubscriptionPlan{
		Type:         req.Type,
		Name:         datatypes.JSON(name),
		Description:  datatypes.JSON(description),
		Price:        req.Price,
		Currency:     currency,
		DurationDays: req.DurationDays,
		IsActive:     true,
	}
	if req.ExamLimit > 0 {
		limit := req.ExamLimit
		plan.ExamLimit = &limit
	}

	if err := s.subscriptionRepo.CreatePlan(plan); err != nil {
		if err == repositories.ErrPlanAlreadyExists {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, apperrors.InternalError(err)
	}

	return planToDTO(plan, models.LanguageEnglish), nil
}

func (s *subscriptionService) UpdatePlan(planID string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	plan, err := s.subscriptionRepo.FindPlanByID(planID)
	if err != nil {
		if err == repositories.ErrPlanNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if req.Name != nil {
		raw, err := json.Marshal(req.Name)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		plan.Name = datatypes.JSON(raw)
	}
	if req.Description != nil {
		raw, err := json.Marshal(req.Description)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		plan.Description = datatypes.JSON(raw)
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.ExamLimit != nil {
		if *req.ExamLimit > 0 {
			plan.ExamLimit = req.ExamLimit
		} else {
			plan.ExamLimit = nil
		}
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.subscriptionRepo.UpdatePlan(plan); err != nil {
		if err == repositories.ErrPlanNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	return planToDTO(plan, models.LanguageEnglish), nil
}

func (s *subscriptionService) DeletePlan(planID string) error {
	if err := s.subscriptionRepo.DeletePlan(planID); err != nil {
		if err == repositories.ErrPlanNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// planNameFor resolves the plan's localized name with English fallback.
func planNameFor(plan *models.SubscriptionPlan, language models.Language) string {
	return localized(plan.Name, language)
}

func localized(raw datatypes.JSON, language models.Language) string {
	if len(raw) == 0 {
		return ""
	}

	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return ""
	}

	if v := values[string(language)]; v != "" {
		return v
	}
	return values[string(models.LanguageEnglish)]
}

func planToDTO(plan *models.SubscriptionPlan, language models.Language) *dto.PlanResponse {
	limit := 0
	if plan.ExamLimit != nil {
		limit = *plan.ExamLimit
	}

	return &dto.PlanResponse{
		ID:           plan.ID,
		Type:         plan.Type,
		Name:         planNameFor(plan, language),
		Description:  localized(plan.Description, language),
		Price:        plan.Price,
		Currency:     plan.Currency,
		DurationDays: plan.DurationDays,
		ExamLimit:    limit,
	}
}
