package services

import (
	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/pkg/apperrors"
)

// QuestionService is the admin surface of the question bank.
type QuestionService interface {
	Create(req *dto.CreateQuestionRequest) (*dto.QuestionAdminView, error)
	Get(id string) (*dto.QuestionAdminView, error)
	Update(id string, req *dto.UpdateQuestionRequest) (*dto.QuestionAdminView, error)
	Delete(id string) error
	List(filter repositories.QuestionFilter) (*dto.QuestionListResponse, error)
}

type questionService struct {
	questionRepo repositories.QuestionRepository
}

func NewQuestionService(questionRepo repositories.QuestionRepository) QuestionService {
	return &questionService{questionRepo: questionRepo}
}

func (s *questionService) Create(req *dto.CreateQuestionRequest) (*dto.QuestionAdminView, error) {
	question := &models.Question{
		Text:        req.Text,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		ImageURL:    req.ImageURL,
		Language:    models.Language(req.Language),
		Category:    req.Category,
		IsActive:    true,
	}
	if err := question.SetOptions(optionModels(req.Options)); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.questionRepo.Create(question); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return questionToAdminView(question)
}

func (s *questionService) Get(id string) (*dto.QuestionAdminView, error) {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		if err == repositories.ErrQuestionNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return questionToAdminView(question)
}

func (s *questionService) Update(id string, req *dto.UpdateQuestionRequest) (*dto.QuestionAdminView, error) {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		if err == repositories.ErrQuestionNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		if err := question.SetOptions(optionModels(req.Options)); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}
	if req.Answer != nil {
		question.Answer = *req.Answer
	}
	if req.Explanation != nil {
		question.Explanation = *req.Explanation
	}
	if req.ImageURL != nil {
		question.ImageURL = *req.ImageURL
	}
	if req.Category != nil {
		question.Category = *req.Category
	}
	if req.IsActive != nil {
		question.IsActive = *req.IsActive
	}

	if err := s.questionRepo.Update(question); err != nil {
		if err == repositories.ErrQuestionNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	return questionToAdminView(question)
}

func (s *questionService) Delete(id string) error {
	if err := s.questionRepo.Delete(id); err != nil {
		if err == repositories.ErrQuestionNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *questionService) List(filter repositories.QuestionFilter) (*dto.QuestionListResponse, error) {
	questions, total, err := s.questionRepo.List(filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	views := make([]dto.QuestionAdminView, len(questions))
	for i := range questions {
		view, err := questionToAdminView(&questions[i])
		if err != nil {
			return nil, err
		}
		views[i] = *view
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	return &dto.QuestionListResponse{
		Questions: views,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

func questionToAdminView(q *models.Question) (*dto.QuestionAdminView, error) {
	options, err := q.OptionsMap()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.QuestionAdminView{
		ID:          q.ID,
		Text:        q.Text,
		Options:     optionViews(options),
		Answer:      q.Answer,
		Explanation: q.Explanation,
		ImageURL:    q.ImageURL,
		IsPicture:   q.IsPicture,
		Language:    string(q.Language),
		Category:    q.Category,
		IsActive:    q.IsActive,
		UsageCount:  q.UsageCount,
	}, nil
}

func optionModels(in map[string]dto.OptionPayload) map[string]models.Option {
	out := make(map[string]models.Option, len(in))
	for letter, opt := range in {
		out[letter] = models.Option{Text: opt.Text, Image: opt.Image}
	}
	return out
}

func optionViews(in map[string]models.Option) map[string]dto.OptionPayload {
	out := make(map[string]dto.OptionPayload, len(in))
	for letter, opt := range in {
		out[letter] = dto.OptionPayload{Text: opt.Text, Image: opt.Image}
	}
	return out
}
