package repositories

import (
	"errors"

	"gorm.io/gorm"

	"ikizamini_backend/internal/models"
)

var ErrQuestionNotFound = errors.New("question not found")

// QuestionFilter narrows admin listings.
type QuestionFilter struct {
	Language  models.Language
	Category  string
	IsPicture *bool
	Page      int
	Limit     int
}

type QuestionRepository interface {
	Create(question *models.Question) error
	FindByID(id string) (*models.Question, error)
	FindByIDs(ids []string) ([]models.Question, error)
	Update(question *models.Question) error
	Delete(id string) error
	List(filter QuestionFilter) ([]models.Question, int64, error)

	// Sampling support
	CountActive(language models.Language, isPicture *bool) (int64, error)
	SampleRandom(language models.Language, isPicture bool, excludeIDs []string, limit int) ([]models.Question, error)
	IncrementUsage(ids []string) error
}

type QuestionRepositoryImpl struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &QuestionRepositoryImpl{db: db}
}

func (r *QuestionRepositoryImpl) Create(question *models.Question) error {
	return r.db.Create(question).Error
}

func (r *QuestionRepositoryImpl) FindByID(id string) (*models.Question, error) {
	var question models.Question
	err := r.db.First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepositoryImpl) FindByIDs(ids []string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *QuestionRepositoryImpl) Update(question *models.Question) error {
	result := r.db.Save(question)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepositoryImpl) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Question{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepositoryImpl) List(filter QuestionFilter) ([]models.Question, int64, error) {
	query := r.db.Model(&models.Question{})

	if filter.Language != "" {
		query = query.Where("language = ?", filter.Language)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.IsPicture != nil {
		query = query.Where("is_picture = ?", *filter.IsPicture)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	var questions []models.Question
	err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&questions).Error
	return questions, total, err
}

func (r *QuestionRepositoryImpl) CountActive(language models.Language, isPicture *bool) (int64, error) {
	query := r.db.Model(&models.Question{}).
		Where("language = ? AND is_active = ?", language, true)

	if isPicture != nil {
		query = query.Where("is_picture = ?", *isPicture)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// SampleRandom draws up to limit active questions uniformly at random,
// skipping the excluded ids. Random ordering happens in the database so
// concurrent samplers never see a shared generator.
func (r *QuestionRepositoryImpl) SampleRandom(language models.Language, isPicture bool, excludeIDs []string, limit int) ([]models.Question, error) {
	query := r.db.
		Where("language = ? AND is_active = ? AND is_picture = ?", language, true, isPicture)

	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var questions []models.Question
	err := query.Order("RANDOM()").Limit(limit).Find(&questions).Error
	return questions, err
}

func (r *QuestionRepositoryImpl) IncrementUsage(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Question{}).
		Where("id IN ?", ids).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
