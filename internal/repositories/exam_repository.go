package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ikizamini_backend/internal/models"
)

var (
	ErrExamAttemptNotFound = errors.New("exam attempt not found")
	ErrExamAnswerNotFound  = errors.New("exam answer not found")
)

// ExamStats aggregates a user's completed attempts.
type ExamStats struct {
	TotalExams   int64
	PassedExams  int64
	AverageScore float64
	BestScore    int
}

type ExamRepository interface {
	CreateAttemptWithAnswers(attempt *models.ExamAttempt, answers []models.ExamAnswer) error
	FindByID(id, userID string) (*models.ExamAttempt, error)
	FindInProgressByUser(userID string) (*models.ExamAttempt, error)
	FindInProgressByID(id, userID string) (*models.ExamAttempt, error)

	// RecentQuestionIDs returns the distinct question ids used by the
	// user's most recent completed attempts, up to window attempts back.
	RecentQuestionIDs(userID string, window int) ([]string, error)

	RecordAnswer(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error
	CorrectCount(attemptID string) (int64, error)
	AnsweredCount(attemptID string) (int64, error)

	// CompleteAttempt finalizes the attempt only if it is still in
	// progress. Returns ErrExamAttemptNotFound when another submit won.
	CompleteAttempt(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error

	ListByUser(userID string, page, limit int) ([]models.ExamAttempt, int64, error)
	StatsByUser(userID string) (*ExamStats, error)
}

type ExamRepositoryImpl struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &ExamRepositoryImpl{db: db}
}

// CreateAttemptWithAnswers persists the attempt and its answer rows
// atomically, so a half-created exam can never be resumed.
func (r *ExamRepositoryImpl) CreateAttemptWithAnswers(attempt *models.ExamAttempt, answers []models.ExamAnswer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}

		return tx.Create(&answers).Error
	})
}

func (r *ExamRepositoryImpl) FindByID(id, userID string) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_answers.position ASC")
		}).
		Preload("Answers.Question").
		Where("id = ? AND user_id = ?", id, userID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *ExamRepositoryImpl) FindInProgressByUser(userID string) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_answers.position ASC")
		}).
		Preload("Answers.Question").
		Where("user_id = ? AND status = ?", userID, models.ExamStatusInProgress).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *ExamRepositoryImpl) FindInProgressByID(id, userID string) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_answers.position ASC")
		}).
		Preload("Answers.Question").
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.ExamStatusInProgress).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *ExamRepositoryImpl) RecentQuestionIDs(userID string, window int) ([]string, error) {
	var attemptIDs []string
	err := r.db.Model(&models.ExamAttempt{}).
		Where("user_id = ? AND status = ?", userID, models.ExamStatusCompleted).
		Order("completed_at DESC").
		Limit(window).
		Pluck("id", &attemptIDs).Error
	if err != nil {
		return nil, err
	}
	if len(attemptIDs) == 0 {
		return nil, nil
	}

	var questionIDs []string
	err = r.db.Model(&models.ExamAnswer{}).
		Distinct("question_id").
		Where("attempt_id IN ?", attemptIDs).
		Pluck("question_id", &questionIDs).Error
	return questionIDs, err
}

func (r *ExamRepositoryImpl) RecordAnswer(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error {
	result := r.db.Model(&models.ExamAnswer{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Updates(map[string]interface{}{
			"selected_answer": selected,
			"is_correct":      isCorrect,
			"answered_at":     answeredAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrExamAnswerNotFound
	}
	return nil
}

func (r *ExamRepositoryImpl) CorrectCount(attemptID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExamAnswer{}).
		Where("attempt_id = ? AND is_correct = ?", attemptID, true).
		Count(&count).Error
	return count, err
}

func (r *ExamRepositoryImpl) AnsweredCount(attemptID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExamAnswer{}).
		Where("attempt_id = ? AND selected_answer <> ''", attemptID).
		Count(&count).Error
	return count, err
}

func (r *ExamRepositoryImpl) CompleteAttempt(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error {
	result := r.db.Model(&models.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, models.ExamStatusInProgress).
		Updates(map[string]interface{}{
			"status":         status,
			"score":          score,
			"passed":         passed,
			"auto_submitted": autoSubmitted,
			"completed_at":   completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrExamAttemptNotFound
	}
	return nil
}

func (r *ExamRepositoryImpl) ListByUser(userID string, page, limit int) ([]models.ExamAttempt, int64, error) {
	query := r.db.Model(&models.ExamAttempt{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	var attempts []models.ExamAttempt
	err := query.Order("started_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}

func (r *ExamRepositoryImpl) StatsByUser(userID string) (*ExamStats, error) {
	var stats ExamStats

	base := r.db.Model(&models.ExamAttempt{}).
		Where("user_id = ? AND status = ?", userID, models.ExamStatusCompleted)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalExams).Error; err != nil {
		return nil, err
	}

	if stats.TotalExams == 0 {
		return &stats, nil
	}

	if err := base.Session(&gorm.Session{}).Where("passed = ?", true).Count(&stats.PassedExams).Error; err != nil {
		return nil, err
	}

	row := r.db.Model(&models.ExamAttempt{}).
		Where("user_id = ? AND status = ?", userID, models.ExamStatusCompleted).
		Select("AVG(score) AS avg_score, MAX(score) AS best_score").
		Row()

	var avg float64
	var best int
	if err := row.Scan(&avg, &best); err != nil {
		return nil, err
	}
	stats.AverageScore = avg
	stats.BestScore = best

	return &stats, nil
}
