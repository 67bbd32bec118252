package services

import (
	"strings"
	"time"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/pkg/apperrors"
)

// ExamService runs the exam session lifecycle: admission, question
// presentation, answer recording, scoring and review.
type ExamService interface {
	StartExam(userID string, role models.UserRole, language models.Language) (*dto.ExamSessionResponse, error)
	GetCurrentExam(userID string) (*dto.ExamSessionResponse, error)
	SubmitAnswer(userID, examID string, req *dto.SubmitAnswerRequest) error
	SubmitExam(userID, examID string) (*dto.ExamResultResponse, error)
	GetReview(userID, examID string) (*dto.ExamReviewResponse, error)
	GetHistory(userID string, page, limit int) (*dto.ExamHistoryResponse, error)
	GetStats(userID string) (*dto.ExamStatsResponse, error)
}

type examService struct {
	examRepo    repositories.ExamRepository
	entitlement EntitlementService
	sampler     SamplerService
	cfg         *config.Config
	now         func() time.Time
}

func NewExamService(
	examRepo repositories.ExamRepository,
	entitlement EntitlementService,
	sampler SamplerService,
	cfg *config.Config,
) ExamService {
	return &examService{
		examRepo:    examRepo,
		entitlement: entitlement,
		sampler:     sampler,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *examService) StartExam(userID string, role models.UserRole, language models.Language) (*dto.ExamSessionResponse, error) {
	sub, err := s.entitlement.CheckAccess(userID, role)
	if err != nil {
		return nil, err
	}

	// An unfinished exam blocks a new one, unless its clock already ran
	// out, in which case it is finalized here
	existing, err := s.examRepo.FindInProgressByUser(userID)
	if err == nil {
		if !existing.IsExpired(s.now()) {
			return nil, apperrors.ErrIncompleteExam(existing.ID)
		}
		if _, err := s.finalizeAttempt(existing, true); err != nil {
			return nil, err
		}
	} else if err != repositories.ErrExamAttemptNotFound {
		return nil, apperrors.InternalError(err)
	}

	sampled, err := s.sampler.SampleExam(userID, language)
	if err != nil {
		return nil, err
	}

	// Consume before creating the attempt so two concurrent starts
	// cannot both take the last remaining attempt
	if err := s.entitlement.ConsumeAttempt(sub); err != nil {
		return nil, err
	}

	pictureCount := 0
	for _, sq := range sampled {
		if sq.Question.IsPicture {
			pictureCount++
		}
	}

	// The passing score is frozen on the attempt so a config change
	// cannot retroactively reinterpret past results
	startedAt := s.now()
	attempt := &models.ExamAttempt{
		UserID:           userID,
		Language:         language,
		Status:           models.ExamStatusInProgress,
		StartedAt:        startedAt,
		TimeLimitMinutes: s.cfg.Exam.TimeLimitMinutes,
		TotalQuestions:   len(sampled),
		PictureQuestions: pictureCount,
		PassingScore:     s.cfg.Exam.PassingScore,
	}

	answers := make([]models.ExamAnswer, len(sampled))
	for i, sq := range sampled {
		answer := models.ExamAnswer{
			QuestionID:    sq.Question.ID,
			Position:      i + 1,
			CorrectAnswer: sq.CorrectLetter,
		}
		if err := answer.SetOptionOrder(sq.OptionOrder); err != nil {
			return nil, apperrors.InternalError(err)
		}
		answer.Question = sq.Question
		answers[i] = answer
	}

	if err := s.examRepo.CreateAttemptWithAnswers(attempt, answers); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("exam started",
		"user_id", userID,
		"exam_id", attempt.ID,
		"language", language,
		"questions", len(sampled),
	)

	attempt.Answers = answers
	return s.renderSession(attempt)
}

func (s *examService) GetCurrentExam(userID string) (*dto.ExamSessionResponse, error) {
	attempt, err := s.examRepo.FindInProgressByUser(userID)
	if err != nil {
		if err == repositories.ErrExamAttemptNotFound {
			return nil, apperrors.ErrExamNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if attempt.IsExpired(s.now()) {
		if _, err := s.finalizeAttempt(attempt, true); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrExamNotFound
	}

	return s.renderSession(attempt)
}

func (s *examService) SubmitAnswer(userID, examID string, req *dto.SubmitAnswerRequest) error {
	attempt, err := s.examRepo.FindInProgressByID(examID, userID)
	if err != nil {
		if err == repositories.ErrExamAttemptNotFound {
			return apperrors.ErrExamNotFound
		}
		return apperrors.InternalError(err)
	}

	if attempt.IsExpired(s.now()) {
		if _, err := s.finalizeAttempt(attempt, true); err != nil {
			return err
		}
		return apperrors.ErrExamTimeExpired
	}

	var row *models.ExamAnswer
	for i := range attempt.Answers {
		if attempt.Answers[i].QuestionID == req.QuestionID {
			row = &attempt.Answers[i]
			break
		}
	}
	if row == nil {
		return apperrors.ErrQuestionNotInAttempt
	}

	// Letters arrive in either case; correctness is judged against the
	// presentation the student saw
	letter := strings.ToLower(req.Answer)
	if !models.IsOptionLetter(letter) {
		return apperrors.ErrInvalidAnswer
	}
	isCorrect := letter == row.CorrectAnswer

	if err := s.examRepo.RecordAnswer(attempt.ID, req.QuestionID, letter, isCorrect, s.now()); err != nil {
		if err == repositories.ErrExamAnswerNotFound {
			return apperrors.ErrQuestionNotInAttempt
		}
		return apperrors.InternalError(err)
	}

	return nil
}

func (s *examService) SubmitExam(userID, examID string) (*dto.ExamResultResponse, error) {
	attempt, err := s.examRepo.FindInProgressByID(examID, userID)
	if err != nil {
		if err == repositories.ErrExamAttemptNotFound {
			// Already completed or never existed: the scoped lookup
			// makes repeat submits a clean miss
			return nil, apperrors.ErrExamNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	return s.finalizeAttempt(attempt, attempt.IsExpired(s.now()))
}

// finalizeAttempt scores and completes the attempt. The status-guarded
// update makes completion first-wins under concurrent submits. An
// attempt that ran out the clock without a single answer is recorded as
// abandoned rather than completed.
func (s *examService) finalizeAttempt(attempt *models.ExamAttempt, autoSubmitted bool) (*dto.ExamResultResponse, error) {
	correct, err := s.examRepo.CorrectCount(attempt.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	score := int(correct)
	passed := score >= attempt.PassingScore
	completedAt := s.now()

	status := models.ExamStatusCompleted
	if autoSubmitted {
		answered, err := s.examRepo.AnsweredCount(attempt.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if answered == 0 {
			status = models.ExamStatusAbandoned
		}
	}

	err = s.examRepo.CompleteAttempt(attempt.ID, status, score, passed, autoSubmitted, completedAt)
	if err != nil {
		if err == repositories.ErrExamAttemptNotFound {
			return nil, apperrors.ErrExamNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	logger.Info("exam completed",
		"exam_id", attempt.ID,
		"user_id", attempt.UserID,
		"status", status,
		"score", score,
		"passed", passed,
		"auto_submitted", autoSubmitted,
	)

	return &dto.ExamResultResponse{
		ExamID:         attempt.ID,
		Score:          score,
		TotalQuestions: attempt.TotalQuestions,
		PassingScore:   attempt.PassingScore,
		Passed:         passed,
		AutoSubmitted:  autoSubmitted,
		CompletedAt:    &completedAt,
	}, nil
}

func (s *examService) GetReview(userID, examID string) (*dto.ExamReviewResponse, error) {
	attempt, err := s.examRepo.FindByID(examID, userID)
	if err != nil {
		if err == repositories.ErrExamAttemptNotFound {
			return nil, apperrors.ErrExamNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if attempt.Status == models.ExamStatusInProgress {
		return nil, apperrors.ErrInvalidOperation("exam", "Exam is still in progress")
	}

	questions := make([]dto.ReviewQuestionView, len(attempt.Answers))
	for i, answer := range attempt.Answers {
		options, err := answer.PresentedOptions()
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		questions[i] = dto.ReviewQuestionView{
			QuestionID:     answer.QuestionID,
			Position:       answer.Position,
			Text:           answer.Question.Text,
			ImageURL:       answer.Question.ImageURL,
			IsPicture:      answer.Question.IsPicture,
			Options:        optionViews(options),
			SelectedAnswer: answer.SelectedAnswer,
			CorrectAnswer:  answer.CorrectAnswer,
			IsCorrect:      answer.IsCorrect,
			Explanation:    answer.Question.Explanation,
		}
	}

	return &dto.ExamReviewResponse{
		ExamID: attempt.ID,
		Result: dto.ExamResultResponse{
			ExamID:         attempt.ID,
			Score:          attempt.Score,
			TotalQuestions: attempt.TotalQuestions,
			PassingScore:   attempt.PassingScore,
			Passed:         attempt.Passed,
			AutoSubmitted:  attempt.AutoSubmitted,
			CompletedAt:    attempt.CompletedAt,
		},
		Questions: questions,
	}, nil
}

func (s *examService) GetHistory(userID string, page, limit int) (*dto.ExamHistoryResponse, error) {
	attempts, total, err := s.examRepo.ListByUser(userID, page, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	exams := make([]dto.ExamSummary, len(attempts))
	for i, a := range attempts {
		exams[i] = dto.ExamSummary{
			ExamID:         a.ID,
			Language:       string(a.Language),
			Status:         string(a.Status),
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			Passed:         a.Passed,
			StartedAt:      a.StartedAt,
			CompletedAt:    a.CompletedAt,
		}
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	return &dto.ExamHistoryResponse{
		Exams: exams,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *examService) GetStats(userID string) (*dto.ExamStatsResponse, error) {
	stats, err := s.examRepo.StatsByUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.ExamStatsResponse{
		TotalExams:   stats.TotalExams,
		PassedExams:  stats.PassedExams,
		FailedExams:  stats.TotalExams - stats.PassedExams,
		AverageScore: stats.AverageScore,
		BestScore:    stats.BestScore,
	}
	if stats.TotalExams > 0 {
		resp.PassRate = float64(stats.PassedExams) / float64(stats.TotalExams) * 100
	}

	return resp, nil
}

// renderSession builds the client view of a running attempt: questions
// in position order, options in presentation order, answers omitted.
func (s *examService) renderSession(attempt *models.ExamAttempt) (*dto.ExamSessionResponse, error) {
	questions := make([]dto.ExamQuestionView, len(attempt.Answers))
	for i, answer := range attempt.Answers {
		options, err := answer.PresentedOptions()
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		questions[i] = dto.ExamQuestionView{
			QuestionID: answer.QuestionID,
			Position:   answer.Position,
			Text:       answer.Question.Text,
			ImageURL:   answer.Question.ImageURL,
			IsPicture:  answer.Question.IsPicture,
			Options:    optionViews(options),
			Selected:   answer.SelectedAnswer,
		}
	}

	return &dto.ExamSessionResponse{
		ExamID:           attempt.ID,
		Language:         string(attempt.Language),
		Status:           string(attempt.Status),
		StartedAt:        attempt.StartedAt,
		Deadline:         attempt.Deadline(),
		TimeLimitMinutes: attempt.TimeLimitMinutes,
		TotalQuestions:   attempt.TotalQuestions,
		Questions:        questions,
	}, nil
}
