package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/dto"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/pkg/apperrors"
)

type stubEntitlement struct {
	sub        *models.UserSubscription
	checkErr   error
	consumeErr error
	consumed   int
}

func (s *stubEntitlement) CheckAccess(userID string, role models.UserRole) (*models.UserSubscription, error) {
	return s.sub, s.checkErr
}

func (s *stubEntitlement) ConsumeAttempt(sub *models.UserSubscription) error {
	s.consumed++
	return s.consumeErr
}

func (s *stubEntitlement) MySubscription(userID string) (*dto.MySubscriptionResponse, error) {
	return nil, nil
}

type stubSampler struct {
	sampled []SampledQuestion
	err     error
}

func (s *stubSampler) SampleExam(userID string, language models.Language) ([]SampledQuestion, error) {
	return s.sampled, s.err
}

func examConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Exam.TotalQuestions = 20
	cfg.Exam.PictureQuestionsMin = 4
	cfg.Exam.TimeLimitMinutes = 20
	cfg.Exam.PassingScore = 12
	cfg.Exam.RecentExamWindow = 3
	return cfg
}

func newExamForTest(examRepo repositories.ExamRepository, ent EntitlementService, sampler SamplerService) *examService {
	return &examService{
		examRepo:    examRepo,
		entitlement: ent,
		sampler:     sampler,
		cfg:         examConfig(),
		now:         fixedNow,
	}
}

func sampledSet(count int) []SampledQuestion {
	questions := makeQuestions("q", count, false)
	sampled := make([]SampledQuestion, count)
	for i, q := range questions {
		sampled[i] = SampledQuestion{
			Question:      q,
			OptionOrder:   []string{"c", "a", "d", "b"},
			CorrectLetter: "d", // canonical "b" sits in slot "d"
		}
	}
	return sampled
}

func inProgressAttempt(startedAt time.Time, answers []models.ExamAnswer) *models.ExamAttempt {
	return &models.ExamAttempt{
		BaseModel:        models.BaseModel{ID: "exam-1"},
		UserID:           "user-1",
		Language:         models.LanguageEnglish,
		Status:           models.ExamStatusInProgress,
		StartedAt:        startedAt,
		TimeLimitMinutes: 20,
		TotalQuestions:   20,
		PassingScore:     12,
		Answers:          answers,
	}
}

func answerRow(questionID string, position int, correct string) models.ExamAnswer {
	q := makeQuestions(questionID, 1, false)[0]
	q.ID = questionID
	row := models.ExamAnswer{
		AttemptID:     "exam-1",
		QuestionID:    questionID,
		Position:      position,
		CorrectAnswer: correct,
		Question:      q,
	}
	_ = row.SetOptionOrder([]string{"c", "a", "d", "b"})
	return row
}

func TestStartExam_CreatesSessionWithShuffledAnswerRows(t *testing.T) {
	var created *models.ExamAttempt
	var createdAnswers []models.ExamAnswer
	examRepo := &fakeExamRepo{
		createAttemptFn: func(attempt *models.ExamAttempt, answers []models.ExamAnswer) error {
			attempt.ID = "exam-1"
			created = attempt
			createdAnswers = answers
			return nil
		},
	}
	ent := &stubEntitlement{sub: activeSubscription(intPtr(10), 0)}
	svc := newExamForTest(examRepo, ent, &stubSampler{sampled: sampledSet(20)})

	resp, err := svc.StartExam("user-1", models.UserRoleStudent, models.LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, 1, ent.consumed)
	require.NotNil(t, created)
	assert.Equal(t, models.ExamStatusInProgress, created.Status)
	assert.Equal(t, 20, created.TotalQuestions)
	assert.Equal(t, fixedNow(), created.StartedAt)
	assert.Equal(t, 12, created.PassingScore)
	assert.Equal(t, 0, created.PictureQuestions)

	require.Len(t, createdAnswers, 20)
	for i, answer := range createdAnswers {
		assert.Equal(t, i+1, answer.Position)
		assert.Equal(t, "d", answer.CorrectAnswer)
		order, err := answer.OptionOrderLetters()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "d", "b"}, order)
	}

	assert.Equal(t, "exam-1", resp.ExamID)
	assert.Equal(t, fixedNow().Add(20*time.Minute), resp.Deadline)
	require.Len(t, resp.Questions, 20)
	// The client view carries the shuffled options but never the answer
	assert.Len(t, resp.Questions[0].Options, 4)
}

func TestStartExam_PersistsPictureQuestionCount(t *testing.T) {
	questions := append(makeQuestions("pic", 4, true), makeQuestions("txt", 16, false)...)
	sampled := make([]SampledQuestion, len(questions))
	for i, q := range questions {
		sampled[i] = SampledQuestion{
			Question:      q,
			OptionOrder:   []string{"a", "b", "c", "d"},
			CorrectLetter: "b",
		}
	}

	var created *models.ExamAttempt
	examRepo := &fakeExamRepo{
		createAttemptFn: func(attempt *models.ExamAttempt, answers []models.ExamAnswer) error {
			attempt.ID = "exam-1"
			created = attempt
			return nil
		},
	}
	ent := &stubEntitlement{sub: activeSubscription(intPtr(10), 0)}
	svc := newExamForTest(examRepo, ent, &stubSampler{sampled: sampled})

	_, err := svc.StartExam("user-1", models.UserRoleStudent, models.LanguageEnglish)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 4, created.PictureQuestions)
	assert.Equal(t, 20, created.TotalQuestions)
}

func TestStartExam_BlockedByIncompleteExam(t *testing.T) {
	existing := inProgressAttempt(fixedNow().Add(-5*time.Minute), nil)
	examRepo := &fakeExamRepo{
		findInProgressFn: func(userID string) (*models.ExamAttempt, error) {
			return existing, nil
		},
	}
	ent := &stubEntitlement{sub: activeSubscription(intPtr(10), 0)}
	svc := newExamForTest(examRepo, ent, &stubSampler{sampled: sampledSet(20)})

	_, err := svc.StartExam("user-1", models.UserRoleStudent, models.LanguageEnglish)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeIncompleteExamExists, appErr.Code)
	assert.Equal(t, 0, ent.consumed)
}

func TestStartExam_FinalizesExpiredExamThenStartsNew(t *testing.T) {
	expired := inProgressAttempt(fixedNow().Add(-45*time.Minute), nil)

	var completedAuto bool
	var newAttempt *models.ExamAttempt
	examRepo := &fakeExamRepo{
		findInProgressFn: func(userID string) (*models.ExamAttempt, error) {
			return expired, nil
		},
		correctCountFn: func(attemptID string) (int64, error) {
			return 7, nil
		},
		answeredCountFn: func(attemptID string) (int64, error) {
			return 9, nil
		},
		completeAttemptFn: func(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error {
			completedAuto = autoSubmitted
			assert.Equal(t, "exam-1", attemptID)
			assert.Equal(t, models.ExamStatusCompleted, status)
			assert.Equal(t, 7, score)
			assert.False(t, passed)
			return nil
		},
		createAttemptFn: func(attempt *models.ExamAttempt, answers []models.ExamAnswer) error {
			attempt.ID = "exam-2"
			newAttempt = attempt
			return nil
		},
	}
	ent := &stubEntitlement{sub: activeSubscription(intPtr(10), 0)}
	svc := newExamForTest(examRepo, ent, &stubSampler{sampled: sampledSet(20)})

	resp, err := svc.StartExam("user-1", models.UserRoleStudent, models.LanguageEnglish)
	require.NoError(t, err)
	assert.True(t, completedAuto)
	require.NotNil(t, newAttempt)
	assert.Equal(t, "exam-2", resp.ExamID)
}

func TestStartExam_ConsumeFailureCreatesNothing(t *testing.T) {
	examRepo := &fakeExamRepo{
		createAttemptFn: func(attempt *models.ExamAttempt, answers []models.ExamAnswer) error {
			t.Fatal("attempt must not be created when the attempt could not be consumed")
			return nil
		},
	}
	ent := &stubEntitlement{
		sub:        activeSubscription(intPtr(5), 4),
		consumeErr: apperrors.ErrExamLimitReached(5, 5),
	}
	svc := newExamForTest(examRepo, ent, &stubSampler{sampled: sampledSet(20)})

	_, err := svc.StartExam("user-1", models.UserRoleStudent, models.LanguageEnglish)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeExamLimitReached, appErr.Code)
}

func TestStartExam_EntitlementDenied(t *testing.T) {
	ent := &stubEntitlement{checkErr: apperrors.ErrNoSubscription}
	svc := newExamForTest(&fakeExamRepo{}, ent, &stubSampler{})

	_, err := svc.StartExam("user-1", models.UserRoleStudent, models.LanguageEnglish)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNoSubscription, appErr.Code)
}

func TestSubmitAnswer_JudgedAgainstPresentationLetter(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-5*time.Minute), []models.ExamAnswer{
		answerRow("q-1", 1, "d"),
	})

	var recordedCorrect bool
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		recordAnswerFn: func(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error {
			recordedCorrect = isCorrect
			return nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	// "d" is where the canonical answer landed in this presentation
	err := svc.SubmitAnswer("user-1", "exam-1", &dto.SubmitAnswerRequest{QuestionID: "q-1", Answer: "d"})
	require.NoError(t, err)
	assert.True(t, recordedCorrect)

	// The canonical letter is wrong under this shuffle
	err = svc.SubmitAnswer("user-1", "exam-1", &dto.SubmitAnswerRequest{QuestionID: "q-1", Answer: "b"})
	require.NoError(t, err)
	assert.False(t, recordedCorrect)
}

func TestSubmitAnswer_UppercaseLetterIsNormalized(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-5*time.Minute), []models.ExamAnswer{
		answerRow("q-1", 1, "d"),
	})

	var recordedLetter string
	var recordedCorrect bool
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		recordAnswerFn: func(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error {
			recordedLetter = selected
			recordedCorrect = isCorrect
			return nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	err := svc.SubmitAnswer("user-1", "exam-1", &dto.SubmitAnswerRequest{QuestionID: "q-1", Answer: "D"})
	require.NoError(t, err)
	assert.Equal(t, "d", recordedLetter)
	assert.True(t, recordedCorrect)
}

func TestSubmitAnswer_RejectsUnknownLetter(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-5*time.Minute), []models.ExamAnswer{
		answerRow("q-1", 1, "d"),
	})
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		recordAnswerFn: func(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error {
			t.Fatal("an invalid letter must not be recorded")
			return nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	err := svc.SubmitAnswer("user-1", "exam-1", &dto.SubmitAnswerRequest{QuestionID: "q-1", Answer: "e"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestSubmitAnswer_ExpiredAttemptIsAutoSubmitted(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-30*time.Minute), []models.ExamAnswer{
		answerRow("q-1", 1, "d"),
	})

	var autoSubmitted bool
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		completeAttemptFn: func(attemptID string, status models.ExamStatus, score int, passed, auto bool, completedAt time.Time) error {
			autoSubmitted = auto
			return nil
		},
		recordAnswerFn: func(attemptID, questionID, selected string, isCorrect bool, answeredAt time.Time) error {
			t.Fatal("no answer may be recorded after the deadline")
			return nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	err := svc.SubmitAnswer("user-1", "exam-1", &dto.SubmitAnswerRequest{QuestionID: "q-1", Answer: "d"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidStatus, appErr.Code)
	assert.True(t, autoSubmitted)
}

func TestSubmitAnswer_UnknownQuestion(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-5*time.Minute), []models.ExamAnswer{
		answerRow("q-1", 1, "d"),
	})
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	err := svc.SubmitAnswer("user-1", "exam-1", &dto.SubmitAnswerRequest{QuestionID: "q-404", Answer: "a"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestSubmitExam_PassBoundary(t *testing.T) {
	cases := []struct {
		correct int64
		passed  bool
	}{
		{11, false},
		{12, true},
		{20, true},
		{0, false},
	}

	for _, tc := range cases {
		attempt := inProgressAttempt(fixedNow().Add(-10*time.Minute), nil)
		examRepo := &fakeExamRepo{
			findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
				return attempt, nil
			},
			correctCountFn: func(attemptID string) (int64, error) {
				return tc.correct, nil
			},
		}
		svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

		result, err := svc.SubmitExam("user-1", "exam-1")
		require.NoError(t, err)
		assert.Equal(t, int(tc.correct), result.Score)
		assert.Equal(t, tc.passed, result.Passed, "score %d against passing score 12", tc.correct)
		assert.Equal(t, 12, result.PassingScore)
		assert.False(t, result.AutoSubmitted)
	}
}

func TestSubmitExam_UsesPassingScorePersistedOnAttempt(t *testing.T) {
	// The service config says 12, but this attempt was started under a
	// lower threshold; the persisted value decides
	attempt := inProgressAttempt(fixedNow().Add(-10*time.Minute), nil)
	attempt.PassingScore = 10

	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		correctCountFn: func(attemptID string) (int64, error) {
			return 11, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	result, err := svc.SubmitExam("user-1", "exam-1")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 10, result.PassingScore)
}

func TestSubmitExam_ExpiredWithNoAnswersIsAbandoned(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-30*time.Minute), nil)

	var completedStatus models.ExamStatus
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		answeredCountFn: func(attemptID string) (int64, error) {
			return 0, nil
		},
		completeAttemptFn: func(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error {
			completedStatus = status
			assert.True(t, autoSubmitted)
			return nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	result, err := svc.SubmitExam("user-1", "exam-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusAbandoned, completedStatus)
	assert.Zero(t, result.Score)
	assert.False(t, result.Passed)
}

func TestSubmitExam_RepeatSubmitIsACleanMiss(t *testing.T) {
	svc := newExamForTest(&fakeExamRepo{}, &stubEntitlement{}, &stubSampler{})

	_, err := svc.SubmitExam("user-1", "exam-1")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestSubmitExam_AfterDeadlineIsAutoSubmitted(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-25*time.Minute), nil)
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		correctCountFn: func(attemptID string) (int64, error) {
			return 14, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	result, err := svc.SubmitExam("user-1", "exam-1")
	require.NoError(t, err)
	assert.True(t, result.AutoSubmitted)
	assert.True(t, result.Passed)
}

func TestSubmitExam_LostCompletionRace(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-10*time.Minute), nil)
	examRepo := &fakeExamRepo{
		findInProgressByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		completeAttemptFn: func(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error {
			return repositories.ErrExamAttemptNotFound
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	_, err := svc.SubmitExam("user-1", "exam-1")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestGetCurrentExam_ExpiredSessionIsFinalizedAndGone(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-30*time.Minute), nil)

	var finalized bool
	examRepo := &fakeExamRepo{
		findInProgressFn: func(userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
		completeAttemptFn: func(attemptID string, status models.ExamStatus, score int, passed, autoSubmitted bool, completedAt time.Time) error {
			finalized = true
			assert.True(t, autoSubmitted)
			return nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	_, err := svc.GetCurrentExam("user-1")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	assert.True(t, finalized)
}

func TestGetCurrentExam_RendersRunningSession(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-5*time.Minute), []models.ExamAnswer{
		answerRow("q-1", 1, "d"),
		answerRow("q-2", 2, "a"),
	})
	examRepo := &fakeExamRepo{
		findInProgressFn: func(userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	resp, err := svc.GetCurrentExam("user-1")
	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, "q-1", resp.Questions[0].QuestionID)
	assert.Equal(t, 1, resp.Questions[0].Position)
	assert.Equal(t, attempt.StartedAt.Add(20*time.Minute), resp.Deadline)
}

func TestGetReview_RequiresCompletedExam(t *testing.T) {
	attempt := inProgressAttempt(fixedNow().Add(-5*time.Minute), nil)
	examRepo := &fakeExamRepo{
		findByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	_, err := svc.GetReview("user-1", "exam-1")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidOperation, appErr.Code)
}

func TestGetReview_ExposesAnswersAndExplanations(t *testing.T) {
	completedAt := fixedNow().Add(-time.Hour)
	row := answerRow("q-1", 1, "d")
	row.SelectedAnswer = "a"
	row.IsCorrect = false
	row.Question.Explanation = "give way to the right"

	attempt := inProgressAttempt(fixedNow().Add(-2*time.Hour), []models.ExamAnswer{row})
	attempt.Status = models.ExamStatusCompleted
	attempt.Score = 11
	attempt.CompletedAt = &completedAt

	examRepo := &fakeExamRepo{
		findByIDFn: func(id, userID string) (*models.ExamAttempt, error) {
			return attempt, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	resp, err := svc.GetReview("user-1", "exam-1")
	require.NoError(t, err)
	assert.Equal(t, 11, resp.Result.Score)
	assert.False(t, resp.Result.Passed)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "a", resp.Questions[0].SelectedAnswer)
	assert.Equal(t, "d", resp.Questions[0].CorrectAnswer)
	assert.False(t, resp.Questions[0].IsCorrect)
	assert.Equal(t, "give way to the right", resp.Questions[0].Explanation)
}

func TestGetStats_ComputesPassRate(t *testing.T) {
	examRepo := &fakeExamRepo{
		statsByUserFn: func(userID string) (*repositories.ExamStats, error) {
			return &repositories.ExamStats{
				TotalExams:   8,
				PassedExams:  6,
				AverageScore: 13.5,
				BestScore:    19,
			}, nil
		},
	}
	svc := newExamForTest(examRepo, &stubEntitlement{}, &stubSampler{})

	stats, err := svc.GetStats("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.TotalExams)
	assert.Equal(t, int64(2), stats.FailedExams)
	assert.InDelta(t, 75.0, stats.PassRate, 0.001)
	assert.Equal(t, 19, stats.BestScore)
}

func TestGetStats_NoExamsNoPassRate(t *testing.T) {
	svc := newExamForTest(&fakeExamRepo{}, &stubEntitlement{}, &stubSampler{})

	stats, err := svc.GetStats("user-1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalExams)
	assert.Zero(t, stats.PassRate)
}
