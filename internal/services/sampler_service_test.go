package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/pkg/apperrors"
)

func samplerConfig(total, pictureMin int) *config.Config {
	cfg := &config.Config{}
	cfg.Exam.TotalQuestions = total
	cfg.Exam.PictureQuestionsMin = pictureMin
	cfg.Exam.RecentExamWindow = 3
	return cfg
}

func makeQuestions(prefix string, count int, isPicture bool) []models.Question {
	questions := make([]models.Question, count)
	for i := range questions {
		q := models.Question{
			BaseModel: models.BaseModel{ID: fmt.Sprintf("%s-%d", prefix, i)},
			Text:      fmt.Sprintf("question %s-%d", prefix, i),
			Answer:    "b",
			Language:  models.LanguageEnglish,
			IsPicture: isPicture,
			IsActive:  true,
		}
		if isPicture {
			q.ImageURL = "https://cdn.example.test/" + q.ID + ".png"
		}
		_ = q.SetOptions(map[string]models.Option{
			"a": {Text: "A"},
			"b": {Text: "B"},
			"c": {Text: "C"},
			"d": {Text: "D"},
		})
		questions[i] = q
	}
	return questions
}

// bankQuestionRepo serves from fixed picture and text pools, honoring
// exclusions the way the real sampler query does.
func bankQuestionRepo(pictures, texts []models.Question) *fakeQuestionRepo {
	pool := func(isPicture bool) []models.Question {
		if isPicture {
			return pictures
		}
		return texts
	}
	return &fakeQuestionRepo{
		countActiveFn: func(language models.Language, isPicture *bool) (int64, error) {
			if isPicture == nil {
				return int64(len(pictures) + len(texts)), nil
			}
			return int64(len(pool(*isPicture))), nil
		},
		sampleRandomFn: func(language models.Language, isPicture bool, excludeIDs []string, limit int) ([]models.Question, error) {
			excluded := make(map[string]bool, len(excludeIDs))
			for _, id := range excludeIDs {
				excluded[id] = true
			}
			var out []models.Question
			for _, q := range pool(isPicture) {
				if excluded[q.ID] {
					continue
				}
				out = append(out, q)
				if len(out) == limit {
					break
				}
			}
			return out, nil
		},
	}
}

func newSamplerForTest(questionRepo *fakeQuestionRepo, examRepo *fakeExamRepo, cfg *config.Config) *samplerService {
	return &samplerService{
		questionRepo: questionRepo,
		examRepo:     examRepo,
		cfg:          cfg,
		newRng:       func() *rand.Rand { return rand.New(rand.NewSource(7)) },
	}
}

func TestSampleExam_ComposesPictureAndTextQuestions(t *testing.T) {
	pictures := makeQuestions("pic", 10, true)
	texts := makeQuestions("txt", 30, false)
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), &fakeExamRepo{}, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)
	require.Len(t, sampled, 20)

	pictureCount := 0
	seen := make(map[string]bool)
	for _, sq := range sampled {
		assert.False(t, seen[sq.Question.ID], "question %s sampled twice", sq.Question.ID)
		seen[sq.Question.ID] = true
		if sq.Question.IsPicture {
			pictureCount++
		}
	}
	assert.Equal(t, 4, pictureCount)
}

func TestSampleExam_OptionOrderIsAValidPermutation(t *testing.T) {
	pictures := makeQuestions("pic", 4, true)
	texts := makeQuestions("txt", 16, false)
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), &fakeExamRepo{}, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)

	for _, sq := range sampled {
		require.Len(t, sq.OptionOrder, len(models.OptionLetters))
		seen := make(map[string]bool)
		for _, letter := range sq.OptionOrder {
			assert.Contains(t, models.OptionLetters, letter)
			assert.False(t, seen[letter], "letter %s repeated in option order", letter)
			seen[letter] = true
		}
	}
}

func TestSampleExam_CorrectLetterTracksTheShuffle(t *testing.T) {
	pictures := makeQuestions("pic", 4, true)
	texts := makeQuestions("txt", 16, false)
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), &fakeExamRepo{}, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)

	for _, sq := range sampled {
		// The presentation slot holding the canonical answer is the
		// slot the correct letter must point at
		var slot int
		for i, letter := range sq.OptionOrder {
			if letter == sq.Question.Answer {
				slot = i
				break
			}
		}
		assert.Equal(t, models.OptionLetters[slot], sq.CorrectLetter)
	}
}

func TestSampleExam_RejectsUnknownLanguage(t *testing.T) {
	svc := newSamplerForTest(&fakeQuestionRepo{}, &fakeExamRepo{}, samplerConfig(20, 4))

	_, err := svc.SampleExam("user-1", models.Language("de"))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestSampleExam_InsufficientPictureQuestions(t *testing.T) {
	pictures := makeQuestions("pic", 3, true)
	texts := makeQuestions("txt", 30, false)
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), &fakeExamRepo{}, samplerConfig(20, 4))

	_, err := svc.SampleExam("user-1", models.LanguageEnglish)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientPictureQuestions, appErr.Code)

	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4, details["required"])
	assert.Equal(t, 3, details["available"])
}

func TestSampleExam_InsufficientTextQuestions(t *testing.T) {
	pictures := makeQuestions("pic", 10, true)
	texts := makeQuestions("txt", 15, false)
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), &fakeExamRepo{}, samplerConfig(20, 4))

	_, err := svc.SampleExam("user-1", models.LanguageEnglish)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientTextQuestions, appErr.Code)
}

func TestSampleExam_RecentQuestionsExcludedWhenBankAllows(t *testing.T) {
	pictures := makeQuestions("pic", 8, true)
	texts := makeQuestions("txt", 32, false)
	repo := bankQuestionRepo(pictures, texts)
	examRepo := &fakeExamRepo{
		recentQuestionIDsFn: func(userID string, window int) ([]string, error) {
			return []string{"pic-0", "pic-1", "txt-0", "txt-1"}, nil
		},
	}
	svc := newSamplerForTest(repo, examRepo, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)

	for _, sq := range sampled {
		assert.NotContains(t, []string{"pic-0", "pic-1", "txt-0", "txt-1"}, sq.Question.ID)
	}
}

func TestSampleExam_ToppedUpWhenExclusionsRunPoolDry(t *testing.T) {
	// Exactly four pictures exist and two are recent; the exam still
	// needs four, so the sampler must dip back into the recent pool
	pictures := makeQuestions("pic", 4, true)
	texts := makeQuestions("txt", 20, false)
	examRepo := &fakeExamRepo{
		recentQuestionIDsFn: func(userID string, window int) ([]string, error) {
			return []string{"pic-0", "pic-1"}, nil
		},
	}
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), examRepo, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)
	require.Len(t, sampled, 20)

	pictureCount := 0
	for _, sq := range sampled {
		if sq.Question.IsPicture {
			pictureCount++
		}
	}
	assert.Equal(t, 4, pictureCount)
}

func TestSampleExam_RecentLookupFailureFallsBackToFullPool(t *testing.T) {
	pictures := makeQuestions("pic", 4, true)
	texts := makeQuestions("txt", 16, false)
	examRepo := &fakeExamRepo{
		recentQuestionIDsFn: func(userID string, window int) ([]string, error) {
			return nil, fmt.Errorf("history unavailable")
		},
	}
	svc := newSamplerForTest(bankQuestionRepo(pictures, texts), examRepo, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Len(t, sampled, 20)
}

func TestSampleExam_RecordsQuestionUsage(t *testing.T) {
	pictures := makeQuestions("pic", 4, true)
	texts := makeQuestions("txt", 16, false)
	repo := bankQuestionRepo(pictures, texts)

	var usedIDs []string
	repo.incrementUsageFn = func(ids []string) error {
		usedIDs = ids
		return nil
	}
	svc := newSamplerForTest(repo, &fakeExamRepo{}, samplerConfig(20, 4))

	sampled, err := svc.SampleExam("user-1", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Len(t, usedIDs, len(sampled))
}

func TestShuffledOptionOrder_AlwaysPermutes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		order := shuffledOptionOrder(rng)
		require.Len(t, order, 4)
		assert.ElementsMatch(t, models.OptionLetters, order)
	}
}

func TestPresentationCorrectLetter(t *testing.T) {
	cases := []struct {
		order     []string
		canonical string
		want      string
	}{
		{[]string{"a", "b", "c", "d"}, "b", "b"},
		{[]string{"c", "a", "d", "b"}, "c", "a"},
		{[]string{"c", "a", "d", "b"}, "b", "d"},
		{[]string{"d", "c", "b", "a"}, "a", "d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, presentationCorrectLetter(tc.order, tc.canonical))
	}
}
