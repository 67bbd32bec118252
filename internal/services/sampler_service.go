package services

import (
	"math/rand"
	"time"

	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/pkg/apperrors"
)

// SampledQuestion is a question prepared for one attempt: the canonical
// question plus the presentation shuffle applied for this session.
type SampledQuestion struct {
	Question      models.Question
	OptionOrder   []string // canonical letters in presentation order
	CorrectLetter string   // correct letter in the presentation
}

// SamplerService draws the question set for a new exam.
type SamplerService interface {
	// SampleExam selects the configured number of questions in the
	// language, honoring the picture-question minimum and avoiding
	// questions from the user's recent completed exams when the bank
	// allows it.
	SampleExam(userID string, language models.Language) ([]SampledQuestion, error)
}

type samplerService struct {
	questionRepo repositories.QuestionRepository
	examRepo     repositories.ExamRepository
	cfg          *config.Config
	newRng       func() *rand.Rand
}

func NewSamplerService(
	questionRepo repositories.QuestionRepository,
	examRepo repositories.ExamRepository,
	cfg *config.Config,
) SamplerService {
	return &samplerService{
		questionRepo: questionRepo,
		examRepo:     examRepo,
		cfg:          cfg,
		newRng: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *samplerService) SampleExam(userID string, language models.Language) ([]SampledQuestion, error) {
	if !models.IsValidLanguage(language) {
		langs := make([]string, len(models.SupportedLanguages))
		for i, l := range models.SupportedLanguages {
			langs[i] = string(l)
		}
		return nil, apperrors.ErrInvalidLanguage(string(language), langs)
	}

	total := s.cfg.Exam.TotalQuestions
	pictureMin := s.cfg.Exam.PictureQuestionsMin
	textCount := total - pictureMin

	// Supply check up front so a thin bank fails with a precise error
	// instead of a short exam
	isPicture := true
	pictureAvailable, err := s.questionRepo.CountActive(language, &isPicture)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if pictureAvailable < int64(pictureMin) {
		return nil, apperrors.ErrInsufficientPictureQuestions(string(language), pictureMin, int(pictureAvailable))
	}

	isText := false
	textAvailable, err := s.questionRepo.CountActive(language, &isText)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if textAvailable < int64(textCount) {
		return nil, apperrors.ErrInsufficientTextQuestions(string(language), textCount, int(textAvailable))
	}

	if pictureAvailable+textAvailable < int64(total) {
		return nil, apperrors.ErrInsufficientQuestions(string(language), total, int(pictureAvailable+textAvailable))
	}

	// Best effort: avoid repeating questions from the user's recent
	// completed exams
	excludeIDs, err := s.examRepo.RecentQuestionIDs(userID, s.cfg.Exam.RecentExamWindow)
	if err != nil {
		logger.Warn("failed to load recent question ids, sampling without exclusion", "user_id", userID, "error", err)
		excludeIDs = nil
	}

	pictures, err := s.samplePool(language, true, excludeIDs, pictureMin)
	if err != nil {
		return nil, err
	}

	texts, err := s.samplePool(language, false, excludeIDs, textCount)
	if err != nil {
		return nil, err
	}

	questions := append(pictures, texts...)

	rng := s.newRng()
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	sampled := make([]SampledQuestion, len(questions))
	ids := make([]string, len(questions))
	for i, q := range questions {
		order := shuffledOptionOrder(rng)
		sampled[i] = SampledQuestion{
			Question:      q,
			OptionOrder:   order,
			CorrectLetter: presentationCorrectLetter(order, q.Answer),
		}
		ids[i] = q.ID
	}

	if err := s.questionRepo.IncrementUsage(ids); err != nil {
		logger.Warn("failed to increment question usage", "error", err)
	}

	return sampled, nil
}

// samplePool draws count questions of one kind, preferring the excluded
// set honored and topping up from the full pool when exclusions leave
// too few.
func (s *samplerService) samplePool(language models.Language, isPicture bool, excludeIDs []string, count int) ([]models.Question, error) {
	if count == 0 {
		return nil, nil
	}

	questions, err := s.questionRepo.SampleRandom(language, isPicture, excludeIDs, count)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if len(questions) >= count {
		return questions[:count], nil
	}

	// Exclusions bit too deep into the pool: top up, skipping only what
	// was already drawn
	drawn := make([]string, len(questions))
	for i, q := range questions {
		drawn[i] = q.ID
	}

	topUp, err := s.questionRepo.SampleRandom(language, isPicture, drawn, count-len(questions))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	questions = append(questions, topUp...)

	if len(questions) < count {
		required := count
		if isPicture {
			return nil, apperrors.ErrInsufficientPictureQuestions(string(language), required, len(questions))
		}
		return nil, apperrors.ErrInsufficientTextQuestions(string(language), required, len(questions))
	}

	return questions, nil
}

// shuffledOptionOrder returns a random permutation of the canonical
// option letters.
func shuffledOptionOrder(rng *rand.Rand) []string {
	order := make([]string, len(models.OptionLetters))
	copy(order, models.OptionLetters)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// presentationCorrectLetter maps the canonical answer letter to its
// position in the shuffled presentation.
func presentationCorrectLetter(order []string, canonicalAnswer string) string {
	for i, letter := range order {
		if letter == canonicalAnswer {
			return models.OptionLetters[i]
		}
	}
	return canonicalAnswer
}
