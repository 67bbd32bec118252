package dto

import "time"

type StartExamRequest struct {
	Language string `json:"language" validate:"required,oneof=en fr rw"`
}

// ExamQuestionView is a question as presented inside an attempt. Options
// are keyed by presentation letter, already shuffled for this attempt.
// The correct answer is never included.
type ExamQuestionView struct {
	QuestionID string                   `json:"questionId"`
	Position   int                      `json:"position"`
	Text       string                   `json:"text"`
	ImageURL   string                   `json:"imageUrl,omitempty"`
	IsPicture  bool                     `json:"isPicture"`
	Options    map[string]OptionPayload `json:"options"`
	Selected   string                   `json:"selectedAnswer,omitempty"`
}

type ExamSessionResponse struct {
	ExamID           string             `json:"examId"`
	Language         string             `json:"language"`
	Status           string             `json:"status"`
	StartedAt        time.Time          `json:"startedAt"`
	Deadline         time.Time          `json:"deadline"`
	TimeLimitMinutes int                `json:"timeLimitMinutes"`
	TotalQuestions   int                `json:"totalQuestions"`
	Questions        []ExamQuestionView `json:"questions"`
}

// SubmitAnswerRequest carries one answer. The letter is accepted in
// either case and normalized before judging.
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required,uuid"`
	Answer     string `json:"answer" validate:"required,oneof=a b c d A B C D"`
}

type ExamResultResponse struct {
	ExamID         string     `json:"examId"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	PassingScore   int        `json:"passingScore"`
	Passed         bool       `json:"passed"`
	AutoSubmitted  bool       `json:"autoSubmitted"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// ReviewQuestionView is one question in a completed exam's review,
// rendered in the presentation order the student saw, with the correct
// letter and explanation revealed.
type ReviewQuestionView struct {
	QuestionID     string                   `json:"questionId"`
	Position       int                      `json:"position"`
	Text           string                   `json:"text"`
	ImageURL       string                   `json:"imageUrl,omitempty"`
	IsPicture      bool                     `json:"isPicture"`
	Options        map[string]OptionPayload `json:"options"`
	SelectedAnswer string                   `json:"selectedAnswer,omitempty"`
	CorrectAnswer  string                   `json:"correctAnswer"`
	IsCorrect      bool                     `json:"isCorrect"`
	Explanation    string                   `json:"explanation,omitempty"`
}

type ExamReviewResponse struct {
	ExamID    string               `json:"examId"`
	Result    ExamResultResponse   `json:"result"`
	Questions []ReviewQuestionView `json:"questions"`
}

type ExamSummary struct {
	ExamID         string     `json:"examId"`
	Language       string     `json:"language"`
	Status         string     `json:"status"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	Passed         bool       `json:"passed"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type ExamHistoryResponse struct {
	Exams []ExamSummary `json:"exams"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type ExamStatsResponse struct {
	TotalExams   int64   `json:"totalExams"`
	PassedExams  int64   `json:"passedExams"`
	FailedExams  int64   `json:"failedExams"`
	PassRate     float64 `json:"passRate"`
	AverageScore float64 `json:"averageScore"`
	BestScore    int     `json:"bestScore"`
}
