package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ExamAttempt struct {
	BaseModel
	UserID           string     `gorm:"type:uuid;not null;index" json:"userId"`
	Language         Language   `gorm:"type:varchar(2);not null" json:"language"`
	Status           ExamStatus `gorm:"type:varchar(16);default:'in_progress';index" json:"status"`
	StartedAt        time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	TimeLimitMinutes int        `gorm:"not null" json:"timeLimitMinutes"`
	TotalQuestions   int        `gorm:"not null" json:"totalQuestions"`
	PictureQuestions int        `gorm:"not null" json:"pictureQuestions"`
	PassingScore     int        `gorm:"not null" json:"passingScore"`
	Score            int        `json:"score"`
	Passed           bool       `json:"passed"`
	AutoSubmitted    bool       `json:"autoSubmitted"`

	// Relations
	User    User         `gorm:"foreignKey:UserID" json:"-"`
	Answers []ExamAnswer `gorm:"foreignKey:AttemptID" json:"-"`
}

// Deadline is the instant after which the attempt can no longer accept
// answers.
func (a *ExamAttempt) Deadline() time.Time {
	return a.StartedAt.Add(time.Duration(a.TimeLimitMinutes) * time.Minute)
}

// IsExpired reports whether the time limit has elapsed at the given
// instant.
func (a *ExamAttempt) IsExpired(now time.Time) bool {
	return now.After(a.Deadline())
}

// ExamAnswer is one question slot inside an attempt. OptionOrder keeps
// the per-presentation shuffle of the canonical option letters, so the
// exam can be re-rendered and reviewed exactly as the student saw it.
// CorrectAnswer is the correct letter in that shuffled presentation.
type ExamAnswer struct {
	BaseModel
	AttemptID      string         `gorm:"type:uuid;not null;index:idx_attempt_question,unique" json:"attemptId"`
	QuestionID     string         `gorm:"type:uuid;not null;index:idx_attempt_question,unique" json:"questionId"`
	Position       int            `gorm:"not null" json:"position"`
	OptionOrder    datatypes.JSON `gorm:"type:jsonb;not null" json:"-"` // e.g. ["c","a","d","b"]
	CorrectAnswer  string         `gorm:"type:varchar(1);not null" json:"-"`
	SelectedAnswer string         `gorm:"type:varchar(1)" json:"selectedAnswer,omitempty"`
	IsCorrect      bool           `json:"isCorrect"`
	AnsweredAt     *time.Time     `json:"answeredAt,omitempty"`

	// Relations
	Question Question `gorm:"foreignKey:QuestionID" json:"-"`
}

// OptionOrderLetters decodes the stored presentation permutation.
func (a *ExamAnswer) OptionOrderLetters() ([]string, error) {
	var order []string
	if err := json.Unmarshal(a.OptionOrder, &order); err != nil {
		return nil, err
	}
	return order, nil
}

// SetOptionOrder encodes the presentation permutation.
func (a *ExamAnswer) SetOptionOrder(order []string) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	a.OptionOrder = datatypes.JSON(raw)
	return nil
}

// PresentedOptions maps the question's canonical options into the order
// the student saw, keyed by presentation letter.
func (a *ExamAnswer) PresentedOptions() (map[string]Option, error) {
	canonical, err := a.Question.OptionsMap()
	if err != nil {
		return nil, err
	}

	order, err := a.OptionOrderLetters()
	if err != nil {
		return nil, err
	}

	presented := make(map[string]Option, len(order))
	for i, canonicalLetter := range order {
		presented[OptionLetters[i]] = canonical[canonicalLetter]
	}
	return presented, nil
}
