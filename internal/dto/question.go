package dto

// OptionPayload is one answer choice on the wire. Text and image are
// individually optional; the model rejects options carrying neither.
type OptionPayload struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty" validate:"omitempty,url"`
}

type CreateQuestionRequest struct {
	Text        string                   `json:"text" validate:"required,min=5"`
	Options     map[string]OptionPayload `json:"options" validate:"required,dive"`
	Answer      string                   `json:"answer" validate:"required,oneof=a b c d"`
	Explanation string                   `json:"explanation"`
	ImageURL    string                   `json:"imageUrl" validate:"omitempty,url"`
	Language    string                   `json:"language" validate:"required,oneof=en fr rw"`
	Category    string                   `json:"category"`
}

type UpdateQuestionRequest struct {
	Text        *string                  `json:"text" validate:"omitempty,min=5"`
	Options     map[string]OptionPayload `json:"options" validate:"omitempty,dive"`
	Answer      *string                  `json:"answer" validate:"omitempty,oneof=a b c d"`
	Explanation *string                  `json:"explanation"`
	ImageURL    *string                  `json:"imageUrl" validate:"omitempty,url"`
	Category    *string                  `json:"category"`
	IsActive    *bool                    `json:"isActive"`
}

// QuestionAdminView includes the correct answer; it is only ever
// returned on admin routes.
type QuestionAdminView struct {
	ID          string                   `json:"id"`
	Text        string                   `json:"text"`
	Options     map[string]OptionPayload `json:"options"`
	Answer      string                   `json:"answer"`
	Explanation string                   `json:"explanation,omitempty"`
	ImageURL    string                   `json:"imageUrl,omitempty"`
	IsPicture   bool                     `json:"isPicture"`
	Language    string                   `json:"language"`
	Category    string                   `json:"category,omitempty"`
	IsActive    bool                     `json:"isActive"`
	UsageCount  int64                    `json:"usageCount"`
}

type QuestionListResponse struct {
	Questions []QuestionAdminView `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Limit     int                 `json:"limit"`
}
