package models

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OptionLetters is the canonical option ordering on a question.
var OptionLetters = []string{"a", "b", "c", "d"}

// Option is one answer choice. Text and Image are individually optional
// but at least one must be set; sign-recognition questions often carry
// image-only options.
type Option struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// IsEmpty reports whether the option carries neither text nor an image.
func (o Option) IsEmpty() bool {
	return o.Text == "" && o.Image == ""
}

type Question struct {
	BaseModel
	Text        string         `gorm:"type:text;not null" json:"text"`
	Options     datatypes.JSON `gorm:"type:jsonb;not null" json:"options"` // {"a": {"text": "...", "image": "..."}, ...}
	Answer      string         `gorm:"type:varchar(1);not null" json:"-"`  // canonical correct letter
	Explanation string         `gorm:"type:text" json:"explanation,omitempty"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	IsPicture   bool           `gorm:"index" json:"isPicture"`
	Language    Language       `gorm:"type:varchar(2);not null;index" json:"language"`
	Category    string         `gorm:"index" json:"category,omitempty"`
	IsActive    bool           `gorm:"default:true;index" json:"-"`
	UsageCount  int64          `gorm:"default:0" json:"-"`
}

// OptionsMap decodes the jsonb options column.
func (q *Question) OptionsMap() (map[string]Option, error) {
	opts := make(map[string]Option)
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// SetOptions encodes the options map into the jsonb column.
func (q *Question) SetOptions(opts map[string]Option) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(raw)
	return nil
}

// BeforeSave derives IsPicture from the question image and the option
// images, and rejects malformed questions. IsPicture is never trusted
// from input.
func (q *Question) BeforeSave(tx *gorm.DB) error {
	if !IsValidLanguage(q.Language) {
		return errors.New("question language must be one of: en, fr, rw")
	}

	if !IsOptionLetter(q.Answer) {
		return errors.New("question answer must be one of: a, b, c, d")
	}

	opts, err := q.OptionsMap()
	if err != nil {
		return errors.New("question options must be a JSON object keyed by option letter")
	}

	hasOptionImage := false
	for _, letter := range OptionLetters {
		opt := opts[letter]
		if opt.IsEmpty() {
			return errors.New("question must define all four options a-d with text or an image")
		}
		if opt.Image != "" {
			hasOptionImage = true
		}
	}

	q.IsPicture = q.ImageURL != "" || hasOptionImage

	return nil
}

// IsOptionLetter reports whether s is a canonical option letter.
func IsOptionLetter(s string) bool {
	for _, letter := range OptionLetters {
		if s == letter {
			return true
		}
	}
	return false
}
