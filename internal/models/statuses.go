package models

type UserRole string
type Language string
type ExamStatus string
type PaymentStatus string
type PaymentType string
type PaymentMethod string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"

	LanguageEnglish     Language = "en"
	LanguageFrench      Language = "fr"
	LanguageKinyarwanda Language = "rw"

	ExamStatusInProgress ExamStatus = "in_progress"
	ExamStatusCompleted  ExamStatus = "completed"
	ExamStatusAbandoned  ExamStatus = "abandoned"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"

	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeProduct      PaymentType = "product"

	PaymentMethodMTN    PaymentMethod = "mtn_momo"
	PaymentMethodAirtel PaymentMethod = "airtel_money"
	PaymentMethodSpenn  PaymentMethod = "spenn"
)

// SupportedLanguages lists the languages questions are authored in.
var SupportedLanguages = []Language{LanguageEnglish, LanguageFrench, LanguageKinyarwanda}

// IsValidLanguage reports whether the language is supported.
func IsValidLanguage(lang Language) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// IsValidPaymentMethod reports whether the method is one we can route to
// the gateway.
func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodMTN, PaymentMethodAirtel, PaymentMethodSpenn:
		return true
	}
	return false
}
