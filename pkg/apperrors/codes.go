package apperrors

// ErrorCode identifies an error class in API responses.
type ErrorCode string

// Cross-cutting codes.
const (
	// System and unknown errors
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business-logic codes (used by factories)
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Authentication and authorization
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Entitlement codes. Clients branch on these to render the corrective
// action (buy a plan, renew, finish the open exam).
const (
	CodeNoSubscription       ErrorCode = "NO_SUBSCRIPTION"
	CodeSubscriptionExpired  ErrorCode = "SUBSCRIPTION_EXPIRED"
	CodeExamLimitReached     ErrorCode = "EXAM_LIMIT_REACHED"
	CodeIncompleteExamExists ErrorCode = "INCOMPLETE_EXAM"
)

// Question-bank supply codes. These are operator problems, not user
// problems: the bank needs more content before exams can be generated.
const (
	CodeInsufficientQuestions        ErrorCode = "INSUFFICIENT_QUESTIONS"
	CodeInsufficientPictureQuestions ErrorCode = "INSUFFICIENT_PICTURE_QUESTIONS"
	CodeInsufficientTextQuestions    ErrorCode = "INSUFFICIENT_TEXT_QUESTIONS"
)

// Payment codes.
const (
	CodePaymentNotFound     ErrorCode = "PAYMENT_NOT_FOUND"
	CodePaymentCompleted    ErrorCode = "PAYMENT_ALREADY_COMPLETED"
	CodePaymentNotPending   ErrorCode = "PAYMENT_NOT_PENDING"
	CodeGatewayUnconfigured ErrorCode = "PAYMENT_METHOD_UNCONFIGURED"
	CodeGatewayError        ErrorCode = "PAYMENT_GATEWAY_ERROR"
	CodeMissingMetadata     ErrorCode = "PAYMENT_METADATA_MISSING"
)
