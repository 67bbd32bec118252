package apperrors

import (
	"fmt"
	"net/http"
)

/*
Factories and predefined variables for the domain errors of the exam and
payment flows. Dynamic errors (those carrying counts or shortfalls) are
factories; static ones are package variables.
*/

// =========================================================================
// Factory functions (wrapping repository errors)
// =========================================================================

// ErrNotFound converts a repository miss (gorm.ErrRecordNotFound and
// friends) into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409 AppError.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the generic conflict factory.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation is the factory for operations invalid in the
// current state.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Entitlement
// =========================================================================

// ErrNoSubscription - the user holds no active, unexpired subscription.
var ErrNoSubscription = New(
	CodeNoSubscription,
	"entitlement",
	"Active subscription required. Please purchase a subscription plan.",
	http.StatusForbidden,
)

// ErrSubscriptionExpired - the subscription's end date has passed.
var ErrSubscriptionExpired = New(
	CodeSubscriptionExpired,
	"entitlement",
	"Your subscription has expired. Please renew your plan.",
	http.StatusForbidden,
)

// ErrExamLimitReached builds the exhausted-attempts error with the counts
// the client needs to render a purchase prompt.
func ErrExamLimitReached(used, limit int) *AppError {
	return New(
		CodeExamLimitReached,
		"entitlement",
		fmt.Sprintf("You have used all %d exam attempts. Please purchase more exams.", limit),
		http.StatusForbidden,
	).WithDetails(map[string]int{
		"attemptsUsed":      used,
		"examLimit":         limit,
		"attemptsRemaining": 0,
	})
}

// ErrIncompleteExam - an in-progress attempt blocks a new session.
func ErrIncompleteExam(examID string) *AppError {
	return New(
		CodeIncompleteExamExists,
		"exam",
		"You have an incomplete exam. Please complete it first.",
		http.StatusBadRequest,
	).WithDetails(map[string]string{"examId": examID})
}

// =========================================================================
// Question supply (sampler)
// =========================================================================

// ErrInsufficientQuestions - the bank cannot cover the requested exam
// size in the given language. Reported as a server error: this is a
// content problem, not a client mistake.
func ErrInsufficientQuestions(language string, required, available int) *AppError {
	return New(
		CodeInsufficientQuestions,
		"sampler",
		fmt.Sprintf("Not enough questions in %s: need %d, found %d", language, required, available),
		http.StatusInternalServerError,
	).WithDetails(map[string]interface{}{
		"required":  required,
		"available": available,
		"language":  language,
	})
}

// ErrInsufficientPictureQuestions - same, for the picture-question minimum.
func ErrInsufficientPictureQuestions(language string, required, available int) *AppError {
	return New(
		CodeInsufficientPictureQuestions,
		"sampler",
		fmt.Sprintf("Not enough picture questions in %s: need %d, found %d", language, required, available),
		http.StatusInternalServerError,
	).WithDetails(map[string]interface{}{
		"required":  required,
		"available": available,
		"language":  language,
	})
}

// ErrInsufficientTextQuestions - same, for the text-only remainder.
func ErrInsufficientTextQuestions(language string, required, available int) *AppError {
	return New(
		CodeInsufficientTextQuestions,
		"sampler",
		fmt.Sprintf("Not enough text-only questions in %s: need %d, found %d", language, required, available),
		http.StatusInternalServerError,
	).WithDetails(map[string]interface{}{
		"required":  required,
		"available": available,
		"language":  language,
	})
}

// =========================================================================
// Exam session
// =========================================================================

// ErrExamNotFound - no attempt matches the id/user/status scope. Also
// returned on a second submit of an already-completed attempt: the scoped
// lookup requires status=in_progress.
var ErrExamNotFound = New(
	CodeNotFound,
	"exam",
	"Exam not found or already completed",
	http.StatusNotFound,
)

// ErrExamTimeExpired - the attempt's clock ran out; it has been
// auto-submitted with the answers recorded so far.
var ErrExamTimeExpired = New(
	CodeInvalidStatus,
	"exam",
	"Exam time has expired. Your exam was submitted automatically.",
	http.StatusBadRequest,
)

// ErrInvalidAnswer - the answer letter is outside a-d.
var ErrInvalidAnswer = New(
	CodeValidationFailed,
	"exam",
	"Invalid answer. Must be a, b, c, or d",
	http.StatusBadRequest,
)

// ErrQuestionNotInAttempt - the question id has no answer row in this
// attempt.
var ErrQuestionNotInAttempt = New(
	CodeNotFound,
	"exam",
	"Question not found in this exam",
	http.StatusNotFound,
)

// =========================================================================
// Payments
// =========================================================================

// ErrPaymentNotFound - no payment row for the id or transaction id.
var ErrPaymentNotFound = New(
	CodePaymentNotFound,
	"payment",
	"Payment not found",
	http.StatusNotFound,
)

// ErrPaymentUnauthorized - the payment belongs to another user.
var ErrPaymentUnauthorized = New(
	CodeForbidden,
	"payment",
	"Unauthorized access to this payment",
	http.StatusForbidden,
)

// ErrPaymentAlreadyCompleted - direct-action paths reject re-processing;
// the webhook path no-ops instead.
var ErrPaymentAlreadyCompleted = New(
	CodePaymentCompleted,
	"payment",
	"Payment already completed",
	http.StatusBadRequest,
)

// ErrPaymentNotPending builds the error for transitions that require a
// pending payment (cancel, initiate after the sweep, re-verify).
func ErrPaymentNotPending(status string) *AppError {
	return New(
		CodePaymentNotPending,
		"payment",
		fmt.Sprintf("Cannot process payment with status: %s", status),
		http.StatusBadRequest,
	)
}

// ErrGatewayUnconfigured - no API key is configured for the method.
func ErrGatewayUnconfigured(method string) *AppError {
	return New(
		CodeGatewayUnconfigured,
		"payment",
		fmt.Sprintf("Payment method %s not configured. Please contact support.", method),
		http.StatusInternalServerError,
	)
}

// ErrGateway wraps a gateway failure. The payment is marked failed before
// this propagates, so state never sits in pending after a known failure.
func ErrGateway(err error, message string) *AppError {
	if message == "" {
		message = "Payment provider error"
	}
	return Wrap(err, CodeGatewayError, "payment", message, http.StatusBadGateway)
}

// ErrMissingPaymentMetadata - a subscription payment carries no plan
// reference, so entitlement cannot be applied.
var ErrMissingPaymentMetadata = New(
	CodeMissingMetadata,
	"payment",
	"Payment metadata is missing the subscription plan reference",
	http.StatusInternalServerError,
)

// ErrPurchaseExists - the user already owns this product.
var ErrPurchaseExists = New(
	CodeAlreadyExists,
	"payment",
	"You have already purchased this product",
	http.StatusConflict,
)

// =========================================================================
// Misc
// =========================================================================

// ErrInsufficientPermissions - a non-admin attempted an admin action.
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// ErrInvalidLanguage builds the bad-language error listing the supported
// set.
func ErrInvalidLanguage(got string, supported []string) *AppError {
	return New(
		CodeValidationFailed,
		"validation",
		fmt.Sprintf("Invalid language %q. Must be one of: %v", got, supported),
		http.StatusBadRequest,
	)
}

// ErrInvalidPhone - phone number is not a valid Rwandan mobile number.
var ErrInvalidPhone = New(
	CodeValidationFailed,
	"validation",
	"Invalid phone number format. Must be 10 digits starting with 07",
	http.StatusBadRequest,
)
