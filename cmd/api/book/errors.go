package book

import (
	"fmt"
	"strings"
)

type ErrResponse struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
}

func (e ErrResponse) Error() string {
	return e.Message
}

var ErrResponseValidationFailed = ErrResponse{100, "Validation failed"}
var ErrResponseBookNotFound = ErrResponse{101, "Book not found"}
var ErrResponseEntryInvalidJSON = ErrResponse{102, "invalid json request."}
var ErrResponseBookDuplicate = ErrResponse{103, "A book with this title and author already exists"}
var ErrResponseSearchQueryRequired = ErrResponse{104, "Search query is required"}
var ErrResponseAvailabilityNotBoolean = ErrResponse{105, MsgAvailabilityBoolean}
var ErrResponseEntryTooLarge = ErrResponse{106, "request body too large"}
var ErrResponseRateLimitExceeded = ErrResponse{107, "Too many requests"}
var ErrResponseRequestTimeout = ErrResponse{109, "context deadline exceeded"}

/* ValidationError carries every field-level message collected by Validate. */
type ValidationError struct {
	Details []string
}

func NewValidationError(details []string) ValidationError {
	return ValidationError{Details: details}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrResponseValidationFailed.Message, strings.Join(e.Details, "; "))
}

func (e ValidationError) Is(target error) bool {
	return target == ErrResponseValidationFailed
}

type ErrNotificationFailed struct {
	statusCode int
}

func (e ErrNotificationFailed) Error() string {
	return fmt.Sprintf("ntfy wrong response - want: 2xx, got: %d", e.statusCode)
}

func NewErrNotificationFailed(statusCode int) ErrNotificationFailed {
	return ErrNotificationFailed{statusCode: statusCode}
}
