package transaction

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/tannhaus/accord/internal/errors"
)

// Reason is one accumulated validation finding.
type Reason struct {
	Code     apperrors.Code
	Message  string
	Metadata map[string]string
}

// Verdict is the structured outcome of one validation pass. Checks
// accumulate; a verdict with multiple errors shows the caller every problem
// at once instead of the first one hit.
type Verdict struct {
	Errors   []Reason
	Warnings []Reason
}

// OK reports whether validation found no errors. Warnings do not block.
func (v Verdict) OK() bool {
	return len(v.Errors) == 0
}

// Messages returns the human-readable error messages in order.
func (v Verdict) Messages() []string {
	messages := make([]string, 0, len(v.Errors))
	for _, reason := range v.Errors {
		messages = append(messages, reason.Message)
	}
	return messages
}

func (v *Verdict) addError(err *apperrors.Error) {
	v.Errors = append(v.Errors, Reason{Code: err.Code, Message: err.Message, Metadata: err.Metadata})
}

func (v *Verdict) addWarning(err *apperrors.Error) {
	v.Warnings = append(v.Warnings, Reason{Code: err.Code, Message: err.Message, Metadata: err.Metadata})
}

// ValidationFailedError reports a proposal or acceptance declined by
// validation. It is an expected, recoverable outcome and carries the full
// verdict so callers can surface every reason.
type ValidationFailedError struct {
	Verdict Verdict
	cause   *apperrors.Error
}

func newValidationFailedError(verdict Verdict) *ValidationFailedError {
	return &ValidationFailedError{
		Verdict: verdict,
		cause: apperrors.WithMetadata(
			apperrors.CodeTradeValidationFailed,
			"trade validation failed",
			map[string]string{"Reasons": strings.Join(verdict.Messages(), "; ")},
		),
	}
}

// Error implements the error interface.
func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("trade validation failed: %s", strings.Join(e.Verdict.Messages(), "; "))
}

// Unwrap exposes the domain error so errors.As and code extraction work.
func (e *ValidationFailedError) Unwrap() error {
	return e.cause
}

// AsValidationFailed extracts a ValidationFailedError from an error chain.
func AsValidationFailed(err error) (*ValidationFailedError, bool) {
	var vErr *ValidationFailedError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
