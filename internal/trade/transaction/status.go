package transaction

import (
	"strings"

	apperrors "github.com/tannhaus/accord/internal/errors"
)

// Status is the lifecycle phase of a trade record.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status is final. Every status except PENDING
// is terminal; a terminal record never transitions again.
func (s Status) Terminal() bool {
	return s != StatusPending && s != ""
}

// ParseStatus converts a string into a known Status, failing closed on
// anything outside the enumerated set.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", apperrors.WithMetadata(
			apperrors.CodeFilterInvalid,
			"unknown trade status: "+value,
			map[string]string{"Status": value},
		)
	}
}
