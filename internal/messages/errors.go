package messages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/post"
)

// FormatConfigLoadError formats a configuration loading error message.
func FormatConfigLoadError(err error) string {
	return fmt.Sprintf(constants.MsgConfigLoadError, err)
}

// FormatValidationErrors formats a list of validation errors with numbering.
//
// Parameters:
//   - errs: Slice of validation errors to format
//
// Returns:
//   - Formatted string with all validation errors numbered (1, 2, 3...)
func FormatValidationErrors(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	builder := &strings.Builder{}
	builder.WriteString(constants.MsgConfigValidationError)
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf(constants.MsgConfigValidatePrefix, fmt.Sprintf("%d. %v", i+1, err)))
	}
	return builder.String()
}

// FormatParseError turns a time parsing failure into a user reply.
func FormatParseError(input string, err error) string {
	switch {
	case errors.Is(err, post.ErrPastInstant):
		return constants.MsgPastInstant
	case errors.Is(err, post.ErrMissingTime):
		return constants.MsgMissingTime
	case errors.Is(err, post.ErrMissingQuantity):
		if isWeeklyAttempt(input) {
			return constants.MsgMissingWeekday
		}
		return constants.MsgMissingQuantity
	default:
		return constants.MsgUnrecognized
	}
}

func isWeeklyAttempt(input string) bool {
	s := strings.ToLower(input)
	return strings.Contains(s, "кажд") || strings.Contains(s, "every")
}

// FormatDeliveryReason describes a delivery failure in user terms.
func FormatDeliveryReason(err error) string {
	var derr *post.DeliveryError
	if !errors.As(err, &derr) {
		return constants.MsgReasonUnknown
	}
	switch derr.Reason {
	case post.ReasonUnreachable:
		return constants.MsgReasonUnreachable
	case post.ReasonForbidden:
		return constants.MsgReasonForbidden
	case post.ReasonPayloadGone:
		return constants.MsgReasonPayloadGone
	default:
		return constants.MsgReasonUnknown
	}
}
