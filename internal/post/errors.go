package post

import (
	"errors"
	"fmt"

	"github.com/aatumaykin/postbot/internal/logger"
)

// Parse error kinds.
var (
	ErrUnrecognized    = errors.New("unrecognized time expression")
	ErrMissingQuantity = errors.New("time expression is missing a quantity")
	ErrMissingTime     = fmt.Errorf("%w: time of day", ErrMissingQuantity)
)

var (
	ErrPastInstant        = errors.New("time is in the past")
	ErrCapacity           = errors.New("queue capacity reached")
	ErrChannelDesignation = errors.New("forwarded message is not from a channel or group")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskBusy           = errors.New("task is being published")
	ErrNothingPending     = errors.New("nothing pending")
)

// ParseError wraps a parse error kind together with the offending input.
type ParseError struct {
	Err   error
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CapacityError is returned when an owner's queue is full.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: limit %d", ErrCapacity, e.Limit)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacity
}

// DeliveryReason classifies why a publication failed.
type DeliveryReason string

const (
	ReasonUnreachable DeliveryReason = "unreachable"
	ReasonForbidden   DeliveryReason = "forbidden"
	ReasonPayloadGone DeliveryReason = "payload_gone"
	ReasonUnknown     DeliveryReason = "unknown"
)

// DeliveryError is reported when a payload could not be copied to a channel.
type DeliveryError struct {
	Reason DeliveryReason
	ChatID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed (%s): %v", e.ChatID, e.Reason, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// LogFields returns fields for structured logging.
func (e *DeliveryError) LogFields() []logger.Field {
	return []logger.Field{
		{Key: "reason", Value: string(e.Reason)},
		{Key: "chat_id", Value: e.ChatID},
	}
}

// PersistenceError wraps a failed snapshot load or save.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
