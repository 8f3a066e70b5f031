// Package post holds the domain model of the bot: pending publications,
// their recurrence rules and the errors shared by every component that
// handles them.
package post

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// PreviewLimit is the number of runes kept in a task preview.
const PreviewLimit = 40

// MediaPreview is shown for messages that carry neither text nor caption.
const MediaPreview = "[медиа]"

// OwnerID identifies the Telegram user that owns tasks and a channel binding.
type OwnerID int64

// PayloadRef locates the original message that will be copied on delivery.
type PayloadRef struct {
	ChatID    int64 `json:"chat_id" yaml:"chat_id"`
	MessageID int   `json:"message_id" yaml:"message_id"`
}

// IsZero reports whether the reference points nowhere.
func (p PayloadRef) IsZero() bool {
	return p.ChatID == 0 && p.MessageID == 0
}

// Task is a pending publication.
type Task struct {
	ID         string
	Owner      OwnerID
	TargetAt   time.Time
	Payload    PayloadRef
	Preview    string
	Recurrence Recurrence
	CreatedAt  time.Time
}

// NewTask builds a task with a fresh identity.
func NewTask(owner OwnerID, payload PayloadRef, preview string, at time.Time, rec Recurrence, now time.Time) Task {
	return Task{
		ID:         uuid.NewString(),
		Owner:      owner,
		TargetAt:   at,
		Payload:    payload,
		Preview:    preview,
		Recurrence: rec,
		CreatedAt:  now,
	}
}

// IsRecurring reports whether the task is re-armed after delivery.
func (t Task) IsRecurring() bool {
	return t.Recurrence.IsSet()
}

// Delivered describes a successfully published copy.
type Delivered struct {
	ChatID    string
	MessageID int
	Link      string
}

// MakePreview derives the short human-readable summary stored with a task.
func MakePreview(text, caption string) string {
	s := text
	if s == "" {
		s = caption
	}
	if s == "" {
		return MediaPreview
	}
	if utf8.RuneCountInString(s) <= PreviewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLimit]) + "..."
}
