package conversation

import "github.com/aatumaykin/postbot/internal/post"

// Event is an inbound interaction from an owner.
type Event interface {
	OwnerID() post.OwnerID
}

// ForwardOrigin describes the chat a forwarded message came from.
type ForwardOrigin struct {
	ChatID   int64
	ChatType string
	Title    string
}

// Content is any non-command message: a post candidate, a time reply or a
// forward during channel designation.
type Content struct {
	Owner   post.OwnerID
	Payload post.PayloadRef
	Text    string
	Caption string
	Forward *ForwardOrigin
}

func (e Content) OwnerID() post.OwnerID { return e.Owner }

// Command is a slash command with its raw argument string.
type Command struct {
	Owner post.OwnerID
	Name  string
	Args  string
}

func (e Command) OwnerID() post.OwnerID { return e.Owner }

// Button is a press on an inline button bound to a task.
type Button struct {
	Owner  post.OwnerID
	Action string
	TaskID string
}

func (e Button) OwnerID() post.OwnerID { return e.Owner }

// Outcome classifies a reply.
type Outcome string

const (
	OutcomeHelp          Outcome = "help"
	OutcomeHeld          Outcome = "held"
	OutcomeScheduled     Outcome = "scheduled"
	OutcomeRejected      Outcome = "rejected"
	OutcomeListed        Outcome = "listed"
	OutcomeStatus        Outcome = "status"
	OutcomeChannelPrompt Outcome = "channel_prompt"
	OutcomeChannelSet    Outcome = "channel_set"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomeAborted       Outcome = "aborted"
	OutcomePublished     Outcome = "published"
	OutcomeRetimePrompt  Outcome = "retime_prompt"
)

// Reply is what the owner should see after an event.
type Reply struct {
	Outcome Outcome
	Text    string
	// Err is set for rejected events.
	Err error
	// Task is the accepted task; the transport attaches its buttons.
	Task *post.Task
	// Edit marks button replies that are appended to the button's message
	// instead of shown as a short notice.
	Edit bool
}
