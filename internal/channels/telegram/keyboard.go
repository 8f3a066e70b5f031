package telegram

import (
	"strings"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/mymmrac/telego"
)

// taskKeyboard renders the buttons attached to an accepted task. Buttons
// carry the task ID so they stay valid after the queue is renumbered.
func taskKeyboard(taskID string) *telego.InlineKeyboardMarkup {
	button := func(text, action string) telego.InlineKeyboardButton {
		return telego.InlineKeyboardButton{Text: text, CallbackData: callbackData(action, taskID)}
	}
	return &telego.InlineKeyboardMarkup{
		InlineKeyboard: [][]telego.InlineKeyboardButton{
			{button(constants.MsgButtonPublish, constants.ButtonPublish)},
			{
				button(constants.MsgButtonCancel, constants.ButtonCancel),
				button(constants.MsgButtonRetime, constants.ButtonRetime),
			},
		},
	}
}

func callbackData(action, taskID string) string {
	return action + constants.CallbackSeparator + taskID
}

// parseCallbackData splits "<action>:<task id>".
func parseCallbackData(data string) (action, taskID string, ok bool) {
	action, taskID, ok = strings.Cut(data, constants.CallbackSeparator)
	if !ok || action == "" || taskID == "" {
		return "", "", false
	}
	return action, taskID, true
}
