// Package messages renders user-facing replies from domain values.
package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/post"
)

// FormatHelp returns the help text with the current time in the reference zone.
func FormatHelp(now time.Time, zoneLabel string) string {
	return fmt.Sprintf(constants.MsgHelpHeader, zoneLabel, now.Format(constants.TimeDateLayout)) + constants.MsgHelpBody
}

// FormatAccepted confirms that a post is held and waits for a time.
func FormatAccepted(preview string) string {
	return fmt.Sprintf(constants.MsgPostAccepted, preview)
}

// FormatQueueFull reports the capacity limit.
func FormatQueueFull(limit int) string {
	return fmt.Sprintf(constants.MsgQueueFull, limit)
}

// Remaining splits the time left until at into whole hours and minutes.
func Remaining(now, at time.Time) (hours, minutes int) {
	d := at.Sub(now)
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return total / 3600, (total % 3600) / 60
}

// FormatScheduled confirms an accepted task.
//
// Example:
//
//	Принято в работу! ✅
//	Запланировано на 18.10.2026 10:15 (МСК)
//	Осталось: 0 ч 15 мин
//	Позиция в очереди: 1
func FormatScheduled(task post.Task, now time.Time, position int, zoneLabel string) string {
	hours, minutes := Remaining(now, task.TargetAt)

	builder := &strings.Builder{}
	builder.WriteString(constants.MsgScheduledHeader)
	builder.WriteString(fmt.Sprintf(constants.MsgScheduledAt, task.TargetAt.Format(constants.DateTimeLayout), zoneLabel))
	builder.WriteString(fmt.Sprintf(constants.MsgScheduledLeft, hours, minutes))
	builder.WriteString(fmt.Sprintf(constants.MsgScheduledPosition, position))
	if task.IsRecurring() {
		builder.WriteString(fmt.Sprintf(constants.MsgScheduledRepeat, FormatRecurrence(task.Recurrence)))
	}
	return builder.String()
}

// FormatQueue lists tasks numbered from 1 in queue order.
func FormatQueue(tasks []post.Task) string {
	if len(tasks) == 0 {
		return constants.MsgQueueEmpty
	}

	builder := &strings.Builder{}
	builder.WriteString(constants.MsgQueueHeader)
	for i, t := range tasks {
		marker := ""
		if t.IsRecurring() {
			marker = constants.MsgQueueItemRepeat
		}
		builder.WriteString(fmt.Sprintf(constants.MsgQueueItem, i+1, t.TargetAt.Format(constants.ListLayout), t.Preview, marker))
	}
	return builder.String()
}

// FormatStatus shows the bound channel and queue usage.
func FormatStatus(channel string, count, capacity int) string {
	if channel == "" {
		channel = constants.MsgChannelNotSet
	}
	return fmt.Sprintf(constants.MsgStatus, channel, count, capacity)
}

// FormatPublished notifies the owner about a scheduled publication.
func FormatPublished(link string, at time.Time, zoneLabel string) string {
	return fmt.Sprintf(constants.MsgPublished, link, at.Format(constants.TimeDateLayout), zoneLabel)
}

// FormatPublishFailed notifies the owner about a failed scheduled publication.
func FormatPublishFailed(preview string, err error) string {
	return fmt.Sprintf(constants.MsgPublishFailed, preview, FormatDeliveryReason(err))
}

var weeklyPhrases = map[time.Weekday]string{
	time.Monday:    "каждый понедельник",
	time.Tuesday:   "каждый вторник",
	time.Wednesday: "каждую среду",
	time.Thursday:  "каждый четверг",
	time.Friday:    "каждую пятницу",
	time.Saturday:  "каждую субботу",
	time.Sunday:    "каждое воскресенье",
}

// FormatRecurrence describes a repetition rule.
func FormatRecurrence(r post.Recurrence) string {
	switch r.Kind {
	case post.KindDaily:
		return fmt.Sprintf(constants.MsgRecurrenceDaily, r.Hour, r.Minute)
	case post.KindWeekly:
		return fmt.Sprintf(constants.MsgRecurrenceWeekly, weeklyPhrases[r.Weekday], r.Hour, r.Minute)
	case post.KindMonthly:
		return fmt.Sprintf(constants.MsgRecurrenceMonthly, r.Day, r.Hour, r.Minute)
	}
	return ""
}

// FormatChannelChanged confirms a new destination channel.
func FormatChannelChanged(chat string) string {
	return fmt.Sprintf(constants.MsgChannelChanged, chat)
}

// FormatCancelled confirms removal of the n-th queued post.
func FormatCancelled(index int) string {
	return fmt.Sprintf(constants.MsgCancelled, index)
}

// FormatPublishedNow confirms an immediate publication of a held post.
func FormatPublishedNow(link string) string {
	return fmt.Sprintf(constants.MsgPublishedNow, link)
}

// FormatPublishFailedNow reports a failed immediate publication.
func FormatPublishFailedNow(err error) string {
	return fmt.Sprintf(constants.MsgPublishFailedNow, FormatDeliveryReason(err))
}

// FormatButtonPublished is appended to the message whose button published the post.
func FormatButtonPublished(link string) string {
	return fmt.Sprintf(constants.MsgButtonPublished, link)
}
