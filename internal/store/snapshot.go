package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aatumaykin/postbot/internal/post"
	"github.com/google/uuid"
)

// Snapshot is the complete persisted state: every owner's queue and every
// channel binding.
type Snapshot struct {
	Tasks    map[post.OwnerID][]post.Task
	Channels map[post.OwnerID]string
}

// EmptySnapshot returns a snapshot with initialized maps.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Tasks:    make(map[post.OwnerID][]post.Task),
		Channels: make(map[post.OwnerID]string),
	}
}

// TaskCount returns the number of tasks across all owners.
func (s Snapshot) TaskCount() int {
	n := 0
	for _, tasks := range s.Tasks {
		n += len(tasks)
	}
	return n
}

// Owners returns owner IDs that have tasks or a channel binding, sorted.
func (s Snapshot) Owners() []post.OwnerID {
	seen := make(map[post.OwnerID]struct{}, len(s.Tasks)+len(s.Channels))
	for owner := range s.Tasks {
		seen[owner] = struct{}{}
	}
	for owner := range s.Channels {
		seen[owner] = struct{}{}
	}
	owners := make([]post.OwnerID, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// Persister stores and restores snapshots. Save always receives the full state.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Document is the serialized form of a Snapshot. Owner keys are decimal strings.
type Document struct {
	Tasks    map[string][]Record `json:"tasks" yaml:"tasks"`
	Channels map[string]string   `json:"channels" yaml:"channels"`
}

// Record is one serialized task.
type Record struct {
	ID         string           `json:"id" yaml:"id"`
	Time       time.Time        `json:"time" yaml:"time"`
	ChatID     int64            `json:"chat_id" yaml:"chat_id"`
	MessageID  int              `json:"message_id" yaml:"message_id"`
	Preview    string           `json:"preview" yaml:"preview"`
	Recurrence *post.Recurrence `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	CreatedAt  *time.Time       `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// NewRecord converts a task into its serialized form.
func NewRecord(t post.Task) Record {
	r := Record{
		ID:        t.ID,
		Time:      t.TargetAt,
		ChatID:    t.Payload.ChatID,
		MessageID: t.Payload.MessageID,
		Preview:   t.Preview,
	}
	if t.Recurrence.IsSet() {
		rec := t.Recurrence
		r.Recurrence = &rec
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		r.CreatedAt = &created
	}
	return r
}

// Task converts the record back, placing times in loc. Records written
// without an ID get a fresh one.
func (r Record) Task(owner post.OwnerID, loc *time.Location) (post.Task, error) {
	if r.Time.IsZero() {
		return post.Task{}, fmt.Errorf("task %q has no time", r.ID)
	}
	if r.MessageID == 0 {
		return post.Task{}, fmt.Errorf("task %q has no message id", r.ID)
	}
	t := post.Task{
		ID:       r.ID,
		Owner:    owner,
		TargetAt: r.Time.In(loc),
		Payload:  post.PayloadRef{ChatID: r.ChatID, MessageID: r.MessageID},
		Preview:  r.Preview,
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if r.Recurrence != nil {
		if err := r.Recurrence.Validate(); err != nil {
			return post.Task{}, fmt.Errorf("task %q: %w", r.ID, err)
		}
		t.Recurrence = *r.Recurrence
	}
	if r.CreatedAt != nil {
		t.CreatedAt = r.CreatedAt.In(loc)
	}
	return t, nil
}

// EncodeDocument converts a snapshot to its serialized form.
func EncodeDocument(s Snapshot) Document {
	doc := Document{
		Tasks:    make(map[string][]Record, len(s.Tasks)),
		Channels: make(map[string]string, len(s.Channels)),
	}
	for owner, tasks := range s.Tasks {
		if len(tasks) == 0 {
			continue
		}
		records := make([]Record, 0, len(tasks))
		for _, t := range tasks {
			records = append(records, NewRecord(t))
		}
		doc.Tasks[ownerKey(owner)] = records
	}
	for owner, chat := range s.Channels {
		doc.Channels[ownerKey(owner)] = chat
	}
	return doc
}

// DecodeDocument converts a serialized document into a snapshot. Entries that
// cannot be decoded are skipped and reported in the returned slice.
func DecodeDocument(doc Document, loc *time.Location) (Snapshot, []error) {
	if loc == nil {
		loc = time.UTC
	}
	snap := EmptySnapshot()
	var skipped []error

	for key, records := range doc.Tasks {
		owner, err := parseOwnerKey(key)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		for _, r := range records {
			t, err := r.Task(owner, loc)
			if err != nil {
				skipped = append(skipped, fmt.Errorf("owner %s: %w", key, err))
				continue
			}
			snap.Tasks[owner] = append(snap.Tasks[owner], t)
		}
	}
	for key, chat := range doc.Channels {
		owner, err := parseOwnerKey(key)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		if chat == "" {
			continue
		}
		snap.Channels[owner] = chat
	}
	return snap, skipped
}

func ownerKey(owner post.OwnerID) string {
	return strconv.FormatInt(int64(owner), 10)
}

func parseOwnerKey(key string) (post.OwnerID, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid owner key %q: %w", key, err)
	}
	return post.OwnerID(id), nil
}
