// Package conversation implements the per-owner dialogue: a post is held,
// a time reply turns it into a scheduled task, and commands and inline
// buttons manage the queue and the destination channel.
//
// States:
//
//	idle            --content-->        awaitingTime
//	awaitingTime    --valid time-->     idle (task scheduled)
//	awaitingTime    --invalid time-->   awaitingTime
//	any             --/setchannel-->    awaitingChannel
//	awaitingChannel --channel forward--> idle
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/aatumaykin/postbot/internal/timeparse"
)

// State is the dialogue position of one owner.
type State int

const (
	StateIdle State = iota
	StateAwaitingTime
	StateAwaitingChannel
)

func (s State) String() string {
	switch s {
	case StateAwaitingTime:
		return "awaiting_time"
	case StateAwaitingChannel:
		return "awaiting_channel"
	default:
		return "idle"
	}
}

// TaskStore is the subset of the store used by the dialogue.
type TaskStore interface {
	Append(ctx context.Context, task post.Task) (int, error)
	Replace(ctx context.Context, oldID string, task post.Task) (int, error)
	Remove(ctx context.Context, owner post.OwnerID, id string) bool
	RemoveAt(ctx context.Context, owner post.OwnerID, index int) (post.Task, error)
	List(owner post.OwnerID) []post.Task
	Get(owner post.OwnerID, id string) (post.Task, bool)
	Count(owner post.OwnerID) int
	Capacity() int
}

// ChannelRegistry resolves and stores owner channel bindings.
type ChannelRegistry interface {
	Get(owner post.OwnerID) string
	Set(ctx context.Context, owner post.OwnerID, chat string)
}

// Publisher arms tasks and publishes on demand.
type Publisher interface {
	Schedule(task post.Task) error
	PublishNow(ctx context.Context, owner post.OwnerID, id string) (post.Delivered, error)
	PublishPayload(ctx context.Context, owner post.OwnerID, payload post.PayloadRef) (post.Delivered, error)
}

// TimeParser interprets time replies.
type TimeParser interface {
	Parse(text string, now time.Time) (timeparse.Result, error)
}

// Config configures a Machine.
type Config struct {
	Now       func() time.Time
	Location  *time.Location
	ZoneLabel string
	Metrics   *metrics.PrometheusMetrics
}

// held is a post waiting for its time.
type held struct {
	payload post.PayloadRef
	preview string
	// retime is the ID of the task this post replaces.
	retime string
}

type session struct {
	mu    sync.Mutex
	state State
	held  *held
}

func (s *session) reset() {
	s.state = StateIdle
	s.held = nil
}

// Machine is safe for concurrent use. Events of one owner are handled one at
// a time; different owners proceed in parallel.
type Machine struct {
	tasks     TaskStore
	channels  ChannelRegistry
	publisher Publisher
	parser    TimeParser
	logger    *logger.Logger
	metrics   *metrics.PrometheusMetrics

	now       func() time.Time
	loc       *time.Location
	zoneLabel string

	mu       sync.Mutex
	sessions map[post.OwnerID]*session
}

// New creates a Machine.
func New(cfg Config, tasks TaskStore, channels ChannelRegistry, publisher Publisher, parser TimeParser, log *logger.Logger) *Machine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ZoneLabel == "" {
		cfg.ZoneLabel = constants.DefaultZoneLabel
	}
	return &Machine{
		tasks:     tasks,
		channels:  channels,
		publisher: publisher,
		parser:    parser,
		logger:    log.Component("conversation"),
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		loc:       cfg.Location,
		zoneLabel: cfg.ZoneLabel,
		sessions:  make(map[post.OwnerID]*session),
	}
}

// Handle processes one event and returns the reply for the owner.
func (m *Machine) Handle(ctx context.Context, ev Event) Reply {
	sess := m.session(ev.OwnerID())
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch e := ev.(type) {
	case Content:
		return m.handleContent(ctx, sess, e)
	case Command:
		return m.handleCommand(ctx, sess, e)
	case Button:
		return m.handleButton(ctx, sess, e)
	}

	m.logger.WarnCtx(ctx, "unsupported event", logger.Field{Key: "owner", Value: int64(ev.OwnerID())})
	return Reply{Outcome: OutcomeRejected, Text: constants.MsgInternalError}
}

// State returns the current dialogue state of the owner.
func (m *Machine) State(owner post.OwnerID) State {
	sess := m.session(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

func (m *Machine) session(owner post.OwnerID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[owner]
	if !ok {
		s = &session{}
		m.sessions[owner] = s
	}
	return s
}

func (m *Machine) clock() time.Time {
	return m.now().In(m.loc)
}

func rejected(text string, err error) Reply {
	return Reply{Outcome: OutcomeRejected, Text: text, Err: err}
}
