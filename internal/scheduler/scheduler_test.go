package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

type fakeDeliverer struct {
	mu    sync.Mutex
	calls []post.PayloadRef
	chats []string
	err   error
}

func (f *fakeDeliverer) Deliver(_ context.Context, payload post.PayloadRef, chatID string) (post.Delivered, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, payload)
	f.chats = append(f.chats, chatID)
	if f.err != nil {
		return post.Delivered{}, f.err
	}
	return post.Delivered{ChatID: chatID, MessageID: 100 + len(f.calls), Link: "https://t.me/c/1/1"}, nil
}

func (f *fakeDeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []post.Task
	failed    []error
}

func (f *fakeNotifier) NotifyDelivered(_ context.Context, task post.Task, _ post.Delivered) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, task)
}

func (f *fakeNotifier) NotifyFailed(_ context.Context, _ post.Task, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, err)
}

func (f *fakeNotifier) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered), len(f.failed)
}

type fixture struct {
	store     *store.Store
	deliverer *fakeDeliverer
	notifier  *fakeNotifier
	sched     *Scheduler
}

func newFixture(t *testing.T, now func() time.Time) *fixture {
	t.Helper()
	st := store.New(nil, store.Options{DefaultChannel: "-100500", Location: msk}, logger.Nop())
	f := &fixture{store: st, deliverer: &fakeDeliverer{}, notifier: &fakeNotifier{}}
	f.sched = New(Config{Location: msk, MaxWait: 10 * time.Millisecond, Now: now},
		st, st.Channels(), f.deliverer, f.notifier, logger.Nop())
	return f
}

func (f *fixture) add(t *testing.T, owner post.OwnerID, at time.Time, rec post.Recurrence) post.Task {
	t.Helper()
	task := post.NewTask(owner, post.PayloadRef{ChatID: int64(owner), MessageID: 1}, "preview", at, rec, at)
	_, err := f.store.Append(context.Background(), task)
	require.NoError(t, err)
	return task
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sched.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = f.sched.Stop(ctx)
	})
}

func TestScheduler_PublishesAtTarget(t *testing.T) {
	f := newFixture(t, time.Now)
	f.start(t)
	task := f.add(t, 1, time.Now().Add(50*time.Millisecond), post.Recurrence{})

	require.NoError(t, f.sched.Schedule(task))

	assert.Eventually(t, func() bool { return f.deliverer.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !f.sched.Armed(task.ID) }, time.Second, 5*time.Millisecond)
	assert.False(t, f.store.Contains(1, task.ID))
	delivered, failed := f.notifier.counts()
	assert.Equal(t, 1, delivered)
	assert.Zero(t, failed)
	assert.Equal(t, []string{"-100500"}, f.deliverer.chats)
}

func TestScheduler_CancelledTaskIsNotPublished(t *testing.T) {
	f := newFixture(t, time.Now)
	f.start(t)
	task := f.add(t, 1, time.Now().Add(150*time.Millisecond), post.Recurrence{})
	require.NoError(t, f.sched.Schedule(task))

	require.True(t, f.store.Remove(context.Background(), 1, task.ID))

	assert.Eventually(t, func() bool { return !f.sched.Armed(task.ID) }, time.Second, 5*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, f.deliverer.count())
}

func TestScheduler_DuplicateTriggerIsNoOp(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return now })
	task := f.add(t, 1, now.Add(-time.Second), post.Recurrence{})

	assert.Equal(t, fireDone, f.sched.fire(context.Background(), task))
	assert.Equal(t, fireDone, f.sched.fire(context.Background(), task))

	assert.Equal(t, 1, f.deliverer.count())
	delivered, _ := f.notifier.counts()
	assert.Equal(t, 1, delivered)
}

func TestScheduler_DuplicateScheduleIgnored(t *testing.T) {
	f := newFixture(t, time.Now)
	f.start(t)
	task := f.add(t, 1, time.Now().Add(30*time.Millisecond), post.Recurrence{})

	require.NoError(t, f.sched.Schedule(task))
	require.NoError(t, f.sched.Schedule(task))

	assert.Eventually(t, func() bool { return f.deliverer.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.deliverer.count())
}

func TestScheduler_ScheduleBeforeStart(t *testing.T) {
	f := newFixture(t, time.Now)
	task := f.add(t, 1, time.Now().Add(time.Hour), post.Recurrence{})
	assert.ErrorIs(t, f.sched.Schedule(task), ErrNotStarted)
}

func TestScheduler_RecurringAdvances(t *testing.T) {
	tests := []struct {
		name string
		rec  post.Recurrence
		at   time.Time
		want time.Time
	}{
		{
			name: "daily",
			rec:  post.Daily(9, 0),
			at:   time.Date(2026, 10, 18, 9, 0, 0, 0, msk),
			want: time.Date(2026, 10, 19, 9, 0, 0, 0, msk),
		},
		{
			name: "weekly",
			rec:  post.Weekly(time.Sunday, 9, 0),
			at:   time.Date(2026, 10, 18, 9, 0, 0, 0, msk),
			want: time.Date(2026, 10, 25, 9, 0, 0, 0, msk),
		},
		{
			name: "monthly",
			rec:  post.Monthly(1, 9, 0),
			at:   time.Date(2026, 10, 1, 9, 0, 0, 0, msk),
			want: time.Date(2026, 11, 1, 9, 0, 0, 0, msk),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.at.Add(5 * time.Second)
			f := newFixture(t, func() time.Time { return now })
			task := f.add(t, 1, tt.at, tt.rec)

			assert.Equal(t, fireAgain, f.sched.fire(context.Background(), task))

			got, ok := f.store.Get(1, task.ID)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got.TargetAt), "want %s, got %s", tt.want, got.TargetAt)
			assert.Equal(t, 1, f.deliverer.count())
		})
	}
}

func TestScheduler_RecurringSkipsMissedOccurrences(t *testing.T) {
	at := time.Date(2026, 10, 10, 9, 0, 0, 0, msk)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return now })
	task := f.add(t, 1, at, post.Daily(9, 0))

	f.sched.fire(context.Background(), task)

	got, ok := f.store.Get(1, task.ID)
	require.True(t, ok)
	assert.True(t, time.Date(2026, 10, 19, 9, 0, 0, 0, msk).Equal(got.TargetAt))
	assert.Equal(t, 1, f.deliverer.count(), "missed occurrences are not replayed")
}

func TestScheduler_FailureRemovesOneOffAndNotifies(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return now })
	f.deliverer.err = &post.DeliveryError{Reason: post.ReasonForbidden, ChatID: "-100500", Err: errors.New("403")}
	task := f.add(t, 1, now, post.Recurrence{})

	assert.Equal(t, fireDone, f.sched.fire(context.Background(), task))

	assert.False(t, f.store.Contains(1, task.ID))
	_, failed := f.notifier.counts()
	require.Equal(t, 1, failed)
	var derr *post.DeliveryError
	assert.True(t, errors.As(f.notifier.failed[0], &derr))
	assert.Equal(t, post.ReasonForbidden, derr.Reason)
}

func TestScheduler_FailureAdvancesRecurring(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return at })
	f.deliverer.err = &post.DeliveryError{Reason: post.ReasonUnreachable, Err: errors.New("timeout")}
	task := f.add(t, 1, at, post.Daily(9, 0))

	assert.Equal(t, fireAgain, f.sched.fire(context.Background(), task))

	got, ok := f.store.Get(1, task.ID)
	require.True(t, ok)
	assert.True(t, at.AddDate(0, 0, 1).Equal(got.TargetAt))
	_, failed := f.notifier.counts()
	assert.Equal(t, 1, failed)
}

func TestScheduler_FireNoticesRetime(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return now })
	task := f.add(t, 1, now, post.Daily(12, 0))

	stale := task
	stale.TargetAt = now.Add(-time.Hour)
	assert.Equal(t, fireAgain, f.sched.fire(context.Background(), stale))
	assert.Zero(t, f.deliverer.count())
}

func TestScheduler_RestoreArmsEachTaskOnce(t *testing.T) {
	f := newFixture(t, time.Now)
	f.start(t)
	far := time.Now().Add(time.Hour)
	a := f.add(t, 1, far, post.Recurrence{})
	b := f.add(t, 1, far, post.Daily(10, 0))
	c := f.add(t, 2, far, post.Recurrence{})

	n, err := f.sched.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = f.sched.Restore(context.Background())
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID, c.ID} {
		assert.True(t, f.sched.Armed(id))
	}
	f.sched.mu.Lock()
	assert.Len(t, f.sched.armed, 3)
	f.sched.mu.Unlock()
}

func TestScheduler_PublishNow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return now })
	once := f.add(t, 1, now.Add(time.Hour), post.Recurrence{})
	daily := f.add(t, 1, now.Add(time.Hour), post.Daily(13, 0))

	delivered, err := f.sched.PublishNow(ctx, 1, once.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, delivered.Link)
	assert.False(t, f.store.Contains(1, once.ID))

	_, err = f.sched.PublishNow(ctx, 1, daily.ID)
	require.NoError(t, err)
	got, ok := f.store.Get(1, daily.ID)
	require.True(t, ok)
	assert.True(t, daily.TargetAt.Equal(got.TargetAt), "recurring task keeps its schedule")

	_, err = f.sched.PublishNow(ctx, 1, once.ID)
	assert.ErrorIs(t, err, post.ErrTaskNotFound)

	_, err = f.sched.PublishNow(ctx, 2, daily.ID)
	assert.ErrorIs(t, err, post.ErrTaskNotFound, "tasks of other owners are invisible")

	delivered2, failed := f.notifier.counts()
	assert.Zero(t, delivered2)
	assert.Zero(t, failed)
}

func TestScheduler_PublishNowFailureKeepsTask(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)
	f := newFixture(t, func() time.Time { return now })
	f.deliverer.err = &post.DeliveryError{Reason: post.ReasonPayloadGone, Err: errors.New("gone")}
	task := f.add(t, 1, now.Add(time.Hour), post.Recurrence{})

	_, err := f.sched.PublishNow(context.Background(), 1, task.ID)
	assert.Error(t, err)
	assert.True(t, f.store.Contains(1, task.ID))
}

func TestScheduler_PublishPayload(t *testing.T) {
	f := newFixture(t, time.Now)
	f.store.Channels().Set(context.Background(), 3, "-100333")

	_, err := f.sched.PublishPayload(context.Background(), 3, post.PayloadRef{ChatID: 3, MessageID: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"-100333"}, f.deliverer.chats)
}

func TestScheduler_StopEndsWaitUnits(t *testing.T) {
	f := newFixture(t, time.Now)
	require.NoError(t, f.sched.Start(context.Background()))
	task := f.add(t, 1, time.Now().Add(time.Hour), post.Recurrence{})
	require.NoError(t, f.sched.Schedule(task))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.sched.Stop(ctx))

	assert.False(t, f.sched.Armed(task.ID))
	assert.Zero(t, f.deliverer.count())
	assert.True(t, f.store.Contains(1, task.ID), "shutdown keeps pending tasks")
}
