package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func openTemp(t *testing.T) (*Persister, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "postbot.db")
	p, err := Open(context.Background(), path, msk, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, path
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ", msk, logger.Nop())
	assert.Error(t, err)
}

func TestPersister_EmptyDatabase(t *testing.T) {
	p, _ := openTemp(t)

	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.TaskCount())
}

func TestPersister_SaveReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	p, path := openTemp(t)
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)

	snap := store.EmptySnapshot()
	snap.Tasks[1] = []post.Task{
		{ID: "a", Owner: 1, TargetAt: at, Payload: post.PayloadRef{ChatID: 1, MessageID: 10}, Preview: "first", CreatedAt: at.Add(-time.Hour)},
		{ID: "b", Owner: 1, TargetAt: at.Add(time.Hour), Payload: post.PayloadRef{ChatID: 1, MessageID: 11}, Preview: "second", Recurrence: post.Monthly(1, 13, 0)},
	}
	snap.Channels[1] = "-100321"
	require.NoError(t, p.Save(ctx, snap))

	snap.Tasks[1] = snap.Tasks[1][1:]
	require.NoError(t, p.Save(ctx, snap))
	require.NoError(t, p.Close())

	reopened, err := Open(ctx, path, msk, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Tasks[1], 1)
	task := got.Tasks[1][0]
	assert.Equal(t, "b", task.ID)
	assert.Equal(t, post.Monthly(1, 13, 0), task.Recurrence)
	assert.True(t, at.Add(time.Hour).Equal(task.TargetAt))
	assert.Equal(t, post.PayloadRef{ChatID: 1, MessageID: 11}, task.Payload)
	assert.Equal(t, "-100321", got.Channels[1])
}

func TestPersister_PreservesQueueOrder(t *testing.T) {
	ctx := context.Background()
	p, _ := openTemp(t)
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, msk)

	s := store.New(p, store.Options{Location: msk}, logger.Nop())
	var ids []string
	for i := 0; i < 5; i++ {
		// Later entries get earlier instants so order is by position, not time.
		task := post.NewTask(9, post.PayloadRef{ChatID: 9, MessageID: i + 1}, "p", at.Add(-time.Duration(i)*time.Minute), post.Recurrence{}, at)
		_, err := s.Append(ctx, task)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	restored := store.New(p, store.Options{Location: msk}, logger.Nop())
	require.NoError(t, restored.LoadAll(ctx))

	var got []string
	for _, task := range restored.List(9) {
		got = append(got, task.ID)
	}
	assert.Equal(t, ids, got)
}

func TestPersister_KeepsSubSecondInstants(t *testing.T) {
	ctx := context.Background()
	p, _ := openTemp(t)
	at := time.Date(2026, 10, 18, 12, 0, 0, 123456789, msk)
	created := at.Add(-1500 * time.Millisecond)

	snap := store.EmptySnapshot()
	snap.Tasks[3] = []post.Task{
		{ID: "n", Owner: 3, TargetAt: at, Payload: post.PayloadRef{ChatID: 3, MessageID: 1}, Preview: "p", CreatedAt: created},
	}
	require.NoError(t, p.Save(ctx, snap))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Tasks[3], 1)
	assert.True(t, at.Equal(got.Tasks[3][0].TargetAt), "got %s", got.Tasks[3][0].TargetAt)
	assert.True(t, created.Equal(got.Tasks[3][0].CreatedAt), "got %s", got.Tasks[3][0].CreatedAt)
}
