package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"intervention_backend/internal/model"
	"intervention_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderScheduler_RemindStale(t *testing.T) {
	store := newMemStore(model.Student{ID: "s1", Name: "Ada"}, model.Student{ID: "s2", Name: "Grace"})
	ctx := context.Background()

	// memStore 的创建时间为 time.Unix(seq, 0)
	stale := model.NewPendingIntervention("s1", "Quiz score 3/10, focus 10 minutes")
	require.NoError(t, store.CreateIntervention(ctx, stale))
	assigned := model.NewPendingIntervention("s2", "Quiz score 1/10, focus 5 minutes")
	require.NoError(t, store.CreateIntervention(ctx, assigned))
	assigned.Assign("Drill", "Mentor", time.Unix(3, 0))
	require.NoError(t, store.SaveIntervention(ctx, assigned))

	var (
		mu   sync.Mutex
		sent []InterventionNotification
	)
	d := NewDispatcher(notifierFunc(func(ctx context.Context, n InterventionNotification) error {
		mu.Lock()
		sent = append(sent, n)
		mu.Unlock()
		return nil
	}), time.Second)

	s := NewReminderScheduler(store, d, "@every 1h", time.Hour)
	s.now = func() time.Time { return time.Unix(2, 0).Add(time.Hour) }

	n, err := s.RemindStale(ctx)
	require.NoError(t, err)
	d.Wait()

	assert.Equal(t, 1, n)
	require.Len(t, sent, 1)
	assert.Equal(t, EventInterventionReminder, sent[0].Event)
	assert.Equal(t, "Ada", sent[0].StudentName)
	assert.Equal(t, stale.ID, sent[0].InterventionID)

	s.now = func() time.Time { return time.Unix(1, 0).Add(time.Hour) }
	n, err = s.RemindStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReminderScheduler_StoreFailure(t *testing.T) {
	store := newMemStore(model.Student{ID: "s1", Name: "Ada"})
	require.NoError(t, store.CreateIntervention(context.Background(), model.NewPendingIntervention("s1", "r")))
	store.failWith = assert.AnError

	s := NewReminderScheduler(store, NewDispatcher(&mockNotifier{}, time.Second), "@every 1h", time.Nanosecond)
	s.now = func() time.Time { return time.Unix(100, 0) }

	_, err := s.RemindStale(context.Background())
	assert.Equal(t, util.KindStore, util.KindOf(err))
}

func TestReminderScheduler_StartRejectsBadSpec(t *testing.T) {
	s := NewReminderScheduler(newMemStore(), NewDispatcher(&mockNotifier{}, time.Second), "not a cron spec", time.Hour)
	assert.Error(t, s.Start())

	ok := NewReminderScheduler(newMemStore(), NewDispatcher(&mockNotifier{}, time.Second), "@every 1h", time.Hour)
	require.NoError(t, ok.Start())
	ok.Stop()
}
