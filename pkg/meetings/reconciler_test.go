package meetings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

// pendingMeeting creates a meeting whose initial provisioning failed
// retryably, leaving it pending with one scheduled retry.
func pendingMeeting(t *testing.T, env *testEnv) *Meeting {
	t.Helper()

	env.client.createErr = perrors.ErrProviderUnavailable
	m, err := env.svc.Create(context.Background(), alice, CreateInput{
		Name:    "Flaky",
		AgentID: "a-tutor",
	})
	require.NoError(t, err)
	require.Equal(t, ProvisionPending, m.ProvisionState)
	env.client.createErr = nil
	return m
}

func newTestReconciler(env *testEnv) *Reconciler {
	return NewReconciler(env.svc, logging.NewNopLogger())
}

func TestReconcilerProvisionsDue(t *testing.T) {
	env := newTestEnv(t)
	m := pendingMeeting(t, env)
	r := newTestReconciler(env)

	// Not due yet: the pass leaves the meeting alone.
	require.NoError(t, r.RunOnce(context.Background()))
	assert.Equal(t, ProvisionPending, env.store.meetings[m.ID].ProvisionState)

	// Advance past the scheduled retry time.
	env.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, ProvisionReady, env.store.meetings[m.ID].ProvisionState)
	assert.NotContains(t, env.queue.entries, m.ID)
	require.NotEmpty(t, env.client.callIDs)
	assert.Equal(t, m.ID, env.client.callIDs[len(env.client.callIDs)-1])
}

func TestReconcilerReschedulesOnOutage(t *testing.T) {
	env := newTestEnv(t)
	m := pendingMeeting(t, env)
	r := newTestReconciler(env)

	env.client.createErr = perrors.ErrProviderUnavailable
	env.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, ProvisionPending, env.store.meetings[m.ID].ProvisionState)
	entry, ok := env.queue.entries[m.ID]
	require.True(t, ok)
	assert.Equal(t, 2, entry.attempt)
}

func TestReconcilerAbandonsAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	m := pendingMeeting(t, env)
	r := newTestReconciler(env)

	env.client.createErr = perrors.ErrProviderUnavailable
	base := time.Now()
	for i := 0; i < env.cfg.Reconciler.MaxAttempts+1; i++ {
		offset := time.Duration(i+1) * 24 * time.Hour
		env.svc.now = func() time.Time { return base.Add(offset) }
		require.NoError(t, r.RunOnce(context.Background()))
	}

	assert.Equal(t, ProvisionFailed, env.store.meetings[m.ID].ProvisionState)
	assert.NotContains(t, env.queue.entries, m.ID)
}

func TestReconcilerFailsOnRejection(t *testing.T) {
	env := newTestEnv(t)
	m := pendingMeeting(t, env)
	r := newTestReconciler(env)

	env.client.createErr = perrors.ErrProvider
	env.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, ProvisionFailed, env.store.meetings[m.ID].ProvisionState)
	assert.NotContains(t, env.queue.entries, m.ID)
}

func TestReconcilerSweepsStuckRows(t *testing.T) {
	env := newTestEnv(t)
	m := pendingMeeting(t, env)
	r := newTestReconciler(env)

	// Simulate a lost queue entry; only the stuck-row sweep can find it.
	delete(env.queue.entries, m.ID)
	env.store.meetings[m.ID].CreatedAt = time.Now().Add(-2 * env.cfg.Reconciler.StuckAfter)

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Equal(t, ProvisionReady, env.store.meetings[m.ID].ProvisionState)
}

func TestReconcilerSkipsResolvedEntries(t *testing.T) {
	env := newTestEnv(t)
	m := pendingMeeting(t, env)
	r := newTestReconciler(env)

	// The meeting was removed while a retry was still scheduled.
	require.NoError(t, env.store.DeleteAny(context.Background(), m.ID))

	env.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, r.RunOnce(context.Background()))
	assert.NotContains(t, env.queue.entries, m.ID, "entries for removed meetings are dropped")
}
