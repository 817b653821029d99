package statemachine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/statemachine"
)

var (
	stateTrial     = statemachine.StringState("trial")
	stateActive    = statemachine.StringState("active")
	stateCancelled = statemachine.StringState("cancelled")

	eventActivate = statemachine.StringEvent("activate")
	eventCancel   = statemachine.StringEvent("cancel")
)

func newLifecycleMachine(t *testing.T) statemachine.StateMachine {
	t.Helper()

	sm, err := statemachine.New(stateTrial,
		statemachine.WithTransition(stateTrial, stateActive, eventActivate),
		statemachine.WithTransition(stateTrial, stateCancelled, eventCancel),
		statemachine.WithTransition(stateActive, stateCancelled, eventCancel),
	)
	require.NoError(t, err)
	return sm
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil initial state", func(t *testing.T) {
		t.Parallel()

		sm, err := statemachine.New(nil)
		require.Error(t, err)
		assert.Nil(t, sm)
	})

	t.Run("nil transition parts", func(t *testing.T) {
		t.Parallel()

		_, err := statemachine.New(stateTrial,
			statemachine.WithTransition(stateTrial, nil, eventActivate),
		)
		require.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	})

	t.Run("duplicate transition", func(t *testing.T) {
		t.Parallel()

		_, err := statemachine.New(stateTrial,
			statemachine.WithTransition(stateTrial, stateActive, eventActivate),
			statemachine.WithTransition(stateTrial, stateCancelled, eventActivate),
		)
		require.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	})
}

func TestMustNew_PanicsOnError(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		statemachine.MustNew(stateTrial,
			statemachine.WithTransition(nil, stateActive, eventActivate),
		)
	})
}

func TestFire(t *testing.T) {
	t.Parallel()

	t.Run("follows defined transitions", func(t *testing.T) {
		t.Parallel()

		sm := newLifecycleMachine(t)
		require.Equal(t, "trial", sm.Current().Name())

		require.NoError(t, sm.Fire(eventActivate))
		assert.Equal(t, "active", sm.Current().Name())

		require.NoError(t, sm.Fire(eventCancel))
		assert.Equal(t, "cancelled", sm.Current().Name())
	})

	t.Run("undefined transition", func(t *testing.T) {
		t.Parallel()

		sm := newLifecycleMachine(t)
		require.NoError(t, sm.Fire(eventCancel))

		err := sm.Fire(eventActivate)
		require.ErrorIs(t, err, statemachine.ErrNoTransition)
		assert.Equal(t, "cancelled", sm.Current().Name())
	})

	t.Run("nil event", func(t *testing.T) {
		t.Parallel()

		sm := newLifecycleMachine(t)
		require.ErrorIs(t, sm.Fire(nil), statemachine.ErrInvalidEvent)
	})
}

func TestCanFire(t *testing.T) {
	t.Parallel()

	sm := newLifecycleMachine(t)

	assert.True(t, sm.CanFire(eventActivate))
	assert.True(t, sm.CanFire(eventCancel))
	assert.False(t, sm.CanFire(statemachine.StringEvent("expire")))
	assert.False(t, sm.CanFire(nil))

	require.NoError(t, sm.Fire(eventActivate))
	assert.False(t, sm.CanFire(eventActivate))
	assert.True(t, sm.CanFire(eventCancel))
}

func TestReset(t *testing.T) {
	t.Parallel()

	sm := newLifecycleMachine(t)
	require.NoError(t, sm.Fire(eventActivate))
	require.Equal(t, "active", sm.Current().Name())

	sm.Reset()
	assert.Equal(t, "trial", sm.Current().Name())
	assert.True(t, sm.CanFire(eventActivate))
}
