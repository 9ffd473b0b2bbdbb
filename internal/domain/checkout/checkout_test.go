package checkout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asif4762/bookbarn-final-server/internal/domain/checkout"
)

func TestLifecycleHappyPath(t *testing.T) {
	chk := checkout.New("txn-1", "buyer@example.com", 2500)
	assert.Equal(t, checkout.StatusStarted, chk.Status)

	require.NoError(t, chk.SessionCreated())
	require.NoError(t, chk.Confirmed())
	require.NoError(t, chk.Reconciled())

	assert.Equal(t, checkout.StatusReconciled, chk.Status)
	assert.True(t, chk.Status.Terminal())
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *checkout.Checkout) error
	}{
		{
			name: "started cannot skip to confirmed",
			run:  func(c *checkout.Checkout) error { return c.Confirmed() },
		},
		{
			name: "started cannot skip to reconciled",
			run:  func(c *checkout.Checkout) error { return c.Reconciled() },
		},
		{
			name: "session created cannot skip to reconciled",
			run: func(c *checkout.Checkout) error {
				if err := c.SessionCreated(); err != nil {
					return err
				}
				return c.Reconciled()
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chk := checkout.New("txn-1", "buyer@example.com", 100)
			assert.ErrorIs(t, tc.run(chk), checkout.ErrInvalidStateTransition)
		})
	}
}

func TestReconciledIsFinal(t *testing.T) {
	chk := checkout.New("txn-1", "buyer@example.com", 100)
	require.NoError(t, chk.SessionCreated())
	require.NoError(t, chk.Confirmed())
	require.NoError(t, chk.Reconciled())

	assert.ErrorIs(t, chk.Fail("too late"), checkout.ErrInvalidStateTransition)
	assert.Equal(t, checkout.StatusReconciled, chk.Status)
}

func TestFailIsAbsorbing(t *testing.T) {
	chk := checkout.New("txn-1", "buyer@example.com", 100)
	require.NoError(t, chk.Fail("gateway_session_failed"))

	assert.Equal(t, checkout.StatusFailed, chk.Status)
	assert.Equal(t, "gateway_session_failed", chk.FailureReason)
	assert.True(t, chk.Status.Terminal())

	assert.ErrorIs(t, chk.SessionCreated(), checkout.ErrInvalidStateTransition)
	assert.ErrorIs(t, chk.Fail("again"), checkout.ErrInvalidStateTransition)
}

func TestFromCallbackResumesConfirmed(t *testing.T) {
	chk := checkout.FromCallback("txn-1", "buyer@example.com")
	assert.Equal(t, checkout.StatusConfirmed, chk.Status)
	require.NoError(t, chk.Reconciled())
}
