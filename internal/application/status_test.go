package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathIsFullyConnected(t *testing.T) {
	path := []Status{
		StatusSubmitted,
		StatusARegister,
		StatusSentToCourt,
		StatusCourtReplied,
		StatusSuperintendentReceived,
		StatusCallForNotice,
		StatusPaymentReceived,
		StatusXeroxAssigned,
		StatusReady,
		StatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]),
			"%s -> %s must be allowed", path[i], path[i+1])
	}
}

func TestStageSkippingRejected(t *testing.T) {
	assert.False(t, CanTransition(StatusSubmitted, StatusPaymentReceived))
	assert.False(t, CanTransition(StatusSubmitted, StatusSentToCourt))
	assert.False(t, CanTransition(StatusARegister, StatusCallForNotice))
}

func TestBackwardMovesRejected(t *testing.T) {
	assert.False(t, CanTransition(StatusSentToCourt, StatusARegister))
	assert.False(t, CanTransition(StatusDelivered, StatusReady))
	assert.False(t, CanTransition(StatusCallForNotice, StatusSubmitted))
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	require.True(t, IsTerminal(StatusDelivered))
	require.True(t, IsTerminal(StatusStruckOff))

	all := []Status{
		StatusSubmitted, StatusARegister, StatusSentToCourt, StatusCourtReplied,
		StatusSuperintendentReceived, StatusCallForNotice, StatusPaymentReceived,
		StatusXeroxAssigned, StatusReady, StatusDelivered, StatusStruckOff,
	}
	for _, target := range all {
		assert.False(t, CanTransition(StatusDelivered, target))
		assert.False(t, CanTransition(StatusStruckOff, target))
	}
}

func TestStruckOffOnlyReachableFromCallForNotice(t *testing.T) {
	reachableFrom := []Status{}
	all := []Status{
		StatusSubmitted, StatusARegister, StatusSentToCourt, StatusCourtReplied,
		StatusSuperintendentReceived, StatusCallForNotice, StatusPaymentReceived,
		StatusXeroxAssigned, StatusReady,
	}
	for _, from := range all {
		if CanTransition(from, StatusStruckOff) {
			reachableFrom = append(reachableFrom, from)
		}
	}
	assert.Equal(t, []Status{StatusCallForNotice}, reachableFrom)
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{
		"submitted", "a_register", "sent_to_court", "court_replied",
		"superintendent_received", "call_for_notice", "payment_received",
		"xerox_assigned", "ready", "delivered", "struck_off",
	} {
		st, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Status(raw), st)
	}

	_, err := ParseStatus("archived")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestAllowedTransitionsIsACopy(t *testing.T) {
	first := AllowedTransitions(StatusCallForNotice)
	require.Len(t, first, 2)
	first[0] = StatusDelivered

	second := AllowedTransitions(StatusCallForNotice)
	assert.Equal(t, StatusPaymentReceived, second[0], "mutating the returned slice must not corrupt the table")
}
