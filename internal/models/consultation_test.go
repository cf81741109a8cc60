package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsultationTransitions(t *testing.T) {
	// Pending resolves exactly once, four ways.
	assert.True(t, ConsultationPending.CanTransition(ConsultationAccepted))
	assert.True(t, ConsultationPending.CanTransition(ConsultationDeclined))
	assert.True(t, ConsultationPending.CanTransition(ConsultationCancelled))
	assert.True(t, ConsultationPending.CanTransition(ConsultationExpired))
	assert.False(t, ConsultationPending.CanTransition(ConsultationCompleted))

	// Accepted only ever completes.
	assert.True(t, ConsultationAccepted.CanTransition(ConsultationCompleted))
	assert.False(t, ConsultationAccepted.CanTransition(ConsultationDeclined))
	assert.False(t, ConsultationAccepted.CanTransition(ConsultationExpired))

	// Terminal states go nowhere.
	for _, s := range []ConsultationState{
		ConsultationDeclined,
		ConsultationCancelled,
		ConsultationExpired,
		ConsultationCompleted,
	} {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
		assert.False(t, s.CanTransition(ConsultationPending))
	}

	assert.False(t, ConsultationPending.IsTerminal())
	assert.False(t, ConsultationAccepted.IsTerminal())
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Now()
	r := ConsultationRequest{ExpiresAt: now.Add(90 * time.Second)}

	assert.Equal(t, 90, r.RemainingSeconds(now))
	assert.Equal(t, 30, r.RemainingSeconds(now.Add(time.Minute)))

	// Clamped at zero past expiry; never negative.
	assert.Equal(t, 0, r.RemainingSeconds(now.Add(2*time.Minute)))
	assert.Equal(t, 0, r.RemainingSeconds(now.Add(time.Hour)))
}
