package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
)

func TestTransitionAction(t *testing.T) {
	legal := []struct {
		from, to Status
		action   Action
	}{
		{StatusActive, StatusAcknowledged, ActionAcknowledge},
		{StatusActive, StatusResolved, ActionResolve},
		{StatusActive, StatusSuppressed, ActionSuppress},
		{StatusAcknowledged, StatusResolved, ActionResolve},
		{StatusAcknowledged, StatusSuppressed, ActionSuppress},
		{StatusResolved, StatusActive, ActionReopen},
		{StatusSuppressed, StatusActive, ActionReactivate},
	}
	for _, tc := range legal {
		action, ok := TransitionAction(tc.from, tc.to)
		require.True(t, ok, "%s -> %s should be legal", tc.from, tc.to)
		assert.Equal(t, tc.action, action)
	}

	illegal := []struct{ from, to Status }{
		{StatusResolved, StatusAcknowledged},
		{StatusResolved, StatusSuppressed},
		{StatusSuppressed, StatusAcknowledged},
		{StatusSuppressed, StatusResolved},
		{StatusAcknowledged, StatusActive},
	}
	for _, tc := range illegal {
		_, ok := TransitionAction(tc.from, tc.to)
		assert.False(t, ok, "%s -> %s should be illegal", tc.from, tc.to)
	}

	t.Run("no self-transition no-ops", func(t *testing.T) {
		for _, s := range []Status{StatusActive, StatusAcknowledged, StatusResolved, StatusSuppressed} {
			_, ok := TransitionAction(s, s)
			assert.False(t, ok, "%s -> %s should be illegal", s, s)
		}
	})
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"active", "acknowledged", "resolved", "suppressed"} {
		status, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), status)
	}

	_, err := ParseStatus("escalated")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestEventValidate(t *testing.T) {
	valid := func() *Event {
		return &Event{
			ID:          domain.NewEventID(),
			Timestamp:   time.Now(),
			ComponentID: "CRANE-01",
			Type:        "overheat",
			Status:      StatusActive,
		}
	}

	t.Run("accepts a well-formed event", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		e := valid()
		e.ID = domain.EventID{}
		assert.True(t, dErrors.HasCode(e.Validate(), dErrors.CodeValidation))

		e = valid()
		e.ComponentID = ""
		assert.True(t, dErrors.HasCode(e.Validate(), dErrors.CodeValidation))

		e = valid()
		e.Type = ""
		assert.True(t, dErrors.HasCode(e.Validate(), dErrors.CodeValidation))
	})

	t.Run("rejects resolution notes outside resolved", func(t *testing.T) {
		e := valid()
		e.ResolutionNotes = "replaced the fan"
		assert.True(t, dErrors.HasCode(e.Validate(), dErrors.CodeValidation))

		e.Status = StatusResolved
		require.NoError(t, e.Validate())
	})
}
