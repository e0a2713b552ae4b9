package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "craneguard/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseEventID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseEventID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEventID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseEventID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, EventID(validUUID), id)
	})

	t.Run("part request IDs validate the same way", func(t *testing.T) {
		_, err := ParsePartRequestID("not-a-uuid")
		require.Error(t, err)

		validUUID := uuid.New()
		id, err := ParsePartRequestID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, PartRequestID(validUUID), id)
	})
}

func TestIsNil(t *testing.T) {
	assert.True(t, EventID{}.IsNil())
	assert.False(t, NewEventID().IsNil())
	assert.True(t, PartRequestID{}.IsNil())
	assert.False(t, NewPartRequestID().IsNil())
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	eventID := EventID(uuid.New())
	requestID := PartRequestID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ EventID = requestID   // compile error
	// var _ PartRequestID = eventID // compile error

	assert.NotEqual(t, uuid.UUID(eventID), uuid.UUID(requestID))
}
