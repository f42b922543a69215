package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsNotFoundError(store.ErrNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrTaskNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrConversationNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrMessageNotFound))
	assert.True(t, store.IsNotFoundError(fmt.Errorf("lookup: %w", store.ErrTaskNotFound)))
	assert.False(t, store.IsNotFoundError(store.ErrDuplicate))
	assert.False(t, store.IsNotFoundError(errors.New("boom")))
	assert.False(t, store.IsNotFoundError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()

		inner := errors.New("connection reset")
		err := store.NewStoreError("task", "update", "write failed", inner)

		assert.Contains(t, err.Error(), "update operation on task failed")
		assert.Contains(t, err.Error(), "connection reset")
		assert.ErrorIs(t, err, inner)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("message", "create", "bad row", nil)
		assert.Equal(t, "create operation on message failed: bad row", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}
