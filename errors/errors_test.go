package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_Add(t *testing.T) {
	t.Parallel()

	t.Run("adds non-nil errors", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(fmt.Errorf("%w: Items[0]", ErrNotEnumerable))
		c.Add(fmt.Errorf("%w: Items[1]", ErrNotEnumerable))

		assert.True(t, c.HasError())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("ignores nil errors", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}

		c.Add(nil)

		assert.False(t, c.HasError())
		assert.Zero(t, c.Len())
		assert.Nil(t, c.Errors())
	})
}

func TestCollection_Errors(t *testing.T) {
	t.Parallel()

	c := &Collection{}
	c.Add(ErrValidation)
	c.Add(ErrMaxDepthExceeded)

	errs := c.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, ErrValidation, errs[0])
	assert.Equal(t, ErrMaxDepthExceeded, errs[1])

	// mutating the copy leaves the collection alone
	errs[0] = nil

	assert.Equal(t, ErrValidation, c.Errors()[0])
}

func TestCollection_Clear(t *testing.T) {
	t.Parallel()

	c := &Collection{}
	c.Add(ErrValidation)
	c.Clear()

	assert.False(t, c.HasError())
	require.NoError(t, c.GetError())

	c.Add(ErrPathNotFound)
	assert.ErrorIs(t, c.GetError(), ErrPathNotFound)
}

func TestCollection_GetError(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when empty", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}

		assert.NoError(t, c.GetError())
	})

	t.Run("returns single error unchanged", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(ErrWrongType)

		assert.Equal(t, ErrWrongType, c.GetError())
	})

	t.Run("joins multiple errors", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(fmt.Errorf("%w: model 0", ErrValidation))
		c.Add(fmt.Errorf("%w: model 2", ErrMaxDepthExceeded))

		err := c.GetError()

		require.Error(t, err)
		require.ErrorIs(t, err, ErrValidation)
		require.ErrorIs(t, err, ErrMaxDepthExceeded)
		assert.Contains(t, err.Error(), "model 2")
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotImplemented, ErrWrongType, ErrValidation, ErrNotEnumerable,
		ErrUnsupportedModel, ErrMaxDepthExceeded, ErrTooManyModelErrors,
		ErrInvalidModelName, ErrPathNotFound,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
