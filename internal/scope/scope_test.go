package scope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReleaseOrderLIFO(t *testing.T) {
	var order []int
	err := Run(func(s *Scope) error {
		for i := 0; i < 3; i++ {
			i := i
			s.Defer(func() error {
				order = append(order, i)
				return nil
			})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 1, 0}, order)
}

func TestReleaseRunsOnError(t *testing.T) {
	released := false
	opErr := errors.New("operation failed")
	err := Run(func(s *Scope) error {
		s.Defer(func() error {
			released = true
			return nil
		})
		return opErr
	})
	require.ErrorIs(t, err, opErr)
	require.True(t, released)
}

func TestReleaseErrorDoesNotMaskOperationError(t *testing.T) {
	opErr := errors.New("operation failed")
	err := Run(func(s *Scope) error {
		s.Defer(func() error { return errors.New("release failed") })
		return opErr
	})
	require.ErrorIs(t, err, opErr)
}

func TestReleaseErrorSurfacedWhenOperationSucceeds(t *testing.T) {
	relErr := errors.New("release failed")
	err := Run(func(s *Scope) error {
		s.Defer(func() error { return relErr })
		return nil
	})
	require.ErrorIs(t, err, relErr)
}

func TestFailingReleaseDoesNotAbortSiblings(t *testing.T) {
	var ran []string
	err := Run(func(s *Scope) error {
		s.Defer(func() error {
			ran = append(ran, "first")
			return nil
		})
		s.Defer(func() error {
			ran = append(ran, "second")
			return errors.New("second failed")
		})
		return nil
	})
	require.Error(t, err)
	require.Equal(t, []string{"second", "first"}, ran)
}

func TestReleaseRunsOnPanic(t *testing.T) {
	released := false
	require.Panics(t, func() {
		_ = Run(func(s *Scope) error {
			s.Defer(func() error {
				released = true
				return nil
			})
			panic("boom")
		})
	})
	require.True(t, released)
}

func TestNestedScopes(t *testing.T) {
	var order []string
	err := Run(func(outer *Scope) error {
		outer.Defer(func() error {
			order = append(order, "outer")
			return nil
		})
		return Run(func(inner *Scope) error {
			inner.Defer(func() error {
				order = append(order, "inner")
				return nil
			})
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, []string{"inner", "outer"}, order)
}
