package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: KindUnknown},
		{name: "not found wrapped", err: fmt.Errorf("%w: unit", ErrNotFound), want: KindNotFound},
		{name: "double wrapped", err: fmt.Errorf("load: %w", fmt.Errorf("%w: zero", ErrArithmetic)), want: KindArithmetic},
		{name: "backend", err: fmt.Errorf("%w: conn reset", ErrBackend), want: KindBackend},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}
