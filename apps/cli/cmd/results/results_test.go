package resultscmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"validate"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("numeric within range", func(t *testing.T) {
		out, err := run(t, "--value", "5.5", "--low", "1", "--high", "10")
		require.NoError(t, err)
		require.Equal(t, "valid\n", out)
	})

	t.Run("numeric out of range", func(t *testing.T) {
		out, err := run(t, "--value", "12", "--low", "1", "--high", "10")
		require.ErrorIs(t, err, ErrInvalidResult)
		require.Contains(t, out, "above maximum 10")
	})

	t.Run("advisory significant figures", func(t *testing.T) {
		out, err := run(t, "--value", "1.2345", "--sig-figs", "3")
		require.ErrorIs(t, err, ErrInvalidResult)
		require.Contains(t, out, "(advisory)")
	})

	t.Run("text passes unless strict", func(t *testing.T) {
		out, err := run(t, "--value", "abcdef", "--type", "text", "--max-length", "3")
		require.NoError(t, err)
		require.Equal(t, "valid\n", out)

		out, err = run(t, "--value", "abcdef", "--type", "text", "--max-length", "3", "--strict")
		require.ErrorIs(t, err, ErrInvalidResult)
		require.True(t, strings.HasPrefix(out, "invalid: "))
	})

	t.Run("bad bound", func(t *testing.T) {
		_, err := run(t, "--value", "1", "--low", "abc")
		require.ErrorContains(t, err, "invalid --low")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := run(t, "--value", "1", "--type", "blob")
		require.Error(t, err)
	})
}
