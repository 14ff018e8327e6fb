package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTemplate(t *testing.T) {
	t.Parallel()

	valid := []string{"S-{SEQ}", "{CLIENT}-{YYYY}{MM}-{SEQ}", "STATIC", "{LOT}"}
	for _, tmpl := range valid {
		require.NoError(t, ValidateTemplate(tmpl, 3), tmpl)
	}

	invalid := []string{"", "   ", "S-{SEQ", "S-SEQ}", "{{SEQ}}", "S-{}", "{ }"}
	for _, tmpl := range invalid {
		require.ErrorIs(t, ValidateTemplate(tmpl, 3), ErrInvalidTemplate, tmpl)
	}

	require.NoError(t, ValidateTemplate("S-{SEQ}", MinSeqPadding))
	require.NoError(t, ValidateTemplate("S-{SEQ}", MaxSeqPadding))
	require.ErrorIs(t, ValidateTemplate("S-{SEQ}", 0), ErrInvalidTemplate)
	require.ErrorIs(t, ValidateTemplate("S-{SEQ}", MaxSeqPadding+1), ErrInvalidTemplate)
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"CLIENT", "YYYY", "SEQ"}, Placeholders("{CLIENT}-{YYYY}-{SEQ}-{YYYY}"))
	require.Empty(t, Placeholders("NO-TOKENS"))
	require.Equal(t, []string{"A"}, Placeholders("{A}-{B"))
}

func TestNormalizeClient(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":              "UNKNOWN",
		"  ":            "UNKNOWN",
		"- -":           "UNKNOWN",
		"acme":          "ACME",
		"Acme-Bio Labs": "ACMEBIOLAB",
		"north wind":    "NORTHWIND",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizeClient(in), in)
	}

	// Truncation counts characters, not bytes.
	require.Equal(t, "MÜLLERLÜDE", normalizeClient("müller-lüdenscheid"))
}

func TestPadSequence(t *testing.T) {
	t.Parallel()

	require.Equal(t, "7", padSequence(7, 1))
	require.Equal(t, "7", padSequence(7, 0))
	require.Equal(t, "00042", padSequence(42, 5))
	require.Equal(t, "123456", padSequence(123456, 3))
}
