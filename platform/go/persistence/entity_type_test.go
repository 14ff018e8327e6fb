package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEntityType(t *testing.T) {
	testCases := []struct {
		input   string
		want    EntityType
		wantErr bool
	}{
		{input: "sample", want: EntitySample},
		{input: "  Project ", want: EntityProject},
		{input: "ANALYSIS", want: EntityAnalysis},
		{input: "samples; DROP TABLE users", wantErr: true},
		{input: "", wantErr: true},
		{input: "aliquot", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseEntityType(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnknownEntityType)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEntityTypeIdentifiers(t *testing.T) {
	for _, et := range EntityTypes() {
		table, err := et.TableName()
		require.NoError(t, err)
		require.NotEmpty(t, table)

		seq, err := et.SequenceName()
		require.NoError(t, err)
		require.Contains(t, seq, string(et)+"_name_seq")
	}

	table, err := EntityBatch.TableName()
	require.NoError(t, err)
	require.Equal(t, `"batches"`, table)

	_, err = EntityType("users").TableName()
	require.ErrorIs(t, err, ErrUnknownEntityType)
	require.False(t, EntityType("users").Valid())
}
