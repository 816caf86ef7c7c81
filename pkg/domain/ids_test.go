package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "barangaylink/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	id := NewUserID()
	parsed, err := ParseUserID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for name, input := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-uuid",
		"nil uuid": "00000000-0000-0000-0000-000000000000",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUserID(input)
			require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIsNil(t *testing.T) {
	require.True(t, UserID{}.IsNil())
	require.False(t, NewUserID().IsNil())
	require.True(t, ApplicationID{}.IsNil())
	require.False(t, NewApplicationID().IsNil())
}
