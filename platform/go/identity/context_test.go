package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestContextRoundTripThroughContext(t *testing.T) {
	rc := RequestContext{
		UserID:      uuid.New(),
		ClientID:    uuid.New(),
		RoleName:    "Analyst",
		Permissions: NewPermissionSet("sample:read", "result:write"),
	}

	ctx := WithRequest(context.Background(), rc)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, rc.UserID, got.UserID)
	require.True(t, got.HasPermission("sample:read"))
	require.False(t, got.HasPermission("sample:delete"))
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
}

func TestPermissionNamesSorted(t *testing.T) {
	rc := RequestContext{Permissions: NewPermissionSet("b:read", "", "a:write")}
	require.Equal(t, []string{"a:write", "b:read"}, rc.PermissionNames())
	require.True(t, rc.IsZero())
}
