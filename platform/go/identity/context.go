package identity

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// SystemClientID is the reserved client that owns internal lab-employee users.
// The same literal is seeded by the bootstrap DDL.
var SystemClientID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// AdministratorRole is the role name granting lab-wide visibility.
const AdministratorRole = "Administrator"

// RequestContext captures the authenticated identity of a request. It is the
// source of truth for in-process authorization; the database session setting
// is derived from it when a transaction starts.
type RequestContext struct {
	UserID      uuid.UUID
	ClientID    uuid.UUID
	RoleName    string
	Permissions map[string]struct{}
}

// HasPermission reports whether the resolved permission set contains name.
func (rc RequestContext) HasPermission(name string) bool {
	_, ok := rc.Permissions[name]
	return ok
}

// PermissionNames returns the permission set sorted by name.
func (rc RequestContext) PermissionNames() []string {
	names := make([]string, 0, len(rc.Permissions))
	for name := range rc.Permissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsZero reports whether no identity has been resolved.
func (rc RequestContext) IsZero() bool {
	return rc.UserID == uuid.Nil
}

type ctxKey string

const requestKey ctxKey = "LIMS_REQUEST_CONTEXT"

// WithRequest returns a derived context carrying the RequestContext.
func WithRequest(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestKey, rc)
}

// FromContext extracts the RequestContext and a boolean indicating presence.
func FromContext(ctx context.Context) (RequestContext, bool) {
	if ctx == nil {
		return RequestContext{}, false
	}
	v := ctx.Value(requestKey)
	if v == nil {
		return RequestContext{}, false
	}

	rc, ok := v.(RequestContext)
	return rc, ok
}

// NewPermissionSet builds a permission set from names, ignoring empty entries.
func NewPermissionSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}
