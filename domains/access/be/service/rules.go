package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/benchline/lims-core/platform/go/apperrors"
	"github.com/benchline/lims-core/platform/go/identity"
)

// ForbiddenError names the requirement an identity failed to meet.
type ForbiddenError struct {
	Missing []string
	Reason  string
}

func (e *ForbiddenError) Error() string {
	if len(e.Missing) == 0 {
		return "forbidden: " + e.Reason
	}
	return fmt.Sprintf("forbidden: %s: %s", e.Reason, strings.Join(e.Missing, ", "))
}

// Is makes every ForbiddenError match apperrors.ErrAuthorization.
func (e *ForbiddenError) Is(target error) bool {
	return target == apperrors.ErrAuthorization
}

var errNoIdentity = fmt.Errorf("%w: no resolved identity", apperrors.ErrUnauthenticated)

// Rule is a declarative authorization gate evaluated against a resolved identity.
type Rule interface {
	Check(rc identity.RequestContext) error
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(rc identity.RequestContext) error

func (f RuleFunc) Check(rc identity.RequestContext) error {
	if rc.IsZero() {
		return errNoIdentity
	}
	return f(rc)
}

// RequirePermission passes when the identity holds name.
func RequirePermission(name string) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		if rc.HasPermission(name) {
			return nil
		}
		return &ForbiddenError{Missing: []string{name}, Reason: "missing permission"}
	})
}

// RequireAnyPermission passes when the identity holds at least one of names.
func RequireAnyPermission(names ...string) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		for _, name := range names {
			if rc.HasPermission(name) {
				return nil
			}
		}
		return &ForbiddenError{Missing: slices.Clone(names), Reason: "requires any of permissions"}
	})
}

// RequireAllPermissions passes when the identity holds every one of names.
func RequireAllPermissions(names ...string) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		var missing []string
		for _, name := range names {
			if !rc.HasPermission(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		return &ForbiddenError{Missing: missing, Reason: "missing permissions"}
	})
}

// RequireRole passes when the identity's role is name.
func RequireRole(name string) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		if rc.RoleName != "" && rc.RoleName == name {
			return nil
		}
		return &ForbiddenError{Missing: []string{name}, Reason: "requires role"}
	})
}

// RequireAnyRole passes when the identity's role is one of names.
func RequireAnyRole(names ...string) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		if rc.RoleName != "" && slices.Contains(names, rc.RoleName) {
			return nil
		}
		return &ForbiddenError{Missing: slices.Clone(names), Reason: "requires any of roles"}
	})
}

// AnyOf passes when at least one rule passes. The failure lists every unmet requirement.
func AnyOf(rules ...Rule) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		var missing []string
		for _, rule := range rules {
			err := rule.Check(rc)
			if err == nil {
				return nil
			}
			var fe *ForbiddenError
			if !errors.As(err, &fe) {
				return err
			}
			for _, m := range fe.Missing {
				if !slices.Contains(missing, m) {
					missing = append(missing, m)
				}
			}
		}
		return &ForbiddenError{Missing: missing, Reason: "no alternative satisfied"}
	})
}

// AllOf passes when every rule passes and reports the first failure otherwise.
func AllOf(rules ...Rule) Rule {
	return RuleFunc(func(rc identity.RequestContext) error {
		for _, rule := range rules {
			if err := rule.Check(rc); err != nil {
				return err
			}
		}
		return nil
	})
}

// IsSystemClientOrAdmin reports whether the identity has lab-wide visibility. The SQL
// is_admin() function applies the same predicate for row-level security.
func IsSystemClientOrAdmin(rc identity.RequestContext) bool {
	if rc.IsZero() {
		return false
	}
	return rc.RoleName == identity.AdministratorRole || rc.ClientID == identity.SystemClientID
}

// ValidateClientAccess rejects access to a resource owned by another client. Lab-wide
// identities may access any resource, including unowned ones.
func ValidateClientAccess(rc identity.RequestContext, resourceClientID *uuid.UUID) error {
	if rc.IsZero() {
		return errNoIdentity
	}
	if IsSystemClientOrAdmin(rc) {
		return nil
	}
	if resourceClientID == nil {
		return &ForbiddenError{Reason: "resource has no owning client"}
	}
	if *resourceClientID != rc.ClientID {
		return &ForbiddenError{Reason: "resource belongs to another client"}
	}
	return nil
}

// ClientScope returns the client a query must be restricted to, or false when the identity
// sees every client.
func ClientScope(rc identity.RequestContext) (uuid.UUID, bool) {
	if IsSystemClientOrAdmin(rc) {
		return uuid.Nil, false
	}
	return rc.ClientID, true
}
