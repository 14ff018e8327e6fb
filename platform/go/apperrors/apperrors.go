package apperrors

import "errors"

// Kind sentinels. Domain errors wrap exactly one of these so callers can map
// failures to transport status codes with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrPrecondition        = errors.New("precondition failed")
	ErrArithmetic          = errors.New("arithmetic error")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrAuthorization       = errors.New("forbidden")
	ErrGenerationExhausted = errors.New("generation exhausted")
	ErrBackend             = errors.New("backend error")
)

// Kind names an error category.
type Kind string

const (
	KindUnknown             Kind = "unknown"
	KindNotFound            Kind = "not_found"
	KindPrecondition        Kind = "precondition"
	KindArithmetic          Kind = "arithmetic"
	KindUnauthenticated     Kind = "unauthenticated"
	KindAuthorization       Kind = "authorization"
	KindGenerationExhausted Kind = "generation_exhausted"
	KindBackend             Kind = "backend"
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrPrecondition, KindPrecondition},
	{ErrArithmetic, KindArithmetic},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrAuthorization, KindAuthorization},
	{ErrGenerationExhausted, KindGenerationExhausted},
	{ErrBackend, KindBackend},
}

// KindOf reports the category of err, or KindUnknown when err does not wrap a
// kind sentinel. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindUnknown
}
