// Package origin implements the trust boundary for inbound messages.
//
// An origin is the scheme+host+port identity of the sending context.
// Matching is exact string comparison with no wildcard expansion, and
// the guard must be consulted before any decode or dispatch work.
package origin

import "github.com/framebus/framebus/pkg/types"

// AllowList is the host-side guard: a set of trusted origins supplied at
// construction and immutable for the bus's lifetime.
type AllowList struct {
	origins map[string]struct{}
}

// NewAllowList creates an allow-list from the given origins
func NewAllowList(origins ...string) (AllowList, error) {
	if len(origins) == 0 {
		return AllowList{}, types.NewError(types.ErrCodeInvalid, "allow-list requires at least one origin")
	}

	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "" {
			return AllowList{}, types.NewError(types.ErrCodeInvalid, "allow-list origin cannot be empty")
		}
		set[o] = struct{}{}
	}

	return AllowList{origins: set}, nil
}

// Allows reports whether the declared origin is a member of the allow-list
func (l AllowList) Allows(origin string) bool {
	_, ok := l.origins[origin]
	return ok
}

// Size returns the number of distinct origins in the allow-list
func (l AllowList) Size() int {
	return len(l.origins)
}

// Trusted is the child-side guard: equality against the single configured
// origin of the host.
type Trusted struct {
	origin string
}

// NewTrusted creates a single-origin guard
func NewTrusted(origin string) (Trusted, error) {
	if origin == "" {
		return Trusted{}, types.NewError(types.ErrCodeInvalid, "trusted origin cannot be empty")
	}
	return Trusted{origin: origin}, nil
}

// Allows reports whether the declared origin equals the trusted origin
func (t Trusted) Allows(origin string) bool {
	return origin == t.origin
}

// Origin returns the configured trusted origin
func (t Trusted) Origin() string {
	return t.origin
}
