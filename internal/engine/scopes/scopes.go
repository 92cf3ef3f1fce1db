package scopes

import (
	"errors"
	"fmt"
	"strings"
)

// Resource types with a permission ladder.
const (
	ResourceWorkspaces = "workspaces"
	ResourceUsers      = "users"
	ResourceFCS        = "fcs"
)

// Permission levels. Ladders differ per resource; see hierarchy below.
const (
	PermRead    = "read"
	PermWrite   = "write"
	PermDelete  = "delete"
	PermAdmin   = "admin"
	PermAnalyze = "analyze"
)

var ErrInvalidScope = errors.New("invalid scope")

// hierarchy maps resource -> permission -> strictly-lower permissions on the
// same resource. Holding a permission implies itself plus everything listed.
// There is no cross-resource implication and no global admin.
var hierarchy = map[string]map[string][]string{
	ResourceWorkspaces: {
		PermAdmin:  {PermDelete, PermWrite, PermRead},
		PermDelete: {PermWrite, PermRead},
		PermWrite:  {PermRead},
		PermRead:   {},
	},
	ResourceUsers: {
		PermWrite: {PermRead},
		PermRead:  {},
	},
	ResourceFCS: {
		PermAnalyze: {PermWrite, PermRead},
		PermWrite:   {PermRead},
		PermRead:    {},
	},
}

// Scope is a parsed resource:permission pair.
type Scope struct {
	Resource   string
	Permission string
}

func (s Scope) String() string {
	return s.Resource + ":" + s.Permission
}

// Known reports whether both the resource and the permission are in the
// closed set the hierarchy understands.
func (s Scope) Known() bool {
	ladder, ok := hierarchy[s.Resource]
	if !ok {
		return false
	}
	_, ok = ladder[s.Permission]
	return ok
}

// Parse splits a scope string into its resource and permission parts. It
// checks shape only, not membership in the hierarchy: stored token scopes with
// unknown values parse fine and simply never satisfy anything.
func Parse(scope string) (Scope, error) {
	parts := strings.Split(scope, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return Scope{Resource: parts[0], Permission: parts[1]}, nil
}

// MustParse parses a scope literal and panics unless it is well-formed and
// known to the hierarchy. Required-scope arguments are caller code, not user
// input, so a bad literal is a bug that should fail at wiring time.
func MustParse(scope string) Scope {
	s, err := Parse(scope)
	if err != nil {
		panic(err)
	}
	if !s.Known() {
		panic(fmt.Sprintf("scopes: unknown scope %q", scope))
	}
	return s
}

// ImpliedPermissions returns the permission itself plus every strictly-lower
// permission on the same resource. Unknown resource or permission yields just
// the permission itself (an inert grant, matching nothing in the closed set).
func ImpliedPermissions(resource, permission string) []string {
	ladder, ok := hierarchy[resource]
	if !ok {
		return []string{permission}
	}
	lower, ok := ladder[permission]
	if !ok {
		return []string{permission}
	}
	return append([]string{permission}, lower...)
}

// IsSatisfied reports whether any granted scope covers the required one.
// A grant matches only if it names the same resource and the required
// permission is in its implied set.
func IsSatisfied(granted []Scope, required Scope) bool {
	for _, g := range granted {
		if g.Resource != required.Resource {
			continue
		}
		for _, p := range ImpliedPermissions(g.Resource, g.Permission) {
			if p == required.Permission {
				return true
			}
		}
	}
	return false
}

// Validate checks a single scope string against the closed set.
func Validate(scope string) bool {
	s, err := Parse(scope)
	if err != nil {
		return false
	}
	return s.Known()
}

// ValidateAll returns the entries that are malformed or unknown.
func ValidateAll(scopes []string) []string {
	var invalid []string
	for _, scope := range scopes {
		if !Validate(scope) {
			invalid = append(invalid, scope)
		}
	}
	return invalid
}

// ParseAll parses stored scope strings leniently: malformed entries are
// dropped rather than failing the whole set, so tokens written under older
// permission lists keep working with whatever still parses.
func ParseAll(scopes []string) []Scope {
	parsed := make([]Scope, 0, len(scopes))
	for _, scope := range scopes {
		s, err := Parse(scope)
		if err != nil {
			continue
		}
		parsed = append(parsed, s)
	}
	return parsed
}
