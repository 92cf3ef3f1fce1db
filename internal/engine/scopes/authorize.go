package scopes

// Decision is the outcome of an authorization check. Deny is a normal result,
// not an error: it maps to a forbidden response, distinct from the
// authentication failures raised by token validation.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize checks granted scope strings against a required scope. Pure
// computation over the hierarchy; no I/O.
func Authorize(granted []string, required Scope) Decision {
	if IsSatisfied(ParseAll(granted), required) {
		return Allow
	}
	return Deny
}
