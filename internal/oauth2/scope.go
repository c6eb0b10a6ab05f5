package oauth2

import "strings"

// ValidateScope resolves the effective scope of a token request.
//
// With no requested scope the client gets everything it is allowed. A
// requested scope must be a subset of the allowed set; anything beyond it
// fails with invalid_scope naming both sets verbatim (requested in caller
// order). Neither input slice is mutated.
func ValidateScope(requested, allowed []string) ([]string, *Error) {
	if len(requested) == 0 {
		out := make([]string, len(allowed))
		copy(out, allowed)
		return out, nil
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := allowedSet[s]; !ok {
			return nil, invalidScope("Requested scope (" + strings.Join(requested, " ") +
				") exceeds allowed scope (" + strings.Join(allowed, " ") + ")")
		}
	}

	out := make([]string, len(requested))
	copy(out, requested)
	return out, nil
}

// HasScope reports whether the scope set contains the named scope.
func HasScope(scope []string, name string) bool {
	for _, s := range scope {
		if s == name {
			return true
		}
	}
	return false
}
