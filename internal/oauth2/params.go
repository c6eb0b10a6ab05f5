package oauth2

import "net/url"

// Each logical form field may appear at most once. Duplicates are a request
// error, never collapsed to the first value.

// requiredParam extracts a field that must be present exactly once and
// non-empty.
func requiredParam(form url.Values, name string) (string, *Error) {
	vals := form[name]
	if len(vals) == 0 || vals[0] == "" {
		return "", invalidRequest("Missing " + name)
	}
	if len(vals) > 1 {
		return "", invalidRequest("Duplicate " + name)
	}
	return vals[0], nil
}

// optionalParam extracts a field that may be absent. present distinguishes
// an absent field from one supplied empty.
func optionalParam(form url.Values, name string) (value string, present bool, err *Error) {
	vals := form[name]
	if len(vals) == 0 {
		return "", false, nil
	}
	if len(vals) > 1 {
		return "", true, invalidRequest("Duplicate " + name)
	}
	return vals[0], true, nil
}

// grantTypeParam applies the grant_type precedence: missing, then empty,
// then duplicate. Duplicate implies present and non-empty, so it is only
// reported once the first two pass.
func grantTypeParam(form url.Values) (string, *Error) {
	vals := form["grant_type"]
	if len(vals) == 0 {
		return "", invalidRequest("Missing grant_type")
	}
	if vals[0] == "" {
		return "", invalidRequest("Empty grant_type")
	}
	if len(vals) > 1 {
		return "", invalidRequest("Duplicate grant_type")
	}
	return vals[0], nil
}
