package oauth2

import "net/http"

// ErrorKind enumerates the OAuth2 token endpoint error taxonomy (RFC 6749
// §5.2). The set is closed; the HTTP layer maps each kind to a wire code
// and status without inspecting messages.
type ErrorKind int

const (
	KindInvalidRequest ErrorKind = iota
	KindInvalidGrant
	KindInvalidScope
	KindUnauthorizedClient
	KindUnsupportedGrantType
	// KindInvalidClient covers authentication failures via body parameters
	// or requests with no credentials at all.
	KindInvalidClient
	// KindInvalidClientBasic covers authentication failures via the Basic
	// header; it carries 401 + WWW-Authenticate challenge semantics.
	KindInvalidClientBasic
)

// Error is a protocol-level token endpoint error. It is terminal for the
// request and never wraps infrastructure failures; those propagate as plain
// errors and surface as server_error.
type Error struct {
	Kind        ErrorKind
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code()
	}
	return e.Code() + ": " + e.Description
}

// Code returns the wire error code for the JSON error response.
func (e *Error) Code() string {
	switch e.Kind {
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidGrant:
		return "invalid_grant"
	case KindInvalidScope:
		return "invalid_scope"
	case KindUnauthorizedClient:
		return "unauthorized_client"
	case KindUnsupportedGrantType:
		return "unsupported_grant_type"
	default:
		return "invalid_client"
	}
}

// HTTPStatus returns the status the wire layer must answer with.
// Basic-channel authentication failures are 401; everything else 400.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindInvalidClientBasic {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func invalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Description: msg}
}

func invalidGrant(msg string) *Error {
	return &Error{Kind: KindInvalidGrant, Description: msg}
}

func invalidScope(msg string) *Error {
	return &Error{Kind: KindInvalidScope, Description: msg}
}

func unauthorizedClient(msg string) *Error {
	return &Error{Kind: KindUnauthorizedClient, Description: msg}
}

func unsupportedGrantType() *Error {
	return &Error{Kind: KindUnsupportedGrantType}
}

func invalidClient() *Error {
	return &Error{Kind: KindInvalidClient, Description: "Client authentication failed"}
}

func invalidClientBasic() *Error {
	return &Error{Kind: KindInvalidClientBasic, Description: "Client authentication failed"}
}

// AsError unwraps a protocol error if err is one.
func AsError(err error) (*Error, bool) {
	oe, ok := err.(*Error)
	return oe, ok
}
