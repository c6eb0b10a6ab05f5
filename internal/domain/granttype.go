package domain

// GrantType is one of the OAuth2 grant strategies understood by the server.
// The set is closed: anything outside the parse table is unrecognized.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantImplicit          GrantType = "implicit"
)

// grantTypes is the single wire-string -> tag mapping table.
var grantTypes = map[string]GrantType{
	"authorization_code": GrantAuthorizationCode,
	"client_credentials": GrantClientCredentials,
	"password":           GrantPassword,
	"refresh_token":      GrantRefreshToken,
	"implicit":           GrantImplicit,
}

// ParseGrantType maps a wire string to a grant type tag.
// ok is false for unrecognized strings; those are unsupported_grant_type,
// which is a different failure than a recognized grant the token endpoint
// cannot exchange (implicit).
func ParseGrantType(s string) (GrantType, bool) {
	g, ok := grantTypes[s]
	return g, ok
}

// SupportsTokenEndpoint reports whether the grant can be exchanged at the
// token endpoint. Implicit is issued directly at the authorization endpoint.
func (g GrantType) SupportsTokenEndpoint() bool {
	return g != GrantImplicit
}

// IssuesIdentity reports whether the grant establishes an end-user identity,
// which makes the flow eligible for an ID token when openid is granted.
func (g GrantType) IssuesIdentity() bool {
	return g == GrantAuthorizationCode || g == GrantPassword
}

func (g GrantType) String() string { return string(g) }
