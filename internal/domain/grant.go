package domain

import "time"

// AuthorizationGrant is an issued authorization code, created by the
// authorization endpoint and redeemed exactly once at the token endpoint.
// Retrieval for redemption removes it from its store; a second attempt
// observes not-found regardless of how the first attempt ended.
type AuthorizationGrant struct {
	Code        string    `json:"code"`
	SubjectID   string    `json:"subject_id"`
	ClientID    string    `json:"client_id"`
	IssuedAt    time.Time `json:"issued_at"`
	Scope       []string  `json:"scope"`
	Nonce       string    `json:"nonce,omitempty"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	AuthTime    time.Time `json:"auth_time"`
}

// Expired reports whether the code is past its TTL at the given instant.
func (g *AuthorizationGrant) Expired(now time.Time, ttl time.Duration) bool {
	return g.IssuedAt.Add(ttl).Before(now)
}

// AccessGrant is the decoded payload of a refresh token: who it was issued
// to, on whose behalf, and under which original grant. It is bound to the
// grantee client; a refresh request from any other client is rejected even
// when the token itself decodes.
type AccessGrant struct {
	SubjectID string    `json:"subject_id,omitempty"`
	ClientID  string    `json:"client_id"`
	GrantType GrantType `json:"grant_type"`
	Scope     []string  `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the refresh grant is past its expiry.
func (g *AccessGrant) Expired(now time.Time) bool {
	return g.ExpiresAt.Before(now)
}
