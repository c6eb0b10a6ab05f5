// Package oauth2 contiene el core del token endpoint: autenticación de
// clientes, despacho por grant type y validación de scopes (RFC 6749/OIDC).
package oauth2

import (
	"context"
	"net/url"
	"time"

	"github.com/dropDatabas3/tokensmith/internal/domain"
)

// TokenService processes an already-authenticated token request.
type TokenService interface {
	// Exchange validates grant_type, dispatches to the matching grant
	// handler and mints the token response. Protocol failures come back
	// as *Error; anything else is an infrastructure failure.
	Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error)
}

// TokenRequest carries the decoded form body and the authenticated client.
// Form keeps the raw multi-value shape so duplicated parameters can be
// rejected instead of silently collapsed.
type TokenRequest struct {
	Form   url.Values
	Client *domain.Client
}

// TokenResponse is the standard OAuth2 token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ClientStore resolves registered clients by id.
// Implementations return store.ErrNotFound for unknown ids.
type ClientStore interface {
	Lookup(ctx context.Context, clientID string) (*domain.Client, error)
}

// AuthorizationCodeStore redeems authorization codes.
type AuthorizationCodeStore interface {
	// Consume atomically loads and removes the grant for the code, so two
	// requests racing on the same code can never both observe it. Returns
	// store.ErrNotFound when the code does not exist or was already
	// consumed.
	Consume(ctx context.Context, code string) (*domain.AuthorizationGrant, error)
}

// UserAuthenticator verifies resource owner credentials for the password
// grant. Returns the subject id, or store.ErrNotFound when the credentials
// do not check out.
type UserAuthenticator interface {
	Verify(ctx context.Context, username, password string) (string, error)
}

// RefreshTokenStore decodes refresh token values back into the grant they
// represent. Decoding is read-only; tokens are not rotated.
type RefreshTokenStore interface {
	Decode(ctx context.Context, clientID, token string) (*domain.AccessGrant, error)
}

// MintRequest is the input to access token issuance.
type MintRequest struct {
	SubjectID string // empty for client_credentials
	Client    *domain.Client
	GrantType domain.GrantType
	Scope     []string
	Nonce     string
}

// Minted is what the token issuer produced.
type Minted struct {
	AccessToken  string
	RefreshToken string // empty when the grant gets no refresh token
	ExpiresIn    int64  // seconds
}

// TokenIssuer mints access (and optionally refresh) tokens.
type TokenIssuer interface {
	Mint(ctx context.Context, req MintRequest) (*Minted, error)
}

// IDMintRequest is the input to OIDC ID token issuance.
type IDMintRequest struct {
	SubjectID   string
	Client      *domain.Client
	AuthTime    time.Time // zero when unknown
	Nonce       string
	Scope       []string
	GrantType   domain.GrantType
	AccessToken string // for at_hash
}

// IDTokenIssuer mints OIDC ID tokens.
type IDTokenIssuer interface {
	MintID(ctx context.Context, req IDMintRequest) (string, error)
}
