package domain

// AuthMethod is the mechanism a client uses to authenticate at the token
// endpoint (RFC 6749 §2.3, OIDC client metadata token_endpoint_auth_method).
type AuthMethod string

const (
	AuthMethodNone  AuthMethod = "none"
	AuthMethodBasic AuthMethod = "client_secret_basic"
	AuthMethodPost  AuthMethod = "client_secret_post"
	AuthMethodJWT   AuthMethod = "private_key_jwt"
)

// Client is the identity and policy record for a registered OAuth2 client.
// ClientID is globally unique. Secret is empty only for public clients
// (AuthMethod == none).
type Client struct {
	ClientID         string      `json:"client_id" yaml:"client_id"`
	Secret           string      `json:"secret,omitempty" yaml:"secret"`
	GrantTypes       []GrantType `json:"grant_types" yaml:"grant_types"`
	RedirectURIs     []string    `json:"redirect_uris,omitempty" yaml:"redirect_uris"`
	Scopes           []string    `json:"scopes" yaml:"scopes"`
	AutoApprove      bool        `json:"auto_approve,omitempty" yaml:"auto_approve"`
	AuthMethod       AuthMethod  `json:"token_endpoint_auth_method" yaml:"token_endpoint_auth_method"`
	AccessTokenTTL   int         `json:"access_token_ttl,omitempty" yaml:"access_token_ttl"`   // seconds, 0 = server default
	RefreshTokenTTL  int         `json:"refresh_token_ttl,omitempty" yaml:"refresh_token_ttl"` // seconds, 0 = server default
	SigningAlg       string      `json:"signing_alg,omitempty" yaml:"signing_alg"`
	SectorIdentifier string      `json:"sector_identifier,omitempty" yaml:"sector_identifier"`
}

// AllowsGrant reports whether the client is authorized to use the grant.
func (c *Client) AllowsGrant(g GrantType) bool {
	for _, allowed := range c.GrantTypes {
		if allowed == g {
			return true
		}
	}
	return false
}

// Public reports whether the client authenticates without a secret.
func (c *Client) Public() bool {
	return c.AuthMethod == AuthMethodNone
}
