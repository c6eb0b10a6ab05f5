// Package jwt implementa la emisión de access/ID tokens firmados.
// Es una implementación de oauth2.TokenIssuer / oauth2.IDTokenIssuer;
// el core no depende de ella.
package jwt

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/oauth2"
	tokens "github.com/dropDatabas3/tokensmith/internal/security/token"
)

// RefreshTokenSink persists newly minted refresh tokens (hashed).
type RefreshTokenSink interface {
	Save(ctx context.Context, tokenHash string, grant *domain.AccessGrant) error
}

// Config configures the issuer.
type Config struct {
	Issuer     string // iss claim
	Alg        string // "HS256" | "RS256"
	HMACSecret []byte
	RSAKey     *rsa.PrivateKey
	KeyID      string
	AccessTTL  time.Duration // default 1h
	RefreshTTL time.Duration // default 30d
}

// Issuer mints JWT access tokens, opaque refresh tokens and OIDC ID tokens.
type Issuer struct {
	cfg  Config
	sink RefreshTokenSink
	now  func() time.Time
}

// New creates an Issuer. sink may be nil when refresh tokens are not wanted.
func New(cfg Config, sink RefreshTokenSink) (*Issuer, error) {
	switch cfg.Alg {
	case "", "HS256":
		cfg.Alg = "HS256"
		if len(cfg.HMACSecret) == 0 {
			return nil, fmt.Errorf("jwt: HS256 requires a secret")
		}
	case "RS256":
		if cfg.RSAKey == nil {
			return nil, fmt.Errorf("jwt: RS256 requires a private key")
		}
	default:
		return nil, fmt.Errorf("jwt: unsupported alg %q", cfg.Alg)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Issuer{cfg: cfg, sink: sink, now: time.Now}, nil
}

// ParseRSAKey parses a PEM-encoded RSA private key.
func ParseRSAKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	return jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
}

// Mint implements oauth2.TokenIssuer. The sub claim falls back to the client
// id for machine tokens (client_credentials has no end-user subject).
// Refresh tokens are issued only for grants that establish a session
// (authorization_code, password); a refresh exchange does not rotate.
func (i *Issuer) Mint(ctx context.Context, req oauth2.MintRequest) (*oauth2.Minted, error) {
	now := i.now()
	ttl := i.cfg.AccessTTL
	if req.Client.AccessTokenTTL > 0 {
		ttl = time.Duration(req.Client.AccessTokenTTL) * time.Second
	}

	sub := req.SubjectID
	if sub == "" {
		sub = req.Client.ClientID
	}
	scope := strings.Join(req.Scope, " ")

	claims := jwt.MapClaims{
		"iss":       i.cfg.Issuer,
		"sub":       sub,
		"client_id": req.Client.ClientID,
		"scope":     scope,
		"scp":       req.Scope,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
		"jti":       uuid.NewString(),
	}
	access, err := i.sign(req.Client, claims)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	minted := &oauth2.Minted{
		AccessToken: access,
		ExpiresIn:   int64(ttl.Seconds()),
	}

	if i.sink != nil && req.GrantType.IssuesIdentity() {
		refresh, err := i.createRefreshToken(ctx, req, now)
		if err != nil {
			return nil, err
		}
		minted.RefreshToken = refresh
	}
	return minted, nil
}

// MintID implements oauth2.IDTokenIssuer.
func (i *Issuer) MintID(ctx context.Context, req oauth2.IDMintRequest) (string, error) {
	now := i.now()
	ttl := i.cfg.AccessTTL
	if req.Client.AccessTokenTTL > 0 {
		ttl = time.Duration(req.Client.AccessTokenTTL) * time.Second
	}

	claims := jwt.MapClaims{
		"iss":     i.cfg.Issuer,
		"sub":     req.SubjectID,
		"aud":     req.Client.ClientID,
		"azp":     req.Client.ClientID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"at_hash": atHash(req.AccessToken),
	}
	if req.Nonce != "" {
		claims["nonce"] = req.Nonce
	}
	if !req.AuthTime.IsZero() {
		claims["auth_time"] = req.AuthTime.Unix()
	}
	id, err := i.sign(req.Client, claims)
	if err != nil {
		return "", fmt.Errorf("sign id token: %w", err)
	}
	return id, nil
}

func (i *Issuer) createRefreshToken(ctx context.Context, req oauth2.MintRequest, now time.Time) (string, error) {
	raw, err := tokens.GenerateOpaque(32)
	if err != nil {
		return "", err
	}
	ttl := i.cfg.RefreshTTL
	if req.Client.RefreshTokenTTL > 0 {
		ttl = time.Duration(req.Client.RefreshTokenTTL) * time.Second
	}
	grant := &domain.AccessGrant{
		SubjectID: req.SubjectID,
		ClientID:  req.Client.ClientID,
		GrantType: req.GrantType,
		Scope:     req.Scope,
		ExpiresAt: now.Add(ttl),
	}
	if err := i.sink.Save(ctx, tokens.SHA256Base64URL(raw), grant); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// sign picks the client's preferred algorithm when the issuer can honor it,
// otherwise the issuer default.
func (i *Issuer) sign(client *domain.Client, claims jwt.MapClaims) (string, error) {
	alg := i.cfg.Alg
	if client.SigningAlg == "HS256" && len(i.cfg.HMACSecret) > 0 {
		alg = "HS256"
	}
	if client.SigningAlg == "RS256" && i.cfg.RSAKey != nil {
		alg = "RS256"
	}

	switch alg {
	case "RS256":
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		if i.cfg.KeyID != "" {
			tok.Header["kid"] = i.cfg.KeyID
		}
		return tok.SignedString(i.cfg.RSAKey)
	default:
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		return tok.SignedString(i.cfg.HMACSecret)
	}
}

// atHash computes at_hash = base64url(left-most 128 bits of SHA-256(access_token))
func atHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}
