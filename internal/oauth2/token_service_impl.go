package oauth2

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

// TokenDeps contains dependencies for the token service.
type TokenDeps struct {
	Codes    AuthorizationCodeStore
	Refresh  RefreshTokenStore
	Users    UserAuthenticator
	Issuer   TokenIssuer
	IDIssuer IDTokenIssuer // optional: no ID tokens when nil
	CodeTTL  time.Duration
	Now      func() time.Time // clock override for tests
}

// tokenService implements TokenService.
type tokenService struct {
	codes    AuthorizationCodeStore
	refresh  RefreshTokenStore
	users    UserAuthenticator
	issuer   TokenIssuer
	idIssuer IDTokenIssuer
	codeTTL  time.Duration
	now      func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(d TokenDeps) TokenService {
	ttl := d.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &tokenService{
		codes:    d.Codes,
		refresh:  d.Refresh,
		users:    d.Users,
		issuer:   d.Issuer,
		idIssuer: d.IDIssuer,
		codeTTL:  ttl,
		now:      now,
	}
}

// grantResult is what a grant handler hands back to the pipeline.
type grantResult struct {
	subjectID string // empty for client_credentials
	scope     []string
	nonce     string
	authTime  time.Time
	// origin is the grant that originally established the session; a
	// refresh preserves the refreshed grant's type so ID-token
	// eligibility survives the refresh.
	origin domain.GrantType
}

// Exchange runs the token request pipeline. Check order is part of the
// contract: grant_type shape, recognition, client authorization, then the
// grant handler, then issuance.
func (s *tokenService) Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	raw, perr := grantTypeParam(req.Form)
	if perr != nil {
		return nil, perr
	}

	grant, ok := domain.ParseGrantType(raw)
	if !ok {
		return nil, unsupportedGrantType()
	}
	if !grant.SupportsTokenEndpoint() {
		return nil, invalidGrant("Implicit grant is not supported by the token endpoint")
	}
	if !req.Client.AllowsGrant(grant) {
		return nil, unauthorizedClient("Client is not authorized to use grant: " + grant.String())
	}

	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("oauth.token."+grant.String()),
		logger.ClientID(req.Client.ClientID),
	)

	var res *grantResult
	var err error
	switch grant {
	case domain.GrantAuthorizationCode:
		res, err = s.handleAuthorizationCode(ctx, req)
	case domain.GrantClientCredentials:
		res, err = s.handleClientCredentials(ctx, req)
	case domain.GrantPassword:
		res, err = s.handlePassword(ctx, req)
	case domain.GrantRefreshToken:
		res, err = s.handleRefreshToken(ctx, req)
	}
	if err != nil {
		if oe, ok := AsError(err); ok {
			log.Warn("grant rejected", logger.String("error", oe.Code()), logger.String("description", oe.Description))
		} else {
			log.Error("grant handler failed", logger.Err(err))
		}
		return nil, err
	}

	minted, err := s.issuer.Mint(ctx, MintRequest{
		SubjectID: res.subjectID,
		Client:    req.Client,
		GrantType: grant,
		Scope:     res.scope,
		Nonce:     res.nonce,
	})
	if err != nil {
		log.Error("token issuance failed", logger.Err(err))
		return nil, err
	}

	out := &TokenResponse{
		AccessToken:  minted.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    minted.ExpiresIn,
		RefreshToken: minted.RefreshToken,
		Scope:        strings.Join(res.scope, " "),
	}

	if s.idIssuer != nil && HasScope(res.scope, "openid") && res.origin.IssuesIdentity() {
		idToken, err := s.idIssuer.MintID(ctx, IDMintRequest{
			SubjectID:   res.subjectID,
			Client:      req.Client,
			AuthTime:    res.authTime,
			Nonce:       res.nonce,
			Scope:       res.scope,
			GrantType:   grant,
			AccessToken: minted.AccessToken,
		})
		if err != nil {
			log.Error("id_token issuance failed", logger.Err(err))
			return nil, err
		}
		out.IDToken = idToken
	}

	log.Info("token issued",
		logger.SubjectID(res.subjectID),
		logger.Scope(out.Scope),
	)
	return out, nil
}

// handleAuthorizationCode redeems a single-use authorization code. The code
// is consumed on retrieval, so even a redemption that fails afterwards
// (expiry, redirect mismatch) burns it.
func (s *tokenService) handleAuthorizationCode(ctx context.Context, req TokenRequest) (*grantResult, error) {
	code, perr := requiredParam(req.Form, "code")
	if perr != nil {
		return nil, perr
	}
	redirectURI, redirectPresent, perr := optionalParam(req.Form, "redirect_uri")
	if perr != nil {
		return nil, perr
	}

	grant, err := s.codes.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidGrant("Invalid authorization code")
		}
		return nil, err
	}

	if grant.ClientID != req.Client.ClientID {
		return nil, invalidGrant("Code was issue to another client")
	}
	if grant.Expired(s.now(), s.codeTTL) {
		return nil, invalidGrant("Expired code")
	}
	if grant.RedirectURI != "" {
		if !redirectPresent {
			return nil, invalidGrant("Missing redirect_uri")
		}
		if redirectURI != grant.RedirectURI {
			return nil, invalidGrant("Invalid redirect_uri")
		}
	}

	return &grantResult{
		subjectID: grant.SubjectID,
		scope:     grant.Scope,
		nonce:     grant.Nonce,
		authTime:  grant.AuthTime,
		origin:    domain.GrantAuthorizationCode,
	}, nil
}

// handleClientCredentials issues a token with no end-user subject.
func (s *tokenService) handleClientCredentials(ctx context.Context, req TokenRequest) (*grantResult, error) {
	requested, perr := requestedScope(req.Form)
	if perr != nil {
		return nil, perr
	}
	scope, serr := ValidateScope(requested, req.Client.Scopes)
	if serr != nil {
		return nil, serr
	}
	return &grantResult{
		scope:  scope,
		origin: domain.GrantClientCredentials,
	}, nil
}

// handlePassword authenticates the resource owner directly.
func (s *tokenService) handlePassword(ctx context.Context, req TokenRequest) (*grantResult, error) {
	username, perr := requiredParam(req.Form, "username")
	if perr != nil {
		return nil, perr
	}
	password, perr := requiredParam(req.Form, "password")
	if perr != nil {
		return nil, perr
	}
	requested, perr := requestedScope(req.Form)
	if perr != nil {
		return nil, perr
	}

	subjectID, err := s.users.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidGrant("authentication failed")
		}
		return nil, err
	}

	scope, serr := ValidateScope(requested, req.Client.Scopes)
	if serr != nil {
		return nil, serr
	}
	return &grantResult{
		subjectID: subjectID,
		scope:     scope,
		authTime:  s.now(),
		origin:    domain.GrantPassword,
	}, nil
}

// handleRefreshToken exchanges a previously issued refresh token.
func (s *tokenService) handleRefreshToken(ctx context.Context, req TokenRequest) (*grantResult, error) {
	token, perr := requiredParam(req.Form, "refresh_token")
	if perr != nil {
		return nil, perr
	}

	grant, err := s.refresh.Decode(ctx, req.Client.ClientID, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidGrant("Invalid refresh token")
		}
		return nil, err
	}
	if grant.Expired(s.now()) {
		return nil, invalidGrant("Refresh token has expired")
	}
	if grant.ClientID != req.Client.ClientID {
		return nil, invalidGrant("Refresh token was issued to a different client")
	}

	return &grantResult{
		subjectID: grant.SubjectID,
		scope:     grant.Scope,
		origin:    grant.GrantType,
	}, nil
}

// requestedScope parses the optional space-separated scope parameter.
func requestedScope(form url.Values) ([]string, *Error) {
	raw, present, perr := optionalParam(form, "scope")
	if perr != nil {
		return nil, perr
	}
	if !present || raw == "" {
		return nil, nil
	}
	return strings.Fields(raw), nil
}
