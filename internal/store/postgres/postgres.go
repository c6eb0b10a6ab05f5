// Package postgres implementa los stores sobre PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	tokens "github.com/dropDatabas3/tokensmith/internal/security/token"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

// Stores groups the postgres-backed store implementations over one pool.
type Stores struct {
	pool *pgxpool.Pool
}

// New connects to postgres.
func New(ctx context.Context, dsn string) (*Stores, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Stores{pool: pool}, nil
}

// Close releases the pool.
func (s *Stores) Close() { s.pool.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS oauth_clients (
    client_id          TEXT PRIMARY KEY,
    secret             TEXT NOT NULL DEFAULT '',
    grant_types        TEXT[] NOT NULL DEFAULT '{}',
    redirect_uris      TEXT[] NOT NULL DEFAULT '{}',
    scopes             TEXT[] NOT NULL DEFAULT '{}',
    auto_approve       BOOLEAN NOT NULL DEFAULT FALSE,
    auth_method        TEXT NOT NULL DEFAULT 'client_secret_basic',
    access_token_ttl   INT NOT NULL DEFAULT 0,
    refresh_token_ttl  INT NOT NULL DEFAULT 0,
    signing_alg        TEXT NOT NULL DEFAULT '',
    sector_identifier  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS authorization_codes (
    code         TEXT PRIMARY KEY,
    subject_id   TEXT NOT NULL,
    client_id    TEXT NOT NULL,
    issued_at    TIMESTAMPTZ NOT NULL,
    scope        TEXT[] NOT NULL DEFAULT '{}',
    nonce        TEXT NOT NULL DEFAULT '',
    redirect_uri TEXT NOT NULL DEFAULT '',
    auth_time    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    token_hash  TEXT PRIMARY KEY,
    subject_id  TEXT NOT NULL DEFAULT '',
    client_id   TEXT NOT NULL,
    grant_type  TEXT NOT NULL,
    scope       TEXT[] NOT NULL DEFAULT '{}',
    expires_at  TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the schema when missing.
func (s *Stores) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// --- oauth2.ClientStore ---

// PutClient upserts a client record (seeding / admin tooling).
func (s *Stores) PutClient(ctx context.Context, c *domain.Client) error {
	grants := make([]string, len(c.GrantTypes))
	for i, g := range c.GrantTypes {
		grants[i] = string(g)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_clients
		    (client_id, secret, grant_types, redirect_uris, scopes, auto_approve,
		     auth_method, access_token_ttl, refresh_token_ttl, signing_alg, sector_identifier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (client_id) DO UPDATE SET
		    secret = EXCLUDED.secret,
		    grant_types = EXCLUDED.grant_types,
		    redirect_uris = EXCLUDED.redirect_uris,
		    scopes = EXCLUDED.scopes,
		    auto_approve = EXCLUDED.auto_approve,
		    auth_method = EXCLUDED.auth_method,
		    access_token_ttl = EXCLUDED.access_token_ttl,
		    refresh_token_ttl = EXCLUDED.refresh_token_ttl,
		    signing_alg = EXCLUDED.signing_alg,
		    sector_identifier = EXCLUDED.sector_identifier`,
		c.ClientID, c.Secret, grants, c.RedirectURIs, c.Scopes, c.AutoApprove,
		string(c.AuthMethod), c.AccessTokenTTL, c.RefreshTokenTTL, c.SigningAlg, c.SectorIdentifier)
	return err
}

func (s *Stores) Lookup(ctx context.Context, clientID string) (*domain.Client, error) {
	var c domain.Client
	var grants []string
	var authMethod string
	err := s.pool.QueryRow(ctx, `
		SELECT client_id, secret, grant_types, redirect_uris, scopes, auto_approve,
		       auth_method, access_token_ttl, refresh_token_ttl, signing_alg, sector_identifier
		FROM oauth_clients WHERE client_id = $1`, clientID).
		Scan(&c.ClientID, &c.Secret, &grants, &c.RedirectURIs, &c.Scopes, &c.AutoApprove,
			&authMethod, &c.AccessTokenTTL, &c.RefreshTokenTTL, &c.SigningAlg, &c.SectorIdentifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.AuthMethod = domain.AuthMethod(authMethod)
	c.GrantTypes = make([]domain.GrantType, len(grants))
	for i, g := range grants {
		c.GrantTypes[i] = domain.GrantType(g)
	}
	return &c, nil
}

// --- oauth2.AuthorizationCodeStore ---

// PutCode stores an issued authorization code.
func (s *Stores) PutCode(ctx context.Context, g *domain.AuthorizationGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO authorization_codes
		    (code, subject_id, client_id, issued_at, scope, nonce, redirect_uri, auth_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		g.Code, g.SubjectID, g.ClientID, g.IssuedAt, g.Scope, g.Nonce, g.RedirectURI, g.AuthTime)
	return err
}

// Consume redeems a code with DELETE ... RETURNING: load and delete are one
// statement, so two requests racing on the same code cannot both get a row.
func (s *Stores) Consume(ctx context.Context, code string) (*domain.AuthorizationGrant, error) {
	var g domain.AuthorizationGrant
	err := s.pool.QueryRow(ctx, `
		DELETE FROM authorization_codes WHERE code = $1
		RETURNING code, subject_id, client_id, issued_at, scope, nonce, redirect_uri, auth_time`, code).
		Scan(&g.Code, &g.SubjectID, &g.ClientID, &g.IssuedAt, &g.Scope, &g.Nonce, &g.RedirectURI, &g.AuthTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// --- oauth2.RefreshTokenStore + jwt.RefreshTokenSink ---

func (s *Stores) Save(ctx context.Context, tokenHash string, grant *domain.AccessGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, subject_id, client_id, grant_type, scope, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		tokenHash, grant.SubjectID, grant.ClientID, string(grant.GrantType), grant.Scope, grant.ExpiresAt)
	return err
}

func (s *Stores) Decode(ctx context.Context, _ string, token string) (*domain.AccessGrant, error) {
	var g domain.AccessGrant
	var grantType string
	err := s.pool.QueryRow(ctx, `
		SELECT subject_id, client_id, grant_type, scope, expires_at
		FROM refresh_tokens WHERE token_hash = $1`, tokens.SHA256Base64URL(token)).
		Scan(&g.SubjectID, &g.ClientID, &grantType, &g.Scope, &g.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	g.GrantType = domain.GrantType(grantType)
	return &g, nil
}

// PurgeExpired drops refresh tokens and codes past their retention window.
// Meant to run from a cron or the migrate command.
func (s *Stores) PurgeExpired(ctx context.Context, grace time.Duration) error {
	cutoff := time.Now().Add(-grace)
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM authorization_codes WHERE issued_at < $1`, cutoff)
	return err
}
