// Package redis implementa los stores sobre Redis (producción).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	tokens "github.com/dropDatabas3/tokensmith/internal/security/token"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

// expiredGrace: los registros vencidos se conservan un tiempo extra para
// que un canje tardío falle con el error exacto y no con not-found.
const expiredGrace = 24 * time.Hour

// Stores groups the redis-backed store implementations over one connection.
type Stores struct {
	c       *rdb.Client
	prefix  string
	codeTTL time.Duration
}

// New connects to redis. prefix namespaces every key.
func New(addr string, db int, prefix string, codeTTL time.Duration) *Stores {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &Stores{
		c:       rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix:  prefix,
		codeTTL: codeTTL,
	}
}

// NewFromClient wraps an existing client (tests).
func NewFromClient(c *rdb.Client, prefix string, codeTTL time.Duration) *Stores {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &Stores{c: c, prefix: prefix, codeTTL: codeTTL}
}

func (s *Stores) key(kind, id string) string {
	return s.prefix + kind + ":" + id
}

// Ping verifies the connection.
func (s *Stores) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

// Close closes the connection.
func (s *Stores) Close() error { return s.c.Close() }

// --- oauth2.ClientStore ---

// PutClient registers or replaces a client record.
func (s *Stores) PutClient(ctx context.Context, client *domain.Client) error {
	b, err := json.Marshal(client)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, s.key("client", client.ClientID), b, 0).Err()
}

func (s *Stores) Lookup(ctx context.Context, clientID string) (*domain.Client, error) {
	b, err := s.c.Get(ctx, s.key("client", clientID)).Bytes()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var client domain.Client
	if err := json.Unmarshal(b, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// --- oauth2.AuthorizationCodeStore ---

// PutCode stores an issued authorization code.
func (s *Stores) PutCode(ctx context.Context, grant *domain.AuthorizationGrant) error {
	b, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, s.key("code", grant.Code), b, s.codeTTL+expiredGrace).Err()
}

// Consume redeems a code with a single GETDEL, so the load-and-delete pair
// is one indivisible redis operation and concurrent redemptions of the same
// code cannot both succeed.
func (s *Stores) Consume(ctx context.Context, code string) (*domain.AuthorizationGrant, error) {
	b, err := s.c.GetDel(ctx, s.key("code", code)).Bytes()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var grant domain.AuthorizationGrant
	if err := json.Unmarshal(b, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// --- oauth2.RefreshTokenStore + jwt.RefreshTokenSink ---

func (s *Stores) Save(ctx context.Context, tokenHash string, grant *domain.AccessGrant) error {
	b, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	// Un TTL no positivo haría fallar el SET; retener al menos un minuto
	// para que un canje tardío reciba el error de expiración preciso.
	ttl := time.Until(grant.ExpiresAt) + expiredGrace
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return s.c.Set(ctx, s.key("refresh", tokenHash), b, ttl).Err()
}

func (s *Stores) Decode(ctx context.Context, _ string, token string) (*domain.AccessGrant, error) {
	b, err := s.c.Get(ctx, s.key("refresh", tokens.SHA256Base64URL(token))).Bytes()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var grant domain.AccessGrant
	if err := json.Unmarshal(b, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}
