// Package memory implementa los stores en memoria (desarrollo/testing).
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/security/password"
	tokens "github.com/dropDatabas3/tokensmith/internal/security/token"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

// expiredGrace keeps expired records around a while longer so a late
// redemption fails with the precise protocol error ("Expired code",
// "Refresh token has expired") instead of a generic not-found.
const expiredGrace = 24 * time.Hour

// ClientStore is an in-memory oauth2.ClientStore.
type ClientStore struct {
	c *gocache.Cache
}

func NewClientStore() *ClientStore {
	return &ClientStore{c: gocache.New(gocache.NoExpiration, 0)}
}

// PutClient registers or replaces a client.
func (s *ClientStore) PutClient(_ context.Context, client *domain.Client) error {
	s.c.Set(client.ClientID, client, gocache.NoExpiration)
	return nil
}

func (s *ClientStore) Lookup(_ context.Context, clientID string) (*domain.Client, error) {
	v, ok := s.c.Get(clientID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return v.(*domain.Client), nil
}

// CodeStore is an in-memory oauth2.AuthorizationCodeStore. Consume holds a
// lock across the load-and-delete pair so two requests racing on the same
// code never both observe the grant.
type CodeStore struct {
	mu  sync.Mutex
	c   *gocache.Cache
	ttl time.Duration
}

func NewCodeStore(codeTTL time.Duration) *CodeStore {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &CodeStore{
		c:   gocache.New(codeTTL+expiredGrace, time.Minute),
		ttl: codeTTL,
	}
}

// PutCode stores an issued authorization code.
func (s *CodeStore) PutCode(_ context.Context, grant *domain.AuthorizationGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Set(grant.Code, grant, s.ttl+expiredGrace)
	return nil
}

func (s *CodeStore) Consume(_ context.Context, code string) (*domain.AuthorizationGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(code)
	if !ok {
		return nil, store.ErrNotFound
	}
	s.c.Delete(code)
	return v.(*domain.AuthorizationGrant), nil
}

// RefreshStore is an in-memory refresh token store. It implements both
// oauth2.RefreshTokenStore (decode) and jwt.RefreshTokenSink (save).
type RefreshStore struct {
	c *gocache.Cache
}

func NewRefreshStore() *RefreshStore {
	return &RefreshStore{c: gocache.New(gocache.NoExpiration, time.Hour)}
}

func (s *RefreshStore) Save(_ context.Context, tokenHash string, grant *domain.AccessGrant) error {
	s.c.Set(tokenHash, grant, retention(grant.ExpiresAt))
	return nil
}

// retention keeps a record until grace past its expiry, never less than a
// minute: a non-positive TTL would evict immediately and a late redemption
// would see not-found instead of the expiry error.
func retention(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt) + expiredGrace
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}

func (s *RefreshStore) Decode(_ context.Context, _ string, token string) (*domain.AccessGrant, error) {
	v, ok := s.c.Get(tokens.SHA256Base64URL(token))
	if !ok {
		return nil, store.ErrNotFound
	}
	return v.(*domain.AccessGrant), nil
}

// User is a seeded resource owner record.
type User struct {
	SubjectID    string
	Username     string
	PasswordHash string // argon2id PHC string
}

// UserStore is an in-memory oauth2.UserAuthenticator.
type UserStore struct {
	c *gocache.Cache
}

func NewUserStore() *UserStore {
	return &UserStore{c: gocache.New(gocache.NoExpiration, 0)}
}

// Put registers a user by username.
func (s *UserStore) Put(u *User) {
	s.c.Set(u.Username, u, gocache.NoExpiration)
}

// Verify checks credentials. Unknown users and bad passwords both come back
// as store.ErrNotFound; the caller cannot tell them apart.
func (s *UserStore) Verify(_ context.Context, username, plain string) (string, error) {
	v, ok := s.c.Get(username)
	if !ok {
		// Burn comparable time for unknown users.
		password.Verify(plain, unknownUserHash)
		return "", store.ErrNotFound
	}
	u := v.(*User)
	if !password.Verify(plain, u.PasswordHash) {
		return "", store.ErrNotFound
	}
	return u.SubjectID, nil
}

// unknownUserHash is a throwaway argon2id hash used to equalize timing
// between unknown-user and wrong-password failures.
var unknownUserHash = func() string {
	h, _ := password.Hash(password.Default, "tokensmith-dummy")
	return h
}()
