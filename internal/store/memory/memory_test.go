package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/security/password"
	tokens "github.com/dropDatabas3/tokensmith/internal/security/token"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

func TestClientStore_RoundTrip(t *testing.T) {
	s := NewClientStore()
	ctx := context.Background()

	_, err := s.Lookup(ctx, "app")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.PutClient(ctx, &domain.Client{ClientID: "app", Secret: "s"}))
	got, err := s.Lookup(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, "app", got.ClientID)
}

func TestCodeStore_SingleUse(t *testing.T) {
	s := NewCodeStore(10 * time.Minute)
	ctx := context.Background()

	grant := &domain.AuthorizationGrant{
		Code:     "catcode",
		ClientID: "app",
		IssuedAt: time.Now(),
	}
	require.NoError(t, s.PutCode(ctx, grant))

	got, err := s.Consume(ctx, "catcode")
	require.NoError(t, err)
	assert.Equal(t, "app", got.ClientID)

	_, err = s.Consume(ctx, "catcode")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCodeStore_ConcurrentConsumeSingleWinner(t *testing.T) {
	s := NewCodeStore(10 * time.Minute)
	ctx := context.Background()
	require.NoError(t, s.PutCode(ctx, &domain.AuthorizationGrant{Code: "racy", IssuedAt: time.Now()}))

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Consume(ctx, "racy"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	assert.Len(t, wins, 1, "exactly one redemption may observe the code")
}

func TestRefreshStore_RoundTrip(t *testing.T) {
	s := NewRefreshStore()
	ctx := context.Background()

	grant := &domain.AccessGrant{
		SubjectID: "cat",
		ClientID:  "app",
		GrantType: domain.GrantAuthorizationCode,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Save(ctx, tokens.SHA256Base64URL("refreshtoken"), grant))

	got, err := s.Decode(ctx, "app", "refreshtoken")
	require.NoError(t, err)
	assert.Equal(t, "cat", got.SubjectID)
	assert.Equal(t, domain.GrantAuthorizationCode, got.GrantType)

	_, err = s.Decode(ctx, "app", "unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshStore_KeepsExpiredGrantsDecodable(t *testing.T) {
	s := NewRefreshStore()
	ctx := context.Background()

	// Already expired: Decode must still find it so the service can answer
	// with the precise expiry error.
	grant := &domain.AccessGrant{
		ClientID:  "app",
		GrantType: domain.GrantPassword,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, s.Save(ctx, tokens.SHA256Base64URL("expiredtoken"), grant))

	got, err := s.Decode(ctx, "app", "expiredtoken")
	require.NoError(t, err)
	assert.True(t, got.Expired(time.Now()))

	// Even past the retention grace the record must not be rejected at
	// write time; the computed TTL would be non-positive without a floor.
	stale := &domain.AccessGrant{
		ClientID:  "app",
		GrantType: domain.GrantPassword,
		ExpiresAt: time.Now().Add(-72 * time.Hour),
	}
	require.NoError(t, s.Save(ctx, tokens.SHA256Base64URL("staletoken"), stale))
	got, err = s.Decode(ctx, "app", "staletoken")
	require.NoError(t, err)
	assert.True(t, got.Expired(time.Now()))
}

func TestUserStore_Verify(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	hash, err := password.Hash(password.Default, "hunter2")
	require.NoError(t, err)
	s.Put(&User{SubjectID: "u-john", Username: "john", PasswordHash: hash})

	subject, err := s.Verify(ctx, "john", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u-john", subject)

	_, err = s.Verify(ctx, "john", "wrong")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Unknown user fails identically.
	_, err = s.Verify(ctx, "ghost", "hunter2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
