package oauth2

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

const basicPrefix = "Basic "

// ClientAuthenticator resolves and verifies a client's identity from either
// the Authorization: Basic header or body-embedded credentials, never both.
type ClientAuthenticator struct {
	clients ClientStore
}

// NewClientAuthenticator creates the authenticator.
func NewClientAuthenticator(clients ClientStore) *ClientAuthenticator {
	return &ClientAuthenticator{clients: clients}
}

// Authenticate returns the verified client, or a *Error describing the
// protocol failure. Basic-channel failures carry 401 semantics; body-channel
// failures (and requests with no credentials at all) are generic
// invalid_client. Store failures other than not-found propagate untouched.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, form url.Values, authorization string) (*domain.Client, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.clientauth"))

	basicPresent := authorization != ""
	idVals := form["client_id"]
	secretVals := form["client_secret"]
	postPresent := len(idVals) > 0 || len(secretVals) > 0

	if basicPresent && postPresent {
		log.Warn("credentials supplied on both channels")
		return nil, invalidRequest("Multiple authentication credentials/mechanisms or malformed authentication data")
	}
	if len(idVals) > 1 || len(secretVals) > 1 {
		log.Warn("duplicated credential parameters")
		return nil, invalidRequest("Multiple authentication credentials/mechanisms or malformed authentication data")
	}

	if basicPresent {
		return a.authenticateBasic(ctx, authorization)
	}

	var id, secret string
	if len(idVals) == 1 {
		id = idVals[0]
	}
	if len(secretVals) == 1 {
		secret = secretVals[0]
	}
	return a.authenticatePost(ctx, id, secret)
}

// authenticateBasic handles the Authorization header channel. Every failure
// here is 401-class: malformed header, bad base64, missing colon, unknown
// client or wrong secret all answer with the Basic challenge.
func (a *ClientAuthenticator) authenticateBasic(ctx context.Context, authorization string) (*domain.Client, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.clientauth.basic"))

	if !strings.HasPrefix(authorization, basicPrefix) {
		log.Warn("authorization header is not Basic")
		return nil, invalidClientBasic()
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authorization, basicPrefix))
	if err != nil {
		log.Warn("basic credential is not valid base64")
		return nil, invalidClientBasic()
	}
	id, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		log.Warn("basic credential has no separator")
		return nil, invalidClientBasic()
	}

	client, err := a.clients.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("unknown client", logger.ClientID(id))
			return nil, invalidClientBasic()
		}
		return nil, err
	}
	if !verifySecret(client, secret) {
		log.Warn("secret mismatch", logger.ClientID(id))
		return nil, invalidClientBasic()
	}
	return client, nil
}

// authenticatePost handles body parameters. An empty client_id means no
// credentials were supplied at all; both cases are generic invalid_client.
func (a *ClientAuthenticator) authenticatePost(ctx context.Context, id, secret string) (*domain.Client, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.clientauth.post"))

	if id == "" {
		log.Warn("no client credentials supplied")
		return nil, invalidClient()
	}
	client, err := a.clients.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("unknown client", logger.ClientID(id))
			return nil, invalidClient()
		}
		return nil, err
	}
	if !verifySecret(client, secret) {
		log.Warn("secret mismatch", logger.ClientID(id))
		return nil, invalidClient()
	}
	return client, nil
}

// verifySecret compares in constant time regardless of where a mismatch
// occurs. Public clients (auth method none) hold no secret and must not
// present one; confidential clients fail on an empty supplied or stored
// secret.
func verifySecret(client *domain.Client, supplied string) bool {
	if client.Public() {
		return supplied == ""
	}
	if client.Secret == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(client.Secret), []byte(supplied)) == 1
}
