package oauth2

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/store"
)

type fakeClients struct {
	clients map[string]*domain.Client
	err     error // forced infrastructure failure
}

func (f *fakeClients) Lookup(_ context.Context, id string) (*domain.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func testAuthenticator() *ClientAuthenticator {
	return NewClientAuthenticator(&fakeClients{clients: map[string]*domain.Client{
		"app": {
			ClientID:   "app",
			Secret:     "appsecret",
			AuthMethod: domain.AuthMethodBasic,
		},
		"spa": {
			ClientID:   "spa",
			AuthMethod: domain.AuthMethodNone,
		},
	}})
}

func basicHeader(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func expectKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	oe, ok := AsError(err)
	if !ok {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if oe.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%s)", kind, oe.Kind, oe.Description)
	}
	return oe
}

func TestAuthenticate_BasicOK(t *testing.T) {
	a := testAuthenticator()
	client, err := a.Authenticate(context.Background(), url.Values{}, basicHeader("app", "appsecret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ClientID != "app" {
		t.Fatalf("wrong client: %s", client.ClientID)
	}
}

func TestAuthenticate_BasicWrongSecret(t *testing.T) {
	a := testAuthenticator()
	_, err := a.Authenticate(context.Background(), url.Values{}, basicHeader("app", "wrong"))
	oe := expectKind(t, err, KindInvalidClientBasic)
	if oe.HTTPStatus() != 401 {
		t.Fatalf("expected 401, got %d", oe.HTTPStatus())
	}
}

func TestAuthenticate_BasicMalformed(t *testing.T) {
	a := testAuthenticator()

	// Not base64.
	_, err := a.Authenticate(context.Background(), url.Values{}, "Basic !!!not-base64!!!")
	expectKind(t, err, KindInvalidClientBasic)

	// Valid base64 but no colon.
	noColon := "Basic " + base64.StdEncoding.EncodeToString([]byte("appappsecret"))
	_, err = a.Authenticate(context.Background(), url.Values{}, noColon)
	expectKind(t, err, KindInvalidClientBasic)

	// Wrong scheme.
	_, err = a.Authenticate(context.Background(), url.Values{}, "Bearer abc")
	expectKind(t, err, KindInvalidClientBasic)
}

func TestAuthenticate_BasicUnknownClient(t *testing.T) {
	a := testAuthenticator()
	_, err := a.Authenticate(context.Background(), url.Values{}, basicHeader("ghost", "x"))
	expectKind(t, err, KindInvalidClientBasic)
}

func TestAuthenticate_PostOK(t *testing.T) {
	a := testAuthenticator()
	form := url.Values{"client_id": {"app"}, "client_secret": {"appsecret"}}
	client, err := a.Authenticate(context.Background(), form, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ClientID != "app" {
		t.Fatalf("wrong client: %s", client.ClientID)
	}
}

func TestAuthenticate_PostFailuresAreNot401(t *testing.T) {
	a := testAuthenticator()

	form := url.Values{"client_id": {"app"}, "client_secret": {"wrong"}}
	_, err := a.Authenticate(context.Background(), form, "")
	oe := expectKind(t, err, KindInvalidClient)
	if oe.HTTPStatus() != 400 {
		t.Fatalf("post-channel failure must be 400, got %d", oe.HTTPStatus())
	}

	form = url.Values{"client_id": {"ghost"}}
	_, err = a.Authenticate(context.Background(), form, "")
	expectKind(t, err, KindInvalidClient)
}

func TestAuthenticate_NoCredentials(t *testing.T) {
	a := testAuthenticator()
	_, err := a.Authenticate(context.Background(), url.Values{}, "")
	expectKind(t, err, KindInvalidClient)
}

func TestAuthenticate_BothChannels(t *testing.T) {
	a := testAuthenticator()
	form := url.Values{"client_id": {"app"}, "client_secret": {"appsecret"}}
	_, err := a.Authenticate(context.Background(), form, basicHeader("app", "appsecret"))
	oe := expectKind(t, err, KindInvalidRequest)
	want := "Multiple authentication credentials/mechanisms or malformed authentication data"
	if oe.Description != want {
		t.Fatalf("message mismatch: %q", oe.Description)
	}
}

func TestAuthenticate_DuplicateParams(t *testing.T) {
	a := testAuthenticator()
	form := url.Values{"client_id": {"app", "app"}, "client_secret": {"appsecret"}}
	_, err := a.Authenticate(context.Background(), form, "")
	expectKind(t, err, KindInvalidRequest)
}

func TestAuthenticate_PublicClient(t *testing.T) {
	a := testAuthenticator()

	form := url.Values{"client_id": {"spa"}}
	client, err := a.Authenticate(context.Background(), form, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ClientID != "spa" {
		t.Fatalf("wrong client: %s", client.ClientID)
	}

	// A public client must not present a secret.
	form = url.Values{"client_id": {"spa"}, "client_secret": {"whatever"}}
	_, err = a.Authenticate(context.Background(), form, "")
	expectKind(t, err, KindInvalidClient)
}

func TestAuthenticate_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")
	a := NewClientAuthenticator(&fakeClients{err: boom})

	form := url.Values{"client_id": {"app"}, "client_secret": {"appsecret"}}
	_, err := a.Authenticate(context.Background(), form, "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected infrastructure error to propagate, got %v", err)
	}
	if _, ok := AsError(err); ok {
		t.Fatal("infrastructure failure must not be a protocol error")
	}
}
