// Package oauth - TokenController handles POST /oauth2/token
package oauth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	metrics "github.com/dropDatabas3/tokensmith/internal/http"
	"github.com/dropDatabas3/tokensmith/internal/oauth2"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// TokenController handles the OAuth2 token endpoint.
type TokenController struct {
	auth    *oauth2.ClientAuthenticator
	service oauth2.TokenService
}

// NewTokenController creates the controller.
func NewTokenController(auth *oauth2.ClientAuthenticator, s oauth2.TokenService) *TokenController {
	return &TokenController{auth: auth, service: s}
}

// Token handles POST /oauth2/token
// Implements: Authorization Code, Client Credentials, Resource Owner
// Password and Refresh Token grants (RFC 6749, OIDC Core).
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		c.writeError(w, &oauth2.Error{Kind: oauth2.KindInvalidRequest, Description: "Only POST method is allowed"})
		return
	}

	// Limit body size (64KB for OAuth forms)
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		c.writeError(w, &oauth2.Error{Kind: oauth2.KindInvalidRequest, Description: "Invalid form data"})
		return
	}

	grantType := r.PostForm.Get("grant_type")
	log = log.With(logger.GrantType(grantType))

	client, err := c.auth.Authenticate(ctx, r.PostForm, r.Header.Get("Authorization"))
	if err != nil {
		c.fail(w, log, grantType, err)
		return
	}

	resp, err := c.service.Exchange(ctx, oauth2.TokenRequest{
		Form:   r.PostForm,
		Client: client,
	})
	if err != nil {
		c.fail(w, log, grantType, err)
		return
	}

	metrics.ObserveTokenExchange(grantType, "success")
	c.writeTokenResponse(w, resp)
}

// fail maps a core error to the wire. Protocol errors keep their kind and
// message; anything else is an infrastructure failure and must never leak
// as a protocol error.
func (c *TokenController) fail(w http.ResponseWriter, log *zap.Logger, grantType string, err error) {
	if oe, ok := oauth2.AsError(err); ok {
		metrics.ObserveTokenExchange(grantType, oe.Code())
		c.writeError(w, oe)
		return
	}
	log.Error("token endpoint error", logger.Err(err))
	metrics.ObserveTokenExchange(grantType, "server_error")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"server_error","error_description":"An unexpected error occurred"}`))
}

func (c *TokenController) writeError(w http.ResponseWriter, oe *oauth2.Error) {
	if oe.Kind == oauth2.KindInvalidClientBasic {
		w.Header().Set("WWW-Authenticate", `Basic realm="tokensmith"`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(oe.HTTPStatus())

	// Descriptions can embed client-supplied input (scope values), so the
	// body must go through the JSON encoder, never string concatenation.
	body := struct {
		Error       string `json:"error"`
		Description string `json:"error_description,omitempty"`
	}{Error: oe.Code(), Description: oe.Description}
	b, _ := json.Marshal(body)
	_, _ = w.Write(b)
}

func (c *TokenController) writeTokenResponse(w http.ResponseWriter, resp *oauth2.TokenResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	// Struct tag order keeps access_token first on the wire.
	b, _ := json.Marshal(resp)
	_, _ = w.Write(b)
}
