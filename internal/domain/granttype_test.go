package domain

import "testing"

func TestParseGrantType(t *testing.T) {
	for _, wire := range []string{
		"authorization_code",
		"client_credentials",
		"password",
		"refresh_token",
		"implicit",
	} {
		g, ok := ParseGrantType(wire)
		if !ok {
			t.Fatalf("expected %q to parse", wire)
		}
		if g.String() != wire {
			t.Fatalf("round trip mismatch: %q != %q", g.String(), wire)
		}
	}

	for _, wire := range []string{
		"",
		"AUTHORIZATION_CODE",
		"authorization-code",
		"urn:ietf:params:oauth:grant-type:device_code",
	} {
		if _, ok := ParseGrantType(wire); ok {
			t.Fatalf("expected %q to be unrecognized", wire)
		}
	}
}

func TestGrantType_SupportsTokenEndpoint(t *testing.T) {
	if GrantImplicit.SupportsTokenEndpoint() {
		t.Fatal("implicit is not exchangeable at the token endpoint")
	}
	for _, g := range []GrantType{GrantAuthorizationCode, GrantClientCredentials, GrantPassword, GrantRefreshToken} {
		if !g.SupportsTokenEndpoint() {
			t.Fatalf("%s must be exchangeable", g)
		}
	}
}

func TestGrantType_IssuesIdentity(t *testing.T) {
	if !GrantAuthorizationCode.IssuesIdentity() || !GrantPassword.IssuesIdentity() {
		t.Fatal("user-facing grants establish an identity")
	}
	if GrantClientCredentials.IssuesIdentity() || GrantRefreshToken.IssuesIdentity() {
		t.Fatal("machine and refresh grants do not establish an identity by themselves")
	}
}
