package oauth2

import (
	"reflect"
	"testing"
)

func TestValidateScope_DefaultsToAllowed(t *testing.T) {
	allowed := []string{"scope1", "scope2", "scope3", "admin"}

	got, err := ValidateScope(nil, allowed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, allowed) {
		t.Fatalf("expected %v, got %v", allowed, got)
	}
}

func TestValidateScope_SubsetOK(t *testing.T) {
	got, err := ValidateScope([]string{"scope2", "scope1"}, []string{"scope1", "scope2", "scope3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Caller order preserved.
	if !reflect.DeepEqual(got, []string{"scope2", "scope1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestValidateScope_ExceedsAllowed(t *testing.T) {
	_, err := ValidateScope(
		[]string{"scope0", "scope1", "admin"},
		[]string{"scope1", "scope2", "scope3", "admin"},
	)
	if err == nil {
		t.Fatal("expected invalid_scope")
	}
	if err.Kind != KindInvalidScope {
		t.Fatalf("expected KindInvalidScope, got %v", err.Kind)
	}
	want := "Requested scope (scope0 scope1 admin) exceeds allowed scope (scope1 scope2 scope3 admin)"
	if err.Description != want {
		t.Fatalf("message mismatch:\n  want %q\n  got  %q", want, err.Description)
	}
}

func TestValidateScope_DoesNotMutateInputs(t *testing.T) {
	requested := []string{"b", "a"}
	allowed := []string{"a", "b", "c"}

	got, err := ValidateScope(requested, allowed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got[0] = "mutated"

	if !reflect.DeepEqual(requested, []string{"b", "a"}) {
		t.Fatalf("requested mutated: %v", requested)
	}
	if !reflect.DeepEqual(allowed, []string{"a", "b", "c"}) {
		t.Fatalf("allowed mutated: %v", allowed)
	}
}

func TestHasScope(t *testing.T) {
	scope := []string{"openid", "profile"}
	if !HasScope(scope, "openid") {
		t.Fatal("expected openid present")
	}
	if HasScope(scope, "email") {
		t.Fatal("expected email absent")
	}
	if HasScope(nil, "openid") {
		t.Fatal("expected empty set to contain nothing")
	}
}
