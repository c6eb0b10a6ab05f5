package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("hunter2", phc) {
		t.Fatal("correct password must verify")
	}
	if Verify("hunter3", phc) {
		t.Fatal("wrong password must not verify")
	}
}

func TestHash_RejectsEmptyPassword(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, err := Hash(Default, "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Hash(Default, "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
	if !Verify("hunter2", a) || !Verify("hunter2", b) {
		t.Fatal("both hashes must verify")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	cases := []string{
		"",
		"not-a-phc-string",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$ZGs",           // wrong variant
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$ZGs",          // wrong version
		"$argon2id$v=19$m=65536,t=3$c2FsdA$ZGs",              // missing p
		"$argon2id$v=19$m=65536,t=3,p=1$!!notbase64!!$ZGs",   // bad salt
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$!!notbase64!", // bad key
	}
	for _, phc := range cases {
		if Verify("hunter2", phc) {
			t.Fatalf("malformed PHC must not verify: %q", phc)
		}
	}
}
