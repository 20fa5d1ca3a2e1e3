package security

import (
	"strings"
	"testing"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	encoded, err := hasher.Hash("correct horse battery staple 9")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}

	ok, err := hasher.Verify("correct horse battery staple 9", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = hasher.Verify("wrong password 1", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	first, err := hasher.Hash("repeatable password 7")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := hasher.Hash("repeatable password 7")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestPasswordHasher_EmptyInputs(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	ok, err := hasher.Verify("", "anything")
	if err != nil || ok {
		t.Fatalf("empty password: got ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("password", "")
	if err != nil || ok {
		t.Fatalf("empty hash: got ok=%v err=%v", ok, err)
	}
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	if _, err := hasher.Verify("password", "not a real hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := hasher.Verify("password", "bcrypt$v=19$m=1,t=1,p=1$a$b"); err == nil {
		t.Fatal("expected error for unexpected variant")
	}
}

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	cases := []struct {
		name     string
		password string
		wantCode string
	}{
		{name: "too short", password: "a1B!", wantCode: "min_length"},
		{name: "no letter", password: "123456789012", wantCode: "letter"},
		{name: "no digit", password: "abcdefghijkl", wantCode: "digit"},
		{name: "guessable", password: "password1", wantCode: "weak_password"},
		{name: "acceptable", password: "Vq7#plateau-mint", wantCode: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Validate(tc.password)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected password to pass, got %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(*PasswordValidationError)
			if !ok {
				t.Fatalf("expected PasswordValidationError, got %T", err)
			}
			if verr.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, verr.Code)
			}
		})
	}
}
