package application

import (
	"errors"
	"strings"
	"testing"
)

var testArgon2idParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("s3cret", testArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, argon2idPrefix) {
		t.Fatalf("unexpected hash format %q", hash)
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "other"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("$argon2id$broken", "s3cret"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
}

func TestPasswordMatches(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("pw", testArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	cases := []struct {
		name      string
		stored    string
		candidate string
		want      bool
	}{
		{"plain match", "pw", "pw", true},
		{"plain is case sensitive", "pw", "PW", false},
		{"hashed match", hash, "pw", true},
		{"hashed mismatch", hash, "nope", false},
		{"hash text is not a password", hash, hash, false},
	}
	for _, tc := range cases {
		if got := passwordMatches(tc.stored, tc.candidate); got != tc.want {
			t.Fatalf("%s: passwordMatches = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParsePasswordScheme(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]PasswordScheme{"": PasswordSchemePlain, "plain": PasswordSchemePlain, " Argon2id ": PasswordSchemeArgon2id} {
		got, err := ParsePasswordScheme(input)
		if err != nil || got != want {
			t.Fatalf("ParsePasswordScheme(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParsePasswordScheme("bcrypt"); err == nil {
		t.Fatalf("expected unknown scheme to be rejected")
	}
}
