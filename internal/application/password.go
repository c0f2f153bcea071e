package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// PasswordScheme selects how new directory passwords are stored.
type PasswordScheme string

const (
	PasswordSchemePlain    PasswordScheme = "plain"
	PasswordSchemeArgon2id PasswordScheme = "argon2id"
)

const argon2idPrefix = "$argon2id$"

// ParsePasswordScheme validates a configured scheme name. Empty means plain.
func ParsePasswordScheme(value string) (PasswordScheme, error) {
	switch PasswordScheme(strings.ToLower(strings.TrimSpace(value))) {
	case "", PasswordSchemePlain:
		return PasswordSchemePlain, nil
	case PasswordSchemeArgon2id:
		return PasswordSchemeArgon2id, nil
	}
	return "", fmt.Errorf("unknown password scheme %q", value)
}

// Encode returns the stored form of password under the scheme.
func (s PasswordScheme) Encode(password string) (string, error) {
	if s == PasswordSchemeArgon2id {
		return CreatePasswordHash(password, DefaultArgon2idParams)
	}
	return password, nil
}

// passwordMatches compares a candidate against a stored password in either form.
func passwordMatches(stored, candidate string) bool {
	if strings.HasPrefix(stored, argon2idPrefix) {
		return VerifyPassword(stored, candidate) == nil
	}
	return stored == candidate
}

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 {
		return ErrInvalidPasswordHash
	}

	if parts[1] != "argon2id" {
		return ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatiblePasswordVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrInvalidCredentials
}
