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

// PasswordMatcher turns passwords into their stored form and compares candidates against it.
type PasswordMatcher interface {
	Hash(password string) (string, error)
	Matches(stored, candidate string) bool
}

// PlaintextPasswords stores passwords as given and compares them by equality.
type PlaintextPasswords struct{}

// Hash returns password unchanged.
func (PlaintextPasswords) Hash(password string) (string, error) { return password, nil }

// Matches reports whether the candidate equals the stored password.
func (PlaintextPasswords) Matches(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// Argon2Passwords stores argon2id hashes.
type Argon2Passwords struct {
	Params Argon2idParams
}

// Hash derives an encoded argon2id hash for password.
func (a Argon2Passwords) Hash(password string) (string, error) {
	params := a.Params
	if params.KeyLength == 0 {
		params = DefaultArgon2idParams
	}
	return CreatePasswordHash(password, params)
}

// Matches reports whether candidate hashes to the stored value.
func (Argon2Passwords) Matches(stored, candidate string) bool {
	return VerifyPassword(stored, candidate) == nil
}

// PasswordMatcherFor returns the matcher configured by name. Unknown names fall back to plaintext.
func PasswordMatcherFor(name string) PasswordMatcher {
	if strings.EqualFold(strings.TrimSpace(name), "argon2") {
		return Argon2Passwords{Params: DefaultArgon2idParams}
	}
	return PlaintextPasswords{}
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

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword returns nil when password matches the encoded hash and ErrInvalidCredentials otherwise.
func VerifyPassword(hashedPassword, password string) error {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
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

	comparisonHash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(decodedHash)))
	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}
	return ErrInvalidCredentials
}
