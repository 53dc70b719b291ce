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
	// ErrInvalidPasswordHash reports a stored credential that does not
	// follow the encoded argon2id layout. Accounts in this state cannot
	// log in until the password is reset.
	ErrInvalidPasswordHash = errors.New("invalid password hash format")
	// ErrIncompatiblePasswordVersion reports a credential minted by a
	// different argon2 version than the one linked into this binary.
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// Argon2idParams holds the cost settings baked into each stored credential.
// Verification reads the settings back out of the hash, so these can be
// raised over time without invalidating existing accounts.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams is what registration uses for new accounts.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreatePasswordHash derives an argon2id hash of the password with a fresh
// random salt and returns it in the standard encoded form
// $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks the password against a stored encoded hash. It
// returns nil on a match and ErrInvalidCredentials on a mismatch, so callers
// can hand the error straight back to the login flow.
func VerifyPassword(hashedPassword, password string) error {
	params, salt, stored, err := decodeArgon2idHash(hashedPassword)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeCompare(stored, candidate) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func decodeArgon2idHash(encoded string) (Argon2idParams, []byte, []byte, error) {
	var params Argon2idParams

	segments := strings.Split(encoded, "$")
	if len(segments) != 6 || segments[1] != "argon2id" {
		return params, nil, nil, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(segments[2], "v=%d", &version); err != nil {
		return params, nil, nil, err
	}
	if version != argon2.Version {
		return params, nil, nil, ErrIncompatiblePasswordVersion
	}

	if _, err := fmt.Sscanf(segments[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(segments[4])
	if err != nil {
		return params, nil, nil, err
	}
	params.SaltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.DecodeString(segments[5])
	if err != nil {
		return params, nil, nil, err
	}
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
