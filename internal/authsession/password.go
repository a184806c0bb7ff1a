package authsession

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/vannadii/rustygpt-go/internal/config"
)

// HashPassword computes a PHC-formatted Argon2id hash
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash), the same encoding the
// stored credential column holds.
func HashPassword(cfg config.Argon2Config, password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("authsession: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.MemoryKB, cfg.Threads, cfg.KeyLen)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		cfg.MemoryKB, cfg.Time, cfg.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks candidate against an encoded Argon2id hash,
// re-deriving the key with the parameters embedded in the hash itself so
// a profile change never invalidates already-issued credentials.
func VerifyPassword(encoded, candidate string) error {
	memoryKB, timeCost, threads, salt, want, err := parseEncodedHash(encoded)
	if err != nil {
		return ErrInvalidCredentials
	}

	got := argon2.IDKey([]byte(candidate), salt, timeCost, memoryKB, threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func parseEncodedHash(encoded string) (memoryKB, timeCost uint32, threads uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("authsession: unrecognized hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	var m uint32
	var t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}

	return m, t, p, salt, hash, nil
}
