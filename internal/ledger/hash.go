package ledger

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// HashScheme selects how new passwords are hashed. Verification always
// detects the scheme from the stored hash, so ledgers with mixed schemes
// keep working.
type HashScheme string

const (
	// SchemeSHA256 is a single unsalted SHA-256 pass, kept for
	// compatibility with data files written by older versions.
	SchemeSHA256 HashScheme = "sha256"
	// SchemePBKDF2 is salted PBKDF2-SHA256, the stronger default for
	// installations that do not need old data files to keep verifying.
	SchemePBKDF2 HashScheme = "pbkdf2"
)

const (
	pbkdf2Prefix     = "pbkdf2$"
	pbkdf2Iterations = 120000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32
)

// HashPassword hashes password under the given scheme.
func HashPassword(password string, scheme HashScheme) (string, error) {
	switch scheme {
	case SchemeSHA256, "":
		sum := sha256.Sum256([]byte(password))
		return hex.EncodeToString(sum[:]), nil
	case SchemePBKDF2:
		salt := make([]byte, pbkdf2SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
		key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
		return fmt.Sprintf("%s%d$%s$%s", pbkdf2Prefix, pbkdf2Iterations,
			hex.EncodeToString(salt), hex.EncodeToString(key)), nil
	default:
		return "", fmt.Errorf("unknown hash scheme %q", scheme)
	}
}

// verifyPassword reports whether password matches the stored hash,
// whichever scheme produced it.
func verifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, pbkdf2Prefix) {
		parts := strings.Split(strings.TrimPrefix(stored, pbkdf2Prefix), "$")
		if len(parts) != 3 {
			return false
		}
		iter, err := strconv.Atoi(parts[0])
		if err != nil || iter <= 0 {
			return false
		}
		salt, err := hex.DecodeString(parts[1])
		if err != nil {
			return false
		}
		want, err := hex.DecodeString(parts[2])
		if err != nil {
			return false
		}
		got := pbkdf2.Key([]byte(password), salt, iter, len(want), sha256.New)
		return subtle.ConstantTimeCompare(got, want) == 1
	}
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}
