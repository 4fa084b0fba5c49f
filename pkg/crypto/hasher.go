package crypto

import (
	"encoding/hex"
	"errors"
	"strconv"
	"unicode/utf16"

	"golang.org/x/crypto/blake2b"
)

// TokenHasher derives the deterministic lookup key stored for a raw token.
type TokenHasher interface {
	Name() string
	Hash(raw string) string
}

var ErrEmptyHashKey = errors.New("token hash key must not be empty")

// KeyedHasher computes a keyed BLAKE2b-256 MAC of the token. Without the key,
// stored hashes cannot be used to test guesses offline.
type KeyedHasher struct {
	key []byte
}

func NewKeyedHasher(key string) (*KeyedHasher, error) {
	if key == "" {
		return nil, ErrEmptyHashKey
	}
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum512(k)
		k = sum[:]
	}
	// Validate the key once so Hash never has to handle an error.
	if _, err := blake2b.New256(k); err != nil {
		return nil, err
	}
	return &KeyedHasher{key: k}, nil
}

func (h *KeyedHasher) Name() string { return "blake2b-keyed" }

func (h *KeyedHasher) Hash(raw string) string {
	mac, _ := blake2b.New256(h.key)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// LegacyHasher reproduces the 32-bit string hash used by tokens issued before
// keyed hashing, so those tokens keep resolving during migration. It is not
// collision resistant.
type LegacyHasher struct{}

func (LegacyHasher) Name() string { return "legacy-int32" }

func (LegacyHasher) Hash(raw string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(raw)) {
		h = (h << 5) - h + int32(unit)
	}
	if h < 0 {
		return "-" + strconv.FormatInt(-int64(h), 16)
	}
	return strconv.FormatInt(int64(h), 16)
}

// LookupHashers returns the hashers tried, in order, when resolving a raw
// token. The first one is also used to hash newly issued tokens.
func LookupHashers(key string, legacyFallback bool) ([]TokenHasher, error) {
	keyed, err := NewKeyedHasher(key)
	if err != nil {
		return nil, err
	}
	hashers := []TokenHasher{keyed}
	if legacyFallback {
		hashers = append(hashers, LegacyHasher{})
	}
	return hashers, nil
}
