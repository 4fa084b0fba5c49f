package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// TokenPrefix marks ingest tokens so they are recognisable in logs and configs.
	TokenPrefix = "npt_"
	// TokenRandomLength is the number of random characters after the prefix.
	TokenRandomLength = 32

	tokenAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	previewSuffix  = 6
	previewMasking = "***"
)

var randomInt = rand.Int

// GenerateToken returns a new raw ingest token: the prefix followed by
// TokenRandomLength characters drawn uniformly from [A-Za-z0-9].
func GenerateToken() (string, error) {
	var b strings.Builder
	b.Grow(len(TokenPrefix) + TokenRandomLength)
	b.WriteString(TokenPrefix)

	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < TokenRandomLength; i++ {
		n, err := randomInt(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Preview returns the redacted form stored next to the hash, e.g. "npt_***a1B2c3".
func Preview(raw string) string {
	tail := raw
	if len(raw) > previewSuffix {
		tail = raw[len(raw)-previewSuffix:]
	}
	return TokenPrefix + previewMasking + tail
}
