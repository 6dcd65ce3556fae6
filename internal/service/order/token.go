package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenLength is the fixed length of minted access tokens. Hex keeps the
// alphabet URL-safe and within the redemption endpoint's charset.
const TokenLength = 48

// NewToken mints an opaque single-use access credential.
func NewToken() (string, error) {
	b := make([]byte, TokenLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
