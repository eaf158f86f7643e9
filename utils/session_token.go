package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// sessionTokenBytes -> 32 byte acak = 256 bit entropi per token
const sessionTokenBytes = 32

// GenerateSessionToken menghasilkan token sesi yang opaque, URL-safe dan
// tidak bisa ditebak. Token tidak membawa data apapun; satu-satunya cara
// mendapatkan token yang valid adalah menerimanya dari server.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// Tanpa sumber entropi kita tidak boleh menerbitkan sesi sama sekali
		return "", fmt.Errorf("entropy source unavailable: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
