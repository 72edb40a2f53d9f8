/*
Package randx provides cryptographically secure identifiers for sessions, form tokens
and staged upload keys.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// FormTokenLength is the length of tokens embedded in rendered forms.
	FormTokenLength = 22
)

// SessionID returns a new UUID v4 string for a browser session.
func SessionID() string {
	return uuid.New().String()
}

// IsValidSessionID reports whether id parses as a UUID.
func IsValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Token returns n random Base62 characters.
func Token(n int) (string, error) {
	result := make([]byte, n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for token: %v", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsBase62 reports whether s is non-empty and made only of Base62 characters.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}
	return true
}

// PreviewKey returns an object key for a staged image preview owned by sessionID.
func PreviewKey(sessionID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("previews/%s/%d_%s.%s", sessionID, time.Now().UnixMilli(), uuid.New().String()[:8], ext)
}
