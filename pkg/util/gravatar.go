package util

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GravatarURL derives the avatar URL for an email address.
// The hash is computed over the trimmed, lowercased address; nothing is stored.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://gravatar.com/avatar/%x?s=200", hash)
}
