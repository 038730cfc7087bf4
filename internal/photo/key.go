package photo

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/m1chalz/AI-First-sub005/internal/validation"
)

// hashPrefixLen is the number of hex characters of the content digest kept in a key.
const hashPrefixLen = 16

var keyPattern = regexp.MustCompile(
	`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}-[0-9a-f]{16}\.(jpg|png|gif|webp)$`,
)

// StorageKey derives the storage key of a photo from its announcement and
// content: identical bytes for the same announcement always map to the same key.
func StorageKey(announcementID string, data []byte, format validation.ImageFormat) string {
	sum := sha256.Sum256(data)
	return strings.ToLower(announcementID) + "-" + hex.EncodeToString(sum[:])[:hashPrefixLen] + format.Extension
}

// ValidKey reports whether key has the shape produced by StorageKey.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// URL returns the public URL a stored photo is served from.
func URL(key string) string {
	return "/images/" + key
}

// ContentType maps a key's extension back to its MIME type.
func ContentType(key string) string {
	for _, f := range validation.AllowedImageFormats {
		if strings.HasSuffix(key, f.Extension) {
			return f.MIME
		}
	}
	return "application/octet-stream"
}
