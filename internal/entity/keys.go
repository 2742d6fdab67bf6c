package entity

import (
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
)

const (
	UploadsPrefix    = "uploads/"
	ThumbnailsPrefix = "thumbnails/"

	maxFilenameLen = 200
)

// SanitizeFilename reduces a client supplied filename to a safe key fragment:
// directories are stripped, control characters dropped and everything outside
// [A-Za-z0-9._-] replaced with '_'.
func SanitizeFilename(name string) (string, error) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == utf8.RuneError || unicode.IsControl(r):
			continue
		case r < utf8.RuneSelf && (isAlnum(r) || r == '.' || r == '-' || r == '_'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	// no hidden files, no "." / ".."
	clean := strings.TrimLeft(b.String(), ".")
	if len(clean) > maxFilenameLen {
		clean = clean[len(clean)-maxFilenameLen:]
	}

	if strings.Trim(clean, "_") == "" {
		return "", fmt.Errorf("entity - SanitizeFilename - unsafe filename %q: %w", name, errs.ErrValidation)
	}

	return clean, nil
}

// OriginalKey places a sanitized filename under the uploads namespace.
func OriginalKey(sanitized string) string {
	return UploadsPrefix + sanitized
}

// ThumbnailKey maps an image key to the same basename under the thumbnails namespace.
func ThumbnailKey(imageKey string) string {
	return ThumbnailsPrefix + path.Base(imageKey)
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
