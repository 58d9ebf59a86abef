package security

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFilenameLength = 255

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)data:text/html`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
}

// IsSafe reports whether text is free of the known markup and script
// injection patterns. Output must still be encoded where it is rendered.
func IsSafe(text string) bool {
	for _, p := range unsafePatterns {
		if p.MatchString(text) {
			return false
		}
	}
	return true
}

var reservedFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename removes path separators and reserved characters and
// truncates to 255 bytes, keeping the extension. It is idempotent.
func SanitizeFilename(name string) string {
	name = reservedFilenameChars.ReplaceAllString(name, "")
	if len(name) <= maxFilenameLength {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= maxFilenameLength {
		ext = ""
	}
	base := truncateUTF8(strings.TrimSuffix(name, ext), maxFilenameLength-len(ext))
	return base + ext
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// GenerateSecureFilename returns a random name that keeps only the extension
// of original.
func GenerateSecureFilename(original string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(SanitizeFilename(original)))
	return hex.EncodeToString(buf) + ext, nil
}
