package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFilenameBytes = 255

var (
	illegalRe     = regexp.MustCompile(`[/?<>\\:*|"]`)
	controlRe     = regexp.MustCompile(`[\x00-\x1f\x80-\x9f]`)
	reservedRe    = regexp.MustCompile(`^\.+$`)
	windowsNameRe = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	trailingRe    = regexp.MustCompile(`[. ]+$`)
)

// Sanitise strips characters that are not portable in file names, drops
// reserved names and truncates to 255 bytes on a rune boundary.
// It may return an empty string; see TitleOrFallback.
func Sanitise(filename string) string {
	san := illegalRe.ReplaceAllString(filename, "")
	san = controlRe.ReplaceAllString(san, "")
	san = reservedRe.ReplaceAllString(san, "")
	san = windowsNameRe.ReplaceAllString(san, "")
	san = trailingRe.ReplaceAllString(san, "")
	return truncateBytes(san, maxFilenameBytes)
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// TitleOrFallback sanitises title and substitutes Video{index} when nothing usable remains.
func TitleOrFallback(title string, index int) string {
	if san := Sanitise(title); san != "" {
		return san
	}
	return fmt.Sprintf("Video%d", index)
}

// MakeDirs creates directories recursively.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0755)
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) (bool, error) {
	f, err := os.Stat(path)
	if err == nil {
		return f.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidatePath checks that a path does not contain dangerous characters.
func ValidatePath(path string) error {
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains invalid characters")
	}
	return nil
}

// OutputFile returns the downloader output template for a sanitised title.
func OutputFile(outputDir, title string) string {
	return filepath.Join(outputDir, title+".mp4")
}
