package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const maxFileNameRunes = 100

// ErrInvalidFileName is returned for names that are empty or try to escape their directory.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces an uploaded photo name to a single safe path element.
// Separators become underscores, control characters are dropped, and long
// names are shortened while keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}

	runes := []rune(s)
	if len(runes) <= maxFileNameRunes {
		return s, nil
	}
	ext := path.Ext(s)
	if len([]rune(ext)) > 10 {
		ext = ""
	}
	stem := []rune(strings.TrimSuffix(s, ext))
	keep := maxFileNameRunes - len([]rune(ext))
	if keep > len(stem) {
		keep = len(stem)
	}
	return string(stem[:keep]) + ext, nil
}
