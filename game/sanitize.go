package game

import (
	"strings"
	"unicode/utf8"

	"boxdrop/config"
)

// Sanitise trims, truncates to at most config.MaxDisplayNameLen bytes on a
// rune boundary (trimming again after the cut), and — if the
// result matches any banned substring (case-insensitive) — replaces every
// vowel with '*'. Idempotent: Sanitise(Sanitise(x)) == Sanitise(x), since a
// vowel-masked name can no longer match any banned substring that itself
// contains a vowel, and the trim/truncate steps are already stable.
func Sanitise(name string) string {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) > config.MaxDisplayNameLen {
		cut := config.MaxDisplayNameLen
		for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
			cut--
		}
		trimmed = strings.TrimSpace(trimmed[:cut])
	}

	if containsBanned(trimmed) {
		return maskVowels(trimmed)
	}
	return trimmed
}

func containsBanned(name string) bool {
	lower := strings.ToLower(name)
	for _, banned := range config.BannedSubstrings {
		if strings.Contains(lower, banned) {
			return true
		}
	}
	return false
}

func maskVowels(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			b.WriteRune('*')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
