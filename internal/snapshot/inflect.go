package snapshot

import (
	"strings"
	"unicode"
)

var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
	"mouse":  "mice",
	"goose":  "geese",
}

// Plural returns the English plural of a singular noun, as blueprint
// templates name collections ("{{plural .Name}}").
func Plural(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)
	if p, ok := irregularPlurals[lower]; ok {
		return matchCase(word, p)
	}

	last := len(lower) - 1
	switch {
	case strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"),
		strings.ContainsRune("sxz", rune(lower[last])):
		return word + "es"
	case lower[last] == 'y' && last > 0 && !isVowel(lower[last-1]):
		return word[:last] + "ies"
	case strings.HasSuffix(lower, "fe"):
		return word[:last-1] + "ves"
	case lower[last] == 'f':
		return word[:last] + "ves"
	}
	return word + "s"
}

func matchCase(original, word string) string {
	switch {
	case strings.ToUpper(original) == original:
		return strings.ToUpper(word)
	case unicode.IsUpper(rune(original[0])):
		return strings.ToUpper(word[:1]) + word[1:]
	}
	return word
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}
