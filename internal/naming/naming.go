// Package naming provides shared string case conversion utilities.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// isSeparator reports whether r splits words.
func isSeparator(r rune) bool {
	switch r {
	case '_', '-', '.', '/', ' ':
		return true
	}
	return false
}

// Words splits s into words on separators (underscore, hyphen, dot, slash,
// space) and on case boundaries. Acronym runs stay together and digits stay
// with the preceding word.
// Example: "APIClient" -> ["API", "Client"]
// Example: "user_profileID2" -> ["user", "profile", "ID2"]
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// "userID" splits before I; "APIClient" splits before C.
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// upperFirst uppercases the first rune of w and keeps the rest.
func upperFirst(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// ToPascalCase converts a string to PascalCase. Acronyms are preserved.
// Example: "user_profile" -> "UserProfile"
// Example: "api-client" -> "ApiClient"
// Example: "APIClient" -> "APIClient"
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

// ToCamelCase converts a string to camelCase. The first word is lowercased entirely.
// Example: "user_profile" -> "userProfile"
// Example: "APIClient" -> "apiClient"
func ToCamelCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	lower := cases.Lower(language.Und)
	var b strings.Builder
	b.WriteString(lower.String(words[0]))
	for _, w := range words[1:] {
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

// ToSnakeCase converts a string to snake_case.
// Example: "UserProfile" -> "user_profile"
// Example: "APIClient" -> "api_client"
func ToSnakeCase(s string) string {
	return joinLower(s, "_")
}

// ToKebabCase converts a string to kebab-case.
// Example: "UserProfile" -> "user-profile"
func ToKebabCase(s string) string {
	return joinLower(s, "-")
}

func joinLower(s, sep string) string {
	words := Words(s)
	lower := cases.Lower(language.Und)
	for i, w := range words {
		words[i] = lower.String(w)
	}
	return strings.Join(words, sep)
}

// ToTitleCase uppercases the first letter of every space-separated word,
// leaving the remaining letters untouched.
// Example: "hello world" -> "Hello World"
func ToTitleCase(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}
