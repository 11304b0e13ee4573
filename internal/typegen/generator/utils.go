package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lowerFirst lower-cases the first letter of a property name
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func isValidJSIdentifier(s string) bool {
	if s == "" {
		return false
	}

	// Check if the first character is valid (letter, underscore, or dollar sign)
	firstChar := rune(s[0])
	if !((firstChar >= 'a' && firstChar <= 'z') ||
		(firstChar >= 'A' && firstChar <= 'Z') ||
		firstChar == '_' || firstChar == '$') {
		return false
	}

	// Check if remaining characters are valid (letters, digits, underscores, or dollar signs)
	for _, char := range s[1:] {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_' || char == '$') {
			return false
		}
	}

	return true
}

// propertyKey renders a property name as a TypeScript object key, quoting
// names that are not plain identifiers (JSON tags like "created-at").
func propertyKey(name string) string {
	key := lowerFirst(name)
	if isValidJSIdentifier(key) {
		return key
	}
	return quoteJS(key)
}

// requestURL renders the fetched URL as a string literal
func requestURL(baseURL, url string) string {
	if baseURL != "" {
		url = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(url, "/")
	}
	return quoteJS(url)
}

// quoteJS renders s as a double-quoted JavaScript string literal. Printable
// runes are kept as they are; everything else uses \u escapes, with the
// \u{...} form above the basic multilingual plane.
func quoteJS(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r == '\u2028' || r == '\u2029' || !unicode.IsPrint(r):
				if r > 0xFFFF {
					fmt.Fprintf(&b, `\u{%x}`, r)
				} else {
					fmt.Fprintf(&b, `\u%04x`, r)
				}
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
