package model

import (
	"fmt"
	"strings"

	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// primitives are the keyword types of the languages model files are dumped
// from. Everything else is a named type, including DateTime.
var primitives = map[string]bool{
	"bool": true, "byte": true, "sbyte": true, "char": true,
	"short": true, "ushort": true, "int": true, "uint": true,
	"long": true, "ulong": true, "float": true, "double": true,
	"decimal": true, "string": true, "object": true, "void": true,
	"dynamic": true, "nint": true, "nuint": true,

	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "rune": true, "any": true,
}

// collectionGenerics are the single-parameter generic types read as a
// collection of their argument.
var collectionGenerics = map[string]bool{
	"List":                true,
	"IList":               true,
	"IEnumerable":         true,
	"ICollection":         true,
	"IReadOnlyList":       true,
	"IReadOnlyCollection": true,
	"HashSet":             true,
	"ISet":                true,
	"Array":               true,
}

// ParseTypeRef classifies a type as spelled in source text: "int",
// "string?", "List<WeatherForecast>", "WeatherForecast[]".
func ParseTypeRef(text string) (types.TypeRef, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, fmt.Errorf("empty type")
	}

	if inner, ok := strings.CutSuffix(raw, "?"); ok {
		elem, err := ParseTypeRef(inner)
		if err != nil {
			return nil, err
		}
		return types.Nullable{Elem: elem, Raw: raw}, nil
	}

	if inner, ok := strings.CutSuffix(raw, "[]"); ok {
		elem, err := ParseTypeRef(inner)
		if err != nil {
			return nil, err
		}
		return types.Collection{Elem: elem, Raw: raw}, nil
	}

	if name, arg, ok := splitGeneric(raw); ok {
		switch {
		case name == "Nullable":
			elem, err := ParseTypeRef(arg)
			if err != nil {
				return nil, err
			}
			return types.Nullable{Elem: elem, Raw: raw}, nil
		case collectionGenerics[name] && !hasTopLevelComma(arg):
			elem, err := ParseTypeRef(arg)
			if err != nil {
				return nil, err
			}
			return types.Collection{Elem: elem, Raw: raw}, nil
		}
		// Dictionary<K, V> and friends stay opaque
		return types.Named{Name: raw}, nil
	}

	if strings.ContainsAny(raw, "<>,") {
		return nil, fmt.Errorf("malformed type %q", raw)
	}

	if primitives[raw] {
		return types.Primitive{Name: raw}, nil
	}
	return types.Named{Name: raw}, nil
}

// hasTopLevelComma reports whether s lists more than one type argument.
// Commas inside nested generic arguments do not count.
func hasTopLevelComma(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// splitGeneric splits "Name<Arg>" into its parts
func splitGeneric(s string) (name, arg string, ok bool) {
	open := strings.IndexByte(s, '<')
	if open <= 0 || !strings.HasSuffix(s, ">") {
		return "", "", false
	}
	name = s[:open]
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name, strings.TrimSpace(s[open+1 : len(s)-1]), true
}
