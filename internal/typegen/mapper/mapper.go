package mapper

// Client-side type names produced by the mapper
const (
	TypeNumber   = "number"
	TypeString   = "string"
	TypeBoolean  = "boolean"
	TypeDate     = "Date"
	TypeFallback = "any"

	nullableSuffix = " | null | undefined"
)

// builtins is the closed table of source primitives the mapper understands.
// Names cover both C#-style declaration models and Go source.
var builtins = map[string]string{
	// integer and floating point
	"int":     TypeNumber,
	"long":    TypeNumber,
	"short":   TypeNumber,
	"byte":    TypeNumber,
	"sbyte":   TypeNumber,
	"uint":    TypeNumber,
	"ulong":   TypeNumber,
	"ushort":  TypeNumber,
	"int8":    TypeNumber,
	"int16":   TypeNumber,
	"int32":   TypeNumber,
	"int64":   TypeNumber,
	"uint8":   TypeNumber,
	"uint16":  TypeNumber,
	"uint32":  TypeNumber,
	"uint64":  TypeNumber,
	"float":   TypeNumber,
	"float32": TypeNumber,
	"float64": TypeNumber,
	"double":  TypeNumber,
	"decimal": TypeNumber,

	// text
	"string": TypeString,
	"char":   TypeString,
	"rune":   TypeString,

	"bool": TypeBoolean,

	// date and time
	"DateTime":       TypeDate,
	"DateTimeOffset": TypeDate,
	"DateOnly":       TypeDate,
	"time.Time":      TypeDate,
}

// Mapper maps source type names to client type names. The zero value uses
// the built-in table only.
type Mapper struct {
	overrides map[string]string
}

// New creates a Mapper. Entries in overrides take precedence over the
// built-in table.
func New(overrides map[string]string) *Mapper {
	m := &Mapper{overrides: make(map[string]string, len(overrides))}
	for k, v := range overrides {
		m.overrides[k] = v
	}
	return m
}

// Map returns the client type for sourceName. Unknown names map to the
// fallback type; the mapper never fails.
func (m *Mapper) Map(sourceName string, nullable bool) string {
	mapped, ok := m.Lookup(sourceName)
	if !ok {
		mapped = TypeFallback
	}
	if nullable {
		return mapped + nullableSuffix
	}
	return mapped
}

// Lookup reports the client type for sourceName and whether it is known.
func (m *Mapper) Lookup(sourceName string) (string, bool) {
	if m != nil {
		if mapped, ok := m.overrides[sourceName]; ok {
			return mapped, true
		}
	}
	mapped, ok := builtins[sourceName]
	return mapped, ok
}

// MapPrimitive maps sourceName with the built-in table only
func MapPrimitive(sourceName string, nullable bool) string {
	var m *Mapper
	return m.Map(sourceName, nullable)
}

// Nullable appends the nullable qualifier to an already mapped type
func Nullable(clientType string) string {
	return clientType + nullableSuffix
}

// Array wraps an already mapped element type as an array
func Array(elemType string) string {
	return elemType + "[]"
}
