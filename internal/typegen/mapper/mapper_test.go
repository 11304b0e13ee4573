package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPrimitive(t *testing.T) {
	tests := []struct {
		source   string
		nullable bool
		want     string
	}{
		{"int", false, "number"},
		{"long", false, "number"},
		{"float64", false, "number"},
		{"string", false, "string"},
		{"string", true, "string | null | undefined"},
		{"DateTime", false, "Date"},
		{"time.Time", true, "Date | null | undefined"},
		{"bool", false, "boolean"},
		{"Guid", false, "any"},
		{"Guid", true, "any | null | undefined"},
		{"", false, "any"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPrimitive(tt.source, tt.nullable))
		})
	}
}

func TestMapperOverrides(t *testing.T) {
	m := New(map[string]string{
		"Guid": "string",
		"int":  "bigint",
	})

	assert.Equal(t, "string", m.Map("Guid", false))
	assert.Equal(t, "bigint | null | undefined", m.Map("int", true))
	assert.Equal(t, "Date", m.Map("DateTime", false))

	_, ok := m.Lookup("WeatherForecast")
	assert.False(t, ok)
}

func TestArrayAndNullable(t *testing.T) {
	assert.Equal(t, "WeatherForecast[]", Array("WeatherForecast"))
	assert.Equal(t, "number | null | undefined", Nullable("number"))
}
