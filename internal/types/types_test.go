package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Cell
	}{
		{"Blank", "  ", Empty{}},
		{"Integer", "42", Number{Value: 42, Raw: "42"}},
		{"Leading zeros kept in Raw", "007", Number{Value: 7, Raw: "007"}},
		{"Decimal", " 1.5 ", Number{Value: 1.5, Raw: "1.5"}},
		{"Dash", "-", Text("-")},
		{"NaN spelled as a word", "Nan", Text("Nan")},
		{"Infinity", "inf", Text("inf")},
		{"Signed infinity", "-Infinity", Text("-Infinity")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewCell(tt.input))
		})
	}
}
