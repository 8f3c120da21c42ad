package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapCountry(t *testing.T) {
	cases := []struct {
		country string
		code    string
		ok      bool
	}{
		{"Bolivia", "BOL", true},
		{"bolivia", "BOL", true},
		{"  El Salvador  ", "SLV", true},
		{"Panama", "PAN", true},
		{"Mexico", "MEX", true},
		{"Argentina", "ARG", true},
		{"Atlantis", "", false},
	}

	for _, tc := range cases {
		code, ok := MapCountry(tc.country)
		assert.Equal(t, tc.ok, ok, tc.country)
		assert.Equal(t, tc.code, code, tc.country)
	}
}

func TestMapSubdivision(t *testing.T) {
	t.Run("maps known subdivisions", func(t *testing.T) {
		code, ok := MapSubdivision("Bolivia", "Cochabamba")
		assert.True(t, ok)
		assert.Equal(t, "C", code)

		code, ok = MapSubdivision("bolivia", "La Paz")
		assert.True(t, ok)
		assert.Equal(t, "L", code)

		code, ok = MapSubdivision("El Salvador", "San Salvador")
		assert.True(t, ok)
		assert.Equal(t, "SS", code)
	})

	t.Run("handles accented and unaccented spellings", func(t *testing.T) {
		accented, ok := MapSubdivision("Bolivia", "Potosí")
		assert.True(t, ok)
		plain, ok2 := MapSubdivision("Bolivia", "Potosi")
		assert.True(t, ok2)
		assert.Equal(t, accented, plain)
	})

	t.Run("reports unknown subdivisions", func(t *testing.T) {
		_, ok := MapSubdivision("Bolivia", "Gotham")
		assert.False(t, ok)

		_, ok = MapSubdivision("Atlantis", "Cochabamba")
		assert.False(t, ok)
	})
}
