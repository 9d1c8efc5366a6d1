package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCNPJ(t *testing.T) {
	// Known valid fixture (11.222.333/0001-81)
	assert.True(t, IsValidCNPJ("11222333000181"))
	assert.True(t, IsValidCNPJ("11.222.333/0001-81"))

	// Repeated digits pass the check-digit math but are rejected
	assert.False(t, IsValidCNPJ("00000000000000"))
	assert.False(t, IsValidCNPJ("11111111111111"))

	// Wrong check digits
	assert.False(t, IsValidCNPJ("11222333000182"))
	assert.False(t, IsValidCNPJ("11222333000191"))

	// Wrong length
	assert.False(t, IsValidCNPJ(""))
	assert.False(t, IsValidCNPJ("1122233300018"))
	assert.False(t, IsValidCNPJ("112223330001811"))
}

func TestNormalizeCNPJ(t *testing.T) {
	assert.Equal(t, "11222333000181", NormalizeCNPJ("11.222.333/0001-81"))
	assert.Equal(t, "11222333000181", NormalizeCNPJ("11222333000181"))
	assert.Equal(t, "", NormalizeCNPJ("abc"))
}

func TestFormatCNPJ(t *testing.T) {
	assert.Equal(t, "11.222.333/0001-81", FormatCNPJ("11222333000181"))
	// Not 14 digits: unchanged
	assert.Equal(t, "123", FormatCNPJ("123"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(11) 99999-8888", FormatPhone("11999998888"))
	assert.Equal(t, "(11) 3333-4444", FormatPhone("1133334444"))

	// Any other length is returned unchanged
	assert.Equal(t, "119999", FormatPhone("119999"))
	assert.Equal(t, "", FormatPhone(""))
	assert.Equal(t, "119999988881", FormatPhone("119999988881"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("maria@empresa.com.br"))
	assert.True(t, IsValidEmail("joao.silva+rh@example.org"))

	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("a@"))
	assert.False(t, IsValidEmail("@b.com"))
}
