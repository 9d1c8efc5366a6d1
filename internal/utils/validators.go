package utils

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// NormalizeCNPJ strips everything but digits from a CNPJ string
func NormalizeCNPJ(cnpj string) string {
	return nonDigitRegex.ReplaceAllString(cnpj, "")
}

// IsValidCNPJ validates a CNPJ (digits only or punctuated) using the
// official check-digit algorithm
func IsValidCNPJ(cnpj string) bool {
	cnpj = NormalizeCNPJ(cnpj)
	if len(cnpj) != 14 {
		return false
	}
	// Strings like "00000000000000" pass the check digits but are not valid
	if allDigitsEqual(cnpj) {
		return false
	}

	// First check digit
	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(cnpj[i]-'0') * weights1[i]
	}
	digit1 := 0
	if remainder := sum % 11; remainder >= 2 {
		digit1 = 11 - remainder
	}
	if int(cnpj[12]-'0') != digit1 {
		return false
	}

	// Second check digit
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum = 0
	for i := 0; i < 13; i++ {
		sum += int(cnpj[i]-'0') * weights2[i]
	}
	digit2 := 0
	if remainder := sum % 11; remainder >= 2 {
		digit2 = 11 - remainder
	}
	return int(cnpj[13]-'0') == digit2
}

func allDigitsEqual(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// FormatCNPJ renders a 14-digit CNPJ as 00.000.000/0000-00.
// Anything that is not 14 digits long is returned unchanged.
func FormatCNPJ(cnpj string) string {
	digits := NormalizeCNPJ(cnpj)
	if len(digits) != 14 {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s",
		digits[0:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14])
}

// FormatPhone formats Brazilian phone numbers:
// 11 digits -> (11) 99999-8888, 10 digits -> (11) 3333-4444.
// Any other length is returned unchanged.
func FormatPhone(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	switch len(digits) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[0:2], digits[2:7], digits[7:11])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:2], digits[2:6], digits[6:10])
	default:
		return phone
	}
}

// IsValidEmail validates e-mail format using net/mail. ParseAddress is
// lenient about display names, so the parsed address must round-trip.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	return true
}
