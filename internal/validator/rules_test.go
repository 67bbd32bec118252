package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0781234567", "0781234567"},
		{"+250781234567", "0781234567"},
		{"250781234567", "0781234567"},
		{"+250 781 234 567", "0781234567"},
		{"078-123-4567", "0781234567"},
		{"12345", "12345"}, // unknown shapes pass through unchanged
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), tc.in)
	}
}

func TestIsValidRwandanPhone(t *testing.T) {
	valid := []string{
		"0781234567",
		"0721234567",
		"+250781234567",
		"250731234567",
		"078 123 4567",
	}
	for _, phone := range valid {
		assert.True(t, IsValidRwandanPhone(phone), phone)
	}

	invalid := []string{
		"",
		"078123456",    // too short
		"07812345678",  // too long
		"1781234567",   // wrong prefix
		"0881234567",   // not a mobile prefix
		"25078123456",  // truncated international form
		"+25078123456", // truncated international form
		"o781234567",   // letter instead of digit
	}
	for _, phone := range invalid {
		assert.False(t, IsValidRwandanPhone(phone), phone)
	}
}
