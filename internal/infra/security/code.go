package security

import (
	"crypto/rand"
	"fmt"
)

// OTPCodeLength is the fixed length of verification codes.
const OTPCodeLength = 8

// otpAlphabet is the fixed alphabet verification codes are drawn from.
const otpAlphabet = "0123456789abcdef"

// GenerateOTPCode returns a random fixed-length code drawn from the OTP
// alphabet using crypto/rand.
func GenerateOTPCode() (string, error) {
	buf := make([]byte, OTPCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	code := make([]byte, OTPCodeLength)
	for i, b := range buf {
		code[i] = otpAlphabet[int(b)%len(otpAlphabet)]
	}

	return string(code), nil
}
