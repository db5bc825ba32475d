package common

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"math/big"
)

var verificationCodeSpace = big.NewInt(1_000_000)

// MakeVerificationCode draws uniformly from [0, 999999] using crypto/rand
// and formats the value as a zero-padded six digit string.
func MakeVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, verificationCodeSpace)
	if err != nil {
		return "", err
	}
	return FormatVerificationCode(n.Int64()), nil
}

// FormatVerificationCode renders v as a fixed-width decimal string, e.g. 7 -> "000007".
func FormatVerificationCode(v int64) string {
	return fmt.Sprintf("%0*d", VerificationCodeLength, v)
}

// IsVerificationCode reports whether s is exactly six ASCII digits.
func IsVerificationCode(s string) bool {
	if len(s) != VerificationCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// MakeRandToken returns n uppercase base32 characters drawn from crypto/rand.
func MakeRandToken(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*5+7)/8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return tokenEncoding.EncodeToString(b)[:n], nil
}
