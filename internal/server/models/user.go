package models

import "time"

// User is an account whose email may be proven through a verification code.
// VerificationCode and VerificationCodeExpires are both set or both nil.
type User struct {
	ID                      string
	Name                    string
	Email                   string
	IsVerified              bool
	VerificationCode        *string
	VerificationCodeExpires *time.Time
	CreatedAt               time.Time
}

// HasOutstandingCode reports whether a verification attempt is pending.
func (u *User) HasOutstandingCode() bool {
	return u.VerificationCode != nil && u.VerificationCodeExpires != nil
}
