package model

import "time"

// OTPPurpose restricts what a one-time code may be used for.
type OTPPurpose string

const (
	OTPPurposeVerification  OTPPurpose = "verification"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeVerification || p == OTPPurposePasswordReset
}

// OTPRecord is the per-address one-time-code state. Codes are kept as strings
// so a leading zero survives storage and comparison.
type OTPRecord struct {
	Code       string     `json:"code"`
	Purpose    OTPPurpose `json:"purpose"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}
