package entity

import "time"

// TokenPurpose is the closed set of out-of-band token kinds.
type TokenPurpose string

const (
	PurposeVerification  TokenPurpose = "email_verification"
	PurposePasswordReset TokenPurpose = "password_reset"
)

func (p TokenPurpose) Valid() bool {
	return p == PurposeVerification || p == PurposePasswordReset
}

func (p TokenPurpose) TTL() time.Duration {
	if p == PurposePasswordReset {
		return time.Hour
	}
	return 24 * time.Hour
}

// LinkPath is the client route the raw secret is appended to.
func (p TokenPurpose) LinkPath() string {
	if p == PurposePasswordReset {
		return "reset-password"
	}
	return "verify-email"
}

func (p TokenPurpose) Subject() string {
	if p == PurposePasswordReset {
		return "Password Reset - AuthKit"
	}
	return "Email Verification - AuthKit"
}

func (p TokenPurpose) ReplyTo() string {
	if p == PurposePasswordReset {
		return "noreply@noreply.com"
	}
	return "noreply@gmail.com"
}

func (p TokenPurpose) Template() string {
	if p == PurposePasswordReset {
		return "forgotPassword"
	}
	return "emailVerification"
}

// SecretToken is an outstanding single-use credential. Only the lookup hash of the
// raw secret is kept.
type SecretToken struct {
	ID        string
	AccountID string
	Purpose   TokenPurpose
	Hash      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *SecretToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
