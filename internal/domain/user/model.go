package user

import (
	"strings"
	"time"
)

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	UserID string
	Email  string
}

// User is the local record for an identity-provider subject.
type User struct {
	ID          string
	IdentityKey string
	DisplayName string
	CreatedAt   time.Time
}

// NormalizeIdentityKey trims surrounding space; identity keys are otherwise opaque.
func NormalizeIdentityKey(key string) string {
	return strings.TrimSpace(key)
}
