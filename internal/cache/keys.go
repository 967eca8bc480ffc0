package cache

import "strings"

// OTPKey is the slot holding the pending passcode for an email.
func OTPKey(prefix, email string) string {
	return prefix + ":" + strings.TrimSpace(email)
}

// ProfileKey is the slot holding the serialised profile for an account.
func ProfileKey(prefix, accountID string) string {
	return prefix + ":" + accountID
}
