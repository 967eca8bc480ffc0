// Package queue defines message payloads exchanged over the message broker.
package queue

// OTPRequestedEvent is published whenever a passcode is issued for an email.
// Consumers deliver the passcode out of band.
type OTPRequestedEvent struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	RequestedAt string `json:"requested_at"`
}
