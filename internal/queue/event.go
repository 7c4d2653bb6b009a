// Package queue defines message payloads exchanged over the message broker
// and the consumer that writes them to the audit log.
package queue

import "time"

// AuthEventsQueue is the durable queue all auth events are routed to.
const AuthEventsQueue = "auth.events"

// Event types.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
	EventLoginFailed    = "user.login_failed"
)

// AuthEvent is published after registrations and login attempts. It never
// carries a password, a hash or a token. Failed logins carry no email so
// the audit trail cannot be used to enumerate accounts.
type AuthEvent struct {
	Type       string   `json:"type"`
	UserID     string   `json:"user_id,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	RemoteIP   string   `json:"remote_ip,omitempty"`
	RequestID  string   `json:"request_id,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}

// NewAuthEvent stamps an event of the given type with the current UTC time.
func NewAuthEvent(typ string) AuthEvent {
	return AuthEvent{Type: typ, OccurredAt: time.Now().UTC().Format(time.RFC3339)}
}
