// Package models holds the persisted records of the booktag server.
package models

import "time"

// RegistrationState is the lifecycle of a QR code. Unregistered is the
// initial state and Registered is terminal.
type RegistrationState int

const (
	Unregistered RegistrationState = iota
	Registered
)

func (s RegistrationState) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether next is reachable from s.
// The only allowed transition is Unregistered -> Registered.
func (s RegistrationState) CanTransitionTo(next RegistrationState) bool {
	return s == Unregistered && next == Registered
}

// StateFromFlag maps the stored is_registered column onto a state.
func StateFromFlag(isRegistered bool) RegistrationState {
	if isRegistered {
		return Registered
	}
	return Unregistered
}

// QRCode is a pre-printed token that can be bound to an owner once.
// OwnerName, OwnerEmail and RegisteredAt are nil until State is Registered.
type QRCode struct {
	ID           string
	Code         string
	State        RegistrationState
	OwnerName    *string
	OwnerEmail   *string
	CreatedAt    time.Time
	RegisteredAt *time.Time
}

// IsRegistered mirrors the is_registered column.
func (q *QRCode) IsRegistered() bool {
	return q.State == Registered
}
