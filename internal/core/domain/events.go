package domain

import "time"

// AccountRegisteredEvent represents the payload for accounts.user.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	Role         Role
	Status       AccountStatus
	RegisteredAt time.Time
}

// AccountVerifiedEvent represents the payload for accounts.user.verified messages.
type AccountVerifiedEvent struct {
	EventID    string
	AccountID  string
	Email      string
	VerifiedAt time.Time
}

// AccountDeletedEvent represents the payload for accounts.user.deleted messages.
type AccountDeletedEvent struct {
	EventID   string
	AccountID string
	Username  string
	DeletedBy string
	DeletedAt time.Time
}
