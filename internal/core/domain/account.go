package domain

import "time"

// AccountStatus enumerates account lifecycle states.
type AccountStatus string

const (
	AccountStatusPending AccountStatus = "pending"
	AccountStatusActive  AccountStatus = "active"
)

// Role identifies the tenant class an account belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User mirrors the persisted representation in the accounts.users table.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Status       AccountStatus
	RegisteredAt time.Time

	Name        *string
	Location    *string
	Age         *int
	Occupation  *string
	DateOfBirth *time.Time
	Description *string
}

// Admin mirrors the persisted representation in the accounts.admins table.
// Admins share the user shape minus profile fields and live in their own
// uniqueness namespace.
type Admin struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Status       AccountStatus
	RegisteredAt time.Time
}

// ProfileUpdate carries a partial profile change. Nil fields are left
// untouched by the store.
type ProfileUpdate struct {
	Name        *string
	Location    *string
	Age         *int
	Occupation  *string
	DateOfBirth *time.Time
	Description *string
}

// Empty reports whether the update carries no fields at all.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil &&
		p.Location == nil &&
		p.Age == nil &&
		p.Occupation == nil &&
		p.DateOfBirth == nil &&
		p.Description == nil
}
