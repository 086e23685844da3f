package domain

import "time"

// ChallengeTTL bounds how long an issued verification challenge stays
// redeemable. Validation is lazy; nothing purges challenges ahead of time.
const ChallengeTTL = 10 * time.Minute

// Challenge is a one-time passcode issued against a contact address. A
// contact may hold several outstanding challenges at once; redeeming any one
// of them consumes them all.
type Challenge struct {
	Contact   string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}
