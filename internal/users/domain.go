package users

import "time"

// AccountUser models a registered user who may hold accounts. The account
// system only reads users; registration lives elsewhere.
type AccountUser struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
