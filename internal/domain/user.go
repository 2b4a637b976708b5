package domain

import "time"

// User is the identity behind a local session. There is no password; the
// username is the only thing a login has to supply.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
