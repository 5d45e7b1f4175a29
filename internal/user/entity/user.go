package entity

import "time"

// User represents an account row in the `users` table.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	PasswordAlgo *string   `db:"password_algo"`
	Version      int64     `db:"version"` // bumped to invalidate issued session tokens
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// MinimalAuthView is the minimal projection required for token claim hydration.
type MinimalAuthView struct {
	ID      string `db:"id" json:"id"`
	Email   string `db:"email" json:"email"`
	Version int64  `db:"version" json:"-"`
}
