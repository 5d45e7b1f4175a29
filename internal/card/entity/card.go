package entity

import "time"

// Card is one row of the id_cards table. Optional columns are stored as
// NULL and read back as empty strings.
type Card struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	FullName         string    `db:"full_name" json:"full_name"`
	DOB              string    `db:"dob" json:"dob"` // YYYY-MM-DD
	PhoneNumber      string    `db:"phone_number" json:"phone_number"`
	Email            string    `db:"email" json:"email,omitempty"`
	OrganizationName string    `db:"organization_name" json:"organization_name,omitempty"`
	PhotoURL         string    `db:"photo_url" json:"photo_url"`
	SignatureURL     string    `db:"signature_url" json:"signature_url,omitempty"`
	IDNumber         string    `db:"id_number" json:"id_number"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Fields are the user-editable text columns of a card.
type Fields struct {
	FullName         string `json:"full_name"`
	DOB              string `json:"dob"`
	PhoneNumber      string `json:"phone_number"`
	Email            string `json:"email"`
	OrganizationName string `json:"organization_name"`
}
