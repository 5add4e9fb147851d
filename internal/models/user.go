package models

// AuthUser is the slice of identity this service sees. Users are fully owned
// by the hosted auth provider; we only ever reference them by ID.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
