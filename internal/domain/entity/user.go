package entity

import "time"

// User is an organizational identity. SupervisorID is a self-referential edge
// forming a forest; the hierarchy resolver walks it and the directory write
// path rejects assignments that would create a cycle.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	SupervisorID *int64    `json:"supervisor_id,omitempty"`
	Active       bool      `json:"active"`
	IsAdmin      bool      `json:"is_admin"`
	CanPurchase  bool      `json:"can_purchase"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
