// Package user defines account, profile and downstream conversion entities.
package user

import "time"

// User is a registered account. Visitors become users through the signup
// conversion path; an Intent gated on login resumes once this exists.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is a public link-in-bio page owned by exactly one user. Dashboard
// reads check ownership through UserID.
type Profile struct {
	ID        string    `json:"profile_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	StoreID   string    `json:"store_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Enquiry is a lead captured from a visitor: the first moment an anonymous
// journey gains an identity (email).
type Enquiry struct {
	ID        string    `json:"enquiry_id"`
	ProfileID string    `json:"profile_id"`
	SellerID  string    `json:"seller_id"`
	BlockID   string    `json:"block_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is the minimal commerce record a buy-flow intent links to.
type Order struct {
	ID        string    `json:"order_id"`
	ProfileID string    `json:"profile_id"`
	IntentID  string    `json:"intent_id,omitempty"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
