package models

// Identity is the backend user profile behind a storefront session. Facts
// only; it is rebuilt on every request and never stored.
type Identity struct {
	ID    string
	Email string
	Name  string
	Phone string
}

// IdentityResult is what the identity resolver hands to the checkout flow.
// Identity is nil unless Authenticated is true.
type IdentityResult struct {
	Authenticated bool
	Identity      *Identity
}

// Anonymous is the result for guests and for any identity lookup failure.
var Anonymous = IdentityResult{}

// UserID returns the external id, or "" for guests.
func (r IdentityResult) UserID() string {
	if !r.Authenticated || r.Identity == nil {
		return ""
	}
	return r.Identity.ID
}
