package auth

import (
	"github.com/diamondaura/storefront/internal/domain"
)

// Principal is the authenticated identity of the current request.
// Services receive it explicitly; a nil Principal means anonymous.
type Principal struct {
	IdentityID int64  `json:"identity_id,string"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	// CustomerID is zero for admins
	CustomerID int64 `json:"customer_id,string,omitempty"`
}

// IsAdmin never fails; anonymous and customer principals are simply not admins
func IsAdmin(p *Principal) bool {
	return p != nil && p.IdentityID != 0 && p.Role == domain.RoleAdmin
}

// IsCustomer reports whether p may use the cart and order flow
func IsCustomer(p *Principal) bool {
	return p != nil && p.IdentityID != 0 && p.Role == domain.RoleCustomer && p.CustomerID != 0
}

// RequireAdmin returns domain.ErrForbidden unless p is an admin
func RequireAdmin(p *Principal) error {
	if !IsAdmin(p) {
		return domain.ErrForbidden
	}
	return nil
}

// RequireCustomer returns domain.ErrUnauthenticated unless p is a customer
func RequireCustomer(p *Principal) error {
	if !IsCustomer(p) {
		return domain.ErrUnauthenticated
	}
	return nil
}
