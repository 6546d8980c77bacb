package auth

import (
	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/repos/users"
)

func HasRole(a users.Account, role users.Role) bool {
	return a.IsActive && a.Role == role
}

// IsResourceOwner reports whether a is the seller who listed p.
func IsResourceOwner(a users.Account, p products.Product) bool {
	return HasRole(a, users.RoleSeller) && a.ID == p.SellerID
}
