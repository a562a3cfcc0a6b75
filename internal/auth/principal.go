package auth

// Principal is the identity a request acts as. A guest principal (not
// logged in) is a valid principal; handlers never pass a nil identity.
type Principal struct {
	// ID is the user id (0 for guests)
	ID int64

	// Name is the login name ("guest" for anonymous requests)
	Name string

	// LoggedIn reports whether the principal authenticated
	LoggedIn bool

	// Superuser bypasses page-level permission checks
	Superuser bool

	// Permissions is the set of permission names granted to the principal
	Permissions map[string]bool
}

// GuestPrincipal returns the anonymous principal used when no session is
// present
func GuestPrincipal() Principal {
	return Principal{Name: "guest"}
}

// Has reports whether the principal holds the named permission
func (p Principal) Has(permission string) bool {
	if p.Superuser {
		return true
	}
	return p.Permissions[permission]
}
