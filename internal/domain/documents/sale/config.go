package sale

// Config controls deployment-specific sale behavior.
type Config struct {
	// RequireOpenSession rejects sale creation with NoOpenSession when no
	// cash register session is open. Off by default: sales made outside a
	// session simply carry no session attribution.
	RequireOpenSession bool
}
