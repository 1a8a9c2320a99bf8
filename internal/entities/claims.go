package entities

// AuthClaims are the already-validated identity token claims handed to
// the service by the auth collaborator. Credentials are never checked
// here.
type AuthClaims struct {
	ID    string
	Name  string
	Email string
}
