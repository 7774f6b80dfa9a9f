package model

const (
	scopeBuyerPrefix = "buyer:"
	scopeGuestPrefix = "guest:"
	defaultGuest     = "anonymous"
)

// Buyer is the identity supplied by the authentication layer. Email is empty
// for unauthenticated callers, who are told apart by GuestSession.
type Buyer struct {
	ID           string
	Email        string
	Name         string
	GuestSession string
}

func (b Buyer) Authenticated() bool {
	return b.Email != ""
}

// Scope namespaces every piece of local state belonging to b. Authenticated
// and guest scopes never collide.
func (b Buyer) Scope() string {
	if b.Authenticated() {
		return scopeBuyerPrefix + b.Email
	}
	if b.GuestSession == "" {
		return scopeGuestPrefix + defaultGuest
	}
	return scopeGuestPrefix + b.GuestSession
}
