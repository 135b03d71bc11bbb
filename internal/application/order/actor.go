package order

// Actor identifies who is performing an operation. Handlers resolve it once
// per request from the session header and the JWT, and services use it for
// ownership checks. Staff actors may operate on any order.
type Actor struct {
	AccountID string
	SessionID string
	Staff     bool
}

// Authenticated reports whether the actor carries an account identity
func (a Actor) Authenticated() bool {
	return a.AccountID != ""
}

// Identity returns the best identifier for audit rows
func (a Actor) Identity() string {
	if a.AccountID != "" {
		return a.AccountID
	}
	if a.SessionID != "" {
		return "session:" + a.SessionID
	}
	return "anonymous"
}
