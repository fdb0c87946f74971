package auth

import "github.com/queueless/queueless-go/internal/models"

// Status enumerates the authentication lifecycle states.
type Status string

const (
	StatusUninitialized   Status = "uninitialized"
	StatusInitializing    Status = "initializing"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	StatusLoggingIn       Status = "logging_in"
	StatusLoggingOut      Status = "logging_out"
)

// Session is a snapshot of the authentication state. User and Token are
// both set exactly when Status is StatusAuthenticated, and both empty
// when it is StatusUnauthenticated.
//
// Generation increments on every transition out of the authenticated
// state. Callers applying results of authenticated fetches should
// compare generations and discard results taken under an older one.
type Session struct {
	User       *models.User
	Token      string
	Status     Status
	LastError  string
	Generation uint64
}

// Authenticated reports whether the snapshot holds a live session.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
