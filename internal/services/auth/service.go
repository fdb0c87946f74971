// Package auth owns the client authentication lifecycle: restore on
// startup, login, registration, logout and the session-expiry interrupt.
// It is the only component that mutates session state.
package auth

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/queueless/queueless-go/internal/gateway"
	"github.com/queueless/queueless-go/internal/models"
)

// API is the slice of the gateway this service uses.
type API interface {
	Do(ctx context.Context, req gateway.Request) (*models.Envelope, error)
}

// CredentialStore persists the session across restarts.
type CredentialStore interface {
	Save(user *models.User, token string) error
	Load() (*models.User, string, error)
	Clear() error
	ClearEach() error
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Service is the auth state machine.
type Service struct {
	api   API
	store CredentialStore
	now   func() time.Time

	mu      sync.Mutex
	session Session
}

// NewService creates the auth service in the uninitialized state.
func NewService(api API, store CredentialStore) *Service {
	return &Service{
		api:   api,
		store: store,
		now:   time.Now,
		session: Session{
			Status: StatusUninitialized,
		},
	}
}

// Session returns a snapshot of the current state. The embedded user is
// a copy; mutating it does not affect the service.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Generation returns the current session generation. Results of
// authenticated fetches started under an older generation are stale.
func (s *Service) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Generation
}

// Initialize restores the persisted session. Runs once at startup and
// never fails: store errors and corrupt or locally-expired tokens all
// resolve to the unauthenticated state.
func (s *Service) Initialize() {
	s.setStatus(StatusInitializing)

	user, token, err := s.store.Load()
	if err != nil {
		log.Printf("auth: failed to read credential store: %v", err)
		s.toUnauthenticated("")
		return
	}
	if user == nil || token == "" {
		s.toUnauthenticated("")
		return
	}

	if tokenExpired(token, s.now()) {
		if err := s.store.Clear(); err != nil {
			log.Printf("auth: failed to clear expired session: %v", err)
		}
		s.toUnauthenticated("")
		return
	}

	s.toAuthenticated(user, token)
}

// Login authenticates with email and password. Validation failures are
// returned before any network call. On success the session is persisted
// and published as authenticated; on any other failure the state
// reverts to unauthenticated and the error is returned for display.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := validateLogin(email, password); err != nil {
		return err
	}

	s.setStatus(StatusLoggingIn)

	env, err := s.api.Do(ctx, gateway.Request{
		Method:   http.MethodPost,
		Endpoint: gateway.EndpointLogin,
		Body:     credentials{Email: email, Password: password},
	})
	if err != nil {
		s.toUnauthenticated(err.Error())
		return err
	}

	user, token, err := decodeAuth(env.Data, email)
	if err != nil {
		s.toUnauthenticated(err.Error())
		return err
	}

	s.establish(user, token)
	return nil
}

// Register creates an account and establishes a session. When the
// registration response does not already carry a token, a follow-up
// login with the same credentials completes the session.
func (s *Service) Register(ctx context.Context, name, email, password, phone string) error {
	if name == "" {
		return ErrNameRequired
	}
	if err := validateLogin(email, password); err != nil {
		return err
	}

	s.setStatus(StatusLoggingIn)

	env, err := s.api.Do(ctx, gateway.Request{
		Method:   http.MethodPost,
		Endpoint: gateway.EndpointRegister,
		Body: registration{
			Name:        name,
			Email:       email,
			Password:    password,
			PhoneNumber: phone,
		},
	})
	if err != nil {
		s.toUnauthenticated(err.Error())
		return err
	}

	user, token, err := decodeAuth(env.Data, email)
	if err != nil {
		// Registration succeeded but returned no session; log in.
		return s.Login(ctx, email, password)
	}

	s.establish(user, token)
	return nil
}

// Logout tears the session down optimistically: the in-memory state
// transitions first and is never reverted. Clearing the store is
// retried once per key on failure; the backend notification is fire
// and forget.
func (s *Service) Logout(ctx context.Context) {
	s.setStatus(StatusLoggingOut)
	s.toUnauthenticated("")

	if err := s.store.Clear(); err != nil {
		log.Printf("auth: failed to clear credentials: %v", err)
		if err := s.store.ClearEach(); err != nil {
			log.Printf("auth: per-key clear failed: %v", err)
		}
	}

	if _, err := s.api.Do(ctx, gateway.Request{
		Method:       http.MethodPost,
		Endpoint:     gateway.EndpointLogout,
		RequiresAuth: true,
	}); err != nil {
		// Best effort only.
		log.Printf("auth: backend logout failed: %v", err)
	}
}

// HandleSessionExpired consumes the gateway's 401 signal. It reports
// whether the signal interrupted a live session; the caller shows the
// session-expired interrupt only when it did. The gateway has already
// cleared the stored token by the time this runs.
func (s *Service) HandleSessionExpired() bool {
	s.mu.Lock()
	live := s.session.Status != StatusUnauthenticated
	s.mu.Unlock()
	if !live {
		return false
	}

	s.toUnauthenticated("session expired")

	if err := s.store.Clear(); err != nil {
		log.Printf("auth: failed to clear credentials: %v", err)
	}
	return true
}

// establish persists the pair and publishes the authenticated state.
// Persistence failure is logged and abandoned; the in-memory session
// still comes up so the running process works until restart.
func (s *Service) establish(user *models.User, token string) {
	if err := s.store.Save(user, token); err != nil {
		log.Printf("auth: failed to persist session: %v", err)
	}
	s.toAuthenticated(user, token)
}

func (s *Service) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Status = status
}

func (s *Service) toAuthenticated(user *models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = user
	s.session.Token = token
	s.session.Status = StatusAuthenticated
	s.session.LastError = ""
}

func (s *Service) toUnauthenticated(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = nil
	s.session.Token = ""
	s.session.Status = StatusUnauthenticated
	s.session.LastError = reason
	s.session.Generation++
}

func (s *Service) snapshot() Session {
	snap := s.session
	if s.session.User != nil {
		user := *s.session.User
		snap.User = &user
	}
	return snap
}

func validateLogin(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}
