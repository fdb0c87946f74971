package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/queueless/queueless-go/internal/gateway"
	"github.com/queueless/queueless-go/internal/models"
)

type apiResponse struct {
	env *models.Envelope
	err error
}

// fakeAPI records requests and replays a scripted sequence of responses.
type fakeAPI struct {
	requests  []gateway.Request
	responses []apiResponse
}

func (f *fakeAPI) Do(_ context.Context, req gateway.Request) (*models.Envelope, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return &models.Envelope{Success: true}, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.env, next.err
}

type fakeStore struct {
	user  *models.User
	token string

	saveErr  error
	loadErr  error
	clearErr error

	saves          int
	clears         int
	clearEachCalls int
}

func (f *fakeStore) Save(user *models.User, token string) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.user, f.token = user, token
	return nil
}

func (f *fakeStore) Load() (*models.User, string, error) {
	if f.loadErr != nil {
		return nil, "", f.loadErr
	}
	return f.user, f.token, nil
}

func (f *fakeStore) Clear() error {
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.user, f.token = nil, ""
	return nil
}

func (f *fakeStore) ClearEach() error {
	f.clearEachCalls++
	f.user, f.token = nil, ""
	return nil
}

func envWith(t *testing.T, payload any) *models.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return &models.Envelope{Success: true, Data: data, StatusCode: 200}
}

func TestLogin_ValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty email", "", "secret", ErrEmailRequired},
		{"invalid email", "not-an-email", "secret", ErrInvalidEmail},
		{"empty password", "fan@example.com", "", ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			svc := NewService(api, &fakeStore{})

			err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if len(api.requests) != 0 {
				t.Errorf("Expected no network calls, got %d", len(api.requests))
			}
		})
	}
}

func TestLogin_NestedResponse(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{env: envWith(t, map[string]any{
		"token": "tok-1",
		"user": map[string]string{
			"id":    "u-1",
			"email": "fan@example.com",
			"name":  "Concert Fan",
		},
	})}}}
	store := &fakeStore{}
	svc := NewService(api, store)

	if err := svc.Login(context.Background(), "fan@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	session := svc.Session()
	if session.Status != StatusAuthenticated {
		t.Errorf("Expected authenticated, got %s", session.Status)
	}
	if session.User == nil || session.User.Name != "Concert Fan" {
		t.Errorf("Unexpected user: %+v", session.User)
	}
	if store.token != "tok-1" {
		t.Errorf("Expected session persisted, store token %q", store.token)
	}
}

func TestLogin_FlatResponseSynthesizesUser(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{env: envWith(t, map[string]any{
		"token":   "tok-2",
		"user_id": "u-9",
	})}}}
	svc := NewService(api, &fakeStore{})

	if err := svc.Login(context.Background(), "fan@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	user := svc.Session().User
	if user == nil {
		t.Fatal("Expected a synthesized user")
	}
	if user.ID != "u-9" {
		t.Errorf("Expected id from user_id fallback, got %q", user.ID)
	}
	if user.Email != "fan@example.com" {
		t.Errorf("Expected email to fall back to the input, got %q", user.Email)
	}
	if user.Name != "User" {
		t.Errorf("Expected default name, got %q", user.Name)
	}
	if user.CreatedAt == "" {
		t.Error("Expected a synthesized creation timestamp")
	}
}

func TestLogin_APIErrorRevertsToUnauthenticated(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{err: gateway.ErrNetwork}}}
	store := &fakeStore{}
	svc := NewService(api, store)
	before := svc.Generation()

	err := svc.Login(context.Background(), "fan@example.com", "secret")
	if !errors.Is(err, gateway.ErrNetwork) {
		t.Fatalf("Expected the gateway error back, got %v", err)
	}

	session := svc.Session()
	if session.Status != StatusUnauthenticated {
		t.Errorf("Expected unauthenticated, got %s", session.Status)
	}
	if session.LastError == "" {
		t.Error("Expected the failure reason recorded")
	}
	if svc.Generation() == before {
		t.Error("Expected the generation to advance on the failed transition")
	}
	if store.saves != 0 {
		t.Errorf("Expected nothing persisted, got %d saves", store.saves)
	}
}

func TestLogin_MalformedResponse(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{env: envWith(t, map[string]any{
		"user": map[string]string{"id": "u-1"},
	})}}}
	store := &fakeStore{}
	svc := NewService(api, store)

	err := svc.Login(context.Background(), "fan@example.com", "secret")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Expected ErrMalformedResponse, got %v", err)
	}
	if store.saves != 0 {
		t.Errorf("Expected nothing persisted, got %d saves", store.saves)
	}
}

func TestLogin_PersistFailureStillAuthenticates(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{env: envWith(t, map[string]any{
		"token": "tok-1",
		"user":  map[string]string{"id": "u-1", "email": "fan@example.com", "name": "Fan"},
	})}}}
	svc := NewService(api, &fakeStore{saveErr: errors.New("disk full")})

	if err := svc.Login(context.Background(), "fan@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if status := svc.Session().Status; status != StatusAuthenticated {
		t.Errorf("Expected authenticated despite persistence failure, got %s", status)
	}
}

func TestRegister_RequiresName(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, &fakeStore{})

	err := svc.Register(context.Background(), "", "fan@example.com", "secret", "")
	if !errors.Is(err, ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("Expected no network calls, got %d", len(api.requests))
	}
}

func TestRegister_ResponseCarriesSession(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{env: envWith(t, map[string]any{
		"token": "tok-new",
		"user":  map[string]string{"id": "u-2", "email": "new@example.com", "name": "New Fan"},
	})}}}
	svc := NewService(api, &fakeStore{})

	if err := svc.Register(context.Background(), "New Fan", "new@example.com", "secret", "0812"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if len(api.requests) != 1 {
		t.Fatalf("Expected a single call, got %d", len(api.requests))
	}
	if api.requests[0].Endpoint != gateway.EndpointRegister {
		t.Errorf("Unexpected endpoint %q", api.requests[0].Endpoint)
	}
	if svc.Session().Status != StatusAuthenticated {
		t.Error("Expected registration to establish the session")
	}
}

func TestRegister_FallsBackToLoginWithoutToken(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{
		{env: envWith(t, map[string]any{"id": "u-2"})}, // register: no token
		{env: envWith(t, map[string]any{
			"token": "tok-login",
			"user":  map[string]string{"id": "u-2", "email": "new@example.com", "name": "New Fan"},
		})},
	}}
	svc := NewService(api, &fakeStore{})

	if err := svc.Register(context.Background(), "New Fan", "new@example.com", "secret", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if len(api.requests) != 2 {
		t.Fatalf("Expected register then login, got %d calls", len(api.requests))
	}
	if api.requests[1].Endpoint != gateway.EndpointLogin {
		t.Errorf("Expected login follow-up, got %q", api.requests[1].Endpoint)
	}
	if svc.Session().Token != "tok-login" {
		t.Errorf("Expected the login token, got %q", svc.Session().Token)
	}
}

func TestLogout_ClearsStateBeforeBackendCall(t *testing.T) {
	api := &fakeAPI{responses: []apiResponse{{err: gateway.ErrNetwork}}}
	store := &fakeStore{user: &models.User{ID: "u-1", Email: "fan@example.com", Name: "Fan"}, token: "tok"}
	svc := NewService(api, store)
	svc.toAuthenticated(store.user, store.token)

	svc.Logout(context.Background())

	if status := svc.Session().Status; status != StatusUnauthenticated {
		t.Errorf("Expected unauthenticated despite backend failure, got %s", status)
	}
	if store.token != "" {
		t.Error("Expected credentials cleared")
	}
	if len(api.requests) != 1 || !api.requests[0].RequiresAuth {
		t.Errorf("Expected one authenticated logout call, got %+v", api.requests)
	}
}

func TestLogout_RetriesClearPerKey(t *testing.T) {
	store := &fakeStore{clearErr: errors.New("locked")}
	svc := NewService(&fakeAPI{}, store)

	svc.Logout(context.Background())

	if store.clearEachCalls != 1 {
		t.Errorf("Expected per-key retry after failed clear, got %d", store.clearEachCalls)
	}
}

func TestInitialize_EmptyStore(t *testing.T) {
	svc := NewService(&fakeAPI{}, &fakeStore{})

	svc.Initialize()

	if status := svc.Session().Status; status != StatusUnauthenticated {
		t.Errorf("Expected unauthenticated, got %s", status)
	}
}

func TestInitialize_RestoresPersistedSession(t *testing.T) {
	store := &fakeStore{
		user:  &models.User{ID: "u-1", Email: "fan@example.com", Name: "Fan"},
		token: "opaque-token",
	}
	svc := NewService(&fakeAPI{}, store)

	svc.Initialize()

	session := svc.Session()
	if session.Status != StatusAuthenticated {
		t.Fatalf("Expected authenticated, got %s", session.Status)
	}
	if session.Token != "opaque-token" || session.User.ID != "u-1" {
		t.Errorf("Unexpected restored session: %+v", session)
	}
}

func TestInitialize_StoreErrorResolvesUnauthenticated(t *testing.T) {
	svc := NewService(&fakeAPI{}, &fakeStore{loadErr: errors.New("io error")})

	svc.Initialize()

	if status := svc.Session().Status; status != StatusUnauthenticated {
		t.Errorf("Expected unauthenticated, got %s", status)
	}
}

func TestInitialize_ExpiredTokenClearedLocally(t *testing.T) {
	claims := jwt.MapClaims{"exp": jwt.NewNumericDate(time.Now().Add(-time.Hour))}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	store := &fakeStore{
		user:  &models.User{ID: "u-1", Email: "fan@example.com", Name: "Fan"},
		token: signed,
	}
	svc := NewService(&fakeAPI{}, store)

	svc.Initialize()

	if status := svc.Session().Status; status != StatusUnauthenticated {
		t.Errorf("Expected unauthenticated, got %s", status)
	}
	if store.clears != 1 {
		t.Errorf("Expected the stale pair cleared, got %d clears", store.clears)
	}
}

func TestHandleSessionExpired(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&fakeAPI{}, store)
	svc.toAuthenticated(&models.User{ID: "u-1", Email: "fan@example.com", Name: "Fan"}, "tok")
	before := svc.Generation()

	if !svc.HandleSessionExpired() {
		t.Fatal("Expected a live session to report interruption")
	}
	session := svc.Session()
	if session.Status != StatusUnauthenticated || session.LastError != "session expired" {
		t.Errorf("Unexpected state after expiry: %+v", session)
	}
	if svc.Generation() == before {
		t.Error("Expected the generation to advance")
	}

	// A second signal, or one arriving mid-logout, is swallowed.
	if svc.HandleSessionExpired() {
		t.Error("Expected no interrupt when already unauthenticated")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	future, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"exp": jwt.NewNumericDate(now.Add(time.Hour))}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": "u-1"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	past, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"exp": jwt.NewNumericDate(now.Add(-time.Minute))}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"opaque token", "not-a-jwt", false},
		{"future exp", future, false},
		{"no exp claim", noExp, false},
		{"past exp", past, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenExpired(tt.token, now); got != tt.want {
				t.Errorf("tokenExpired(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
