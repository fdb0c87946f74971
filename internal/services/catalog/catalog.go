// Package catalog provides the session-scoped concert and
// payment-method cache. Reads go through the gateway on miss and are
// cached in memory; a refresh replaces the cached value wholesale.
package catalog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/queueless/queueless-go/internal/gateway"
	"github.com/queueless/queueless-go/internal/models"
)

// API is the slice of the gateway the catalog uses.
type API interface {
	Do(ctx context.Context, req gateway.Request) (*models.Envelope, error)
}

// Service is the read-through catalog cache.
type Service struct {
	api API
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	concerts   *cached[[]models.Concert]
	concertOne map[string]*cached[models.Concert]
	methods    *cached[[]models.PaymentMethod]
	methodOne  map[string]*cached[models.PaymentMethod]
}

type cached[T any] struct {
	value     T
	fetchedAt time.Time
}

// NewService creates a catalog cache. ttl <= 0 selects five minutes.
func NewService(api API, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		api:        api,
		ttl:        ttl,
		now:        time.Now,
		concertOne: make(map[string]*cached[models.Concert]),
		methodOne:  make(map[string]*cached[models.PaymentMethod]),
	}
}

// Concerts returns the concert list, from cache when fresh.
func (s *Service) Concerts(ctx context.Context) ([]models.Concert, error) {
	s.mu.RLock()
	if fresh(s.concerts, s.now(), s.ttl) {
		out := s.concerts.value
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	var concerts []models.Concert
	if err := s.fetch(ctx, gateway.EndpointConcerts, &concerts); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.concerts = &cached[[]models.Concert]{value: concerts, fetchedAt: s.now()}
	s.mu.Unlock()
	return concerts, nil
}

// ConcertByID returns one concert's detail, from cache when fresh.
func (s *Service) ConcertByID(ctx context.Context, id string) (*models.Concert, error) {
	s.mu.RLock()
	if entry, ok := s.concertOne[id]; ok && fresh(entry, s.now(), s.ttl) {
		out := entry.value
		s.mu.RUnlock()
		return &out, nil
	}
	s.mu.RUnlock()

	var concert models.Concert
	if err := s.fetch(ctx, gateway.EndpointConcertByID+id, &concert); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.concertOne[id] = &cached[models.Concert]{value: concert, fetchedAt: s.now()}
	s.mu.Unlock()
	return &concert, nil
}

// PaymentMethods returns the payment-method list, from cache when
// fresh.
func (s *Service) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	s.mu.RLock()
	if fresh(s.methods, s.now(), s.ttl) {
		out := s.methods.value
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	var methods []models.PaymentMethod
	if err := s.fetch(ctx, gateway.EndpointPaymentMethods, &methods); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.methods = &cached[[]models.PaymentMethod]{value: methods, fetchedAt: s.now()}
	s.mu.Unlock()
	return methods, nil
}

// PaymentMethodByID returns one payment method, from cache when fresh.
func (s *Service) PaymentMethodByID(ctx context.Context, id string) (*models.PaymentMethod, error) {
	s.mu.RLock()
	if entry, ok := s.methodOne[id]; ok && fresh(entry, s.now(), s.ttl) {
		out := entry.value
		s.mu.RUnlock()
		return &out, nil
	}
	s.mu.RUnlock()

	var method models.PaymentMethod
	if err := s.fetch(ctx, gateway.EndpointPaymentMethodByID+id, &method); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.methodOne[id] = &cached[models.PaymentMethod]{value: method, fetchedAt: s.now()}
	s.mu.Unlock()
	return &method, nil
}

// Invalidate drops everything cached. Called on logout; the catalog is
// session-scoped.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concerts = nil
	s.methods = nil
	s.concertOne = make(map[string]*cached[models.Concert])
	s.methodOne = make(map[string]*cached[models.PaymentMethod])
}

func (s *Service) fetch(ctx context.Context, endpoint string, v any) error {
	env, err := s.api.Do(ctx, gateway.Request{
		Method:       http.MethodGet,
		Endpoint:     endpoint,
		RequiresAuth: true,
	})
	if err != nil {
		return err
	}
	return env.Decode(v)
}

func fresh[T any](entry *cached[T], now time.Time, ttl time.Duration) bool {
	return entry != nil && now.Sub(entry.fetchedAt) < ttl
}
