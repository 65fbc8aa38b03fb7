package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"coffeeshop/internal/config"
	"coffeeshop/internal/domain"
	"coffeeshop/internal/infra/auth/rbac"

	"github.com/rs/zerolog"
)

// staticAuthenticator accepts tokens of the form "perms=a,b,c". The token
// "noclaim" authenticates as a principal with no permissions claim at
// all; anything else is rejected.
type staticAuthenticator struct{}

func (a *staticAuthenticator) Authenticate(_ context.Context, rawToken string) (domain.Principal, error) {
	if rawToken == "noclaim" {
		return domain.Principal{Subject: "test-subject"}, nil
	}
	if strings.HasPrefix(rawToken, "perms=") {
		principal := domain.Principal{Subject: "test-subject", Permissions: []string{}}
		if rest := strings.TrimPrefix(rawToken, "perms="); rest != "" {
			principal.Permissions = strings.Split(rest, ",")
		}
		return principal, nil
	}
	return domain.Principal{}, domain.NewAuthError(http.StatusUnauthorized,
		domain.AuthCodeSignatureInvalid, "token signature is invalid or its algorithm is not accepted")
}

func tokenWithPermissions(permissions ...string) string {
	return "perms=" + strings.Join(permissions, ",")
}

func addAuthHeader(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// memStore is an in-memory DrinkStore for handler tests.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	drinks map[int64]domain.Drink
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, drinks: map[int64]domain.Drink{}}
}

func (s *memStore) List(_ context.Context) ([]domain.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Drink, 0, len(s.drinks))
	for _, drink := range s.drinks {
		out = append(out, drink)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Get(_ context.Context, id int64) (domain.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drink, ok := s.drinks[id]
	if !ok {
		return domain.Drink{}, domain.ErrNotFound
	}
	return drink, nil
}

func (s *memStore) Create(_ context.Context, drink domain.Drink) (domain.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drink.ID = s.nextID
	s.nextID++
	s.drinks[drink.ID] = drink
	return drink, nil
}

func (s *memStore) Update(_ context.Context, id int64, patch domain.DrinkPatch) (domain.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drink, ok := s.drinks[id]
	if !ok {
		return domain.Drink{}, domain.ErrNotFound
	}
	if patch.Title != nil {
		drink.Title = *patch.Title
	}
	if patch.Recipe != nil {
		drink.Recipe = patch.Recipe
	}
	s.drinks[id] = drink
	return drink, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drinks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.drinks, id)
	return nil
}

func (s *memStore) seed(drinks ...domain.Drink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, drink := range drinks {
		drink.ID = s.nextID
		s.nextID++
		s.drinks[drink.ID] = drink
	}
}

func newTestServer(store DrinkStore, limiter domain.RateLimiter, limit int) *Server {
	cfg := config.Config{
		RateLimitRequests:   limit,
		RateLimitWindowSecs: 60,
		CORSAllowedOrigins:  []string{"*"},
	}
	return NewServerWithDeps(cfg, ServerDeps{
		Drinks:        store,
		Authenticator: &staticAuthenticator{},
		Authorizer:    rbac.NewAuthorizer(),
		RateLimiter:   limiter,
		Logger:        zerolog.Nop(),
	})
}

func doRequest(server *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}
