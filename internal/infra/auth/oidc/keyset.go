package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

const (
	defaultKeySetTTL          = 10 * time.Minute
	defaultKeySetMaxStale     = 30 * time.Minute
	defaultKeySetFetchTimeout = 5 * time.Second
)

var errKeyNotFound = errors.New("signing key not found")

// keySet caches the RSA public keys published at a JWKS endpoint, indexed
// by kid. Lookups are lock-free of network I/O while the snapshot is
// fresh; a kid miss always costs at most one fetch before failing, so a
// newly rotated key is picked up on its first appearance. Expired
// snapshots keep serving known kids for a bounded stale window while a
// background refresh runs.
type keySet struct {
	url          string
	httpClient   *http.Client
	ttl          time.Duration
	maxStale     time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	expiresAt  time.Time
	staleUntil time.Time

	flightMu sync.Mutex
	flight   chan struct{}
	lastErr  error
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// jwk is a single published key per RFC 7517. Only RSA signing keys are
// usable here; anything else in the document is skipped.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newKeySet(url string, httpClient *http.Client) *keySet {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &keySet{
		url:          url,
		httpClient:   httpClient,
		ttl:          defaultKeySetTTL,
		maxStale:     defaultKeySetMaxStale,
		fetchTimeout: defaultKeySetFetchTimeout,
		now:          time.Now,
		keys:         map[string]*rsa.PublicKey{},
	}
}

// publicKey resolves kid to a cached public key, refreshing the snapshot
// when the kid is unknown or the snapshot has expired. Returns
// errKeyNotFound when a fresh snapshot still has no such kid.
func (s *keySet) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errKeyNotFound
	}
	key, fresh, stale := s.snapshot(kid)
	if fresh {
		return key, nil
	}
	if stale {
		s.refreshInBackground()
		return key, nil
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if key, _, _ := s.snapshot(kid); key != nil {
		return key, nil
	}
	return nil, errKeyNotFound
}

func (s *keySet) snapshot(kid string) (key *rsa.PublicKey, fresh, stale bool) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	if !ok {
		return nil, false, false
	}
	if now.Before(s.expiresAt) {
		return key, true, false
	}
	if !s.staleUntil.IsZero() && now.Before(s.staleUntil) {
		return key, false, true
	}
	return nil, false, false
}

func (s *keySet) refreshInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	go func() {
		defer cancel()
		_ = s.refresh(ctx)
	}()
}

// refresh performs a single fetch of the JWKS document, collapsing
// concurrent callers onto one in-flight request. Followers block until
// the leader finishes and share its result.
func (s *keySet) refresh(ctx context.Context) error {
	s.flightMu.Lock()
	if ch := s.flight; ch != nil {
		s.flightMu.Unlock()
		select {
		case <-ch:
			s.flightMu.Lock()
			defer s.flightMu.Unlock()
			return s.lastErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ch := make(chan struct{})
	s.flight = ch
	s.flightMu.Unlock()

	err := s.fetch(ctx)

	s.flightMu.Lock()
	s.lastErr = err
	s.flight = nil
	close(ch)
	s.flightMu.Unlock()
	return err
}

func (s *keySet) fetch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, entry := range doc.Keys {
		if entry.Kty != "RSA" || entry.Kid == "" {
			continue
		}
		pub, err := entry.rsaPublicKey()
		if err != nil {
			continue
		}
		keys[entry.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks document contains no usable RSA keys")
	}

	now := s.now()
	s.mu.Lock()
	s.keys = keys
	s.expiresAt = now.Add(s.ttl)
	s.staleUntil = s.expiresAt.Add(s.maxStale)
	s.mu.Unlock()
	return nil
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.N == "" || k.E == "" {
		return nil, errors.New("jwk missing rsa modulus or exponent")
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	exponent := new(big.Int).SetBytes(eBytes).Int64()
	if exponent <= 0 || exponent > int64(^uint32(0)) {
		return nil, errors.New("jwk exponent out of range")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(exponent),
	}, nil
}
