package oidc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coffeeshop/internal/config"
	"coffeeshop/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator verifies bearer tokens against the issuer's published key
// set and produces the decoded claim set. It holds no per-request state
// and is safe for concurrent use; the only shared mutable state is the
// key-set cache.
type Authenticator struct {
	issuer     string
	audience   string
	algorithms []string
	leeway     time.Duration
	keys       *keySet
	now        func() time.Time
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	now        func() time.Time
}

// WithHTTPClient overrides the client used for JWKS fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithClock overrides the time source used for claim validation.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewAuthenticator(cfg config.Config, opts ...Option) (*Authenticator, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.APIAudience == "" {
		return nil, errors.New("audience is required")
	}
	if cfg.JWKSURL == "" {
		return nil, errors.New("jwks URL is required")
	}
	if len(cfg.Algorithms) == 0 {
		return nil, errors.New("at least one accepted algorithm is required")
	}
	for _, alg := range cfg.Algorithms {
		if jwt.GetSigningMethod(alg) == nil {
			return nil, errors.New("unknown signing algorithm: " + alg)
		}
	}

	resolved := options{now: time.Now}
	for _, opt := range opts {
		opt(&resolved)
	}

	return &Authenticator{
		issuer:     cfg.IssuerURL,
		audience:   cfg.APIAudience,
		algorithms: append([]string(nil), cfg.Algorithms...),
		leeway:     time.Duration(cfg.ClockSkewSecs) * time.Second,
		keys:       newKeySet(cfg.JWKSURL, resolved.httpClient),
		now:        resolved.now,
	}, nil
}

// Authenticate verifies the raw token's structure, signature and standard
// claims, then extracts the granted permission set. The signing algorithm
// must be on the configured allow-list; a token declaring any other
// algorithm is rejected before its signature is examined, so a symmetric
// token can never be validated against the published RSA keys.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (domain.Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods(a.algorithms),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(a.now),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, domain.NewAuthError(http.StatusUnauthorized,
				domain.AuthCodeTokenMalformed, "token header has no kid")
		}
		key, err := a.keys.publicKey(ctx, kid)
		if err != nil {
			if errors.Is(err, errKeyNotFound) {
				return nil, domain.NewAuthError(http.StatusUnauthorized,
					domain.AuthCodeKeyUnknown, "no signing key matches the token kid")
			}
			return nil, domain.NewAuthError(http.StatusUnauthorized,
				domain.AuthCodeKeySetUnavailable, "signing key set could not be fetched")
		}
		return key, nil
	})
	if err != nil {
		return domain.Principal{}, translateParseError(err)
	}
	if !token.Valid {
		return domain.Principal{}, domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeSignatureInvalid, "token signature could not be verified")
	}

	return principalFromClaims(claims)
}

// translateParseError maps golang-jwt failures onto the fixed error
// taxonomy. AuthErrors raised inside the keyfunc pass through unchanged.
func translateParseError(err error) error {
	if authErr, ok := domain.AsAuthError(err); ok {
		return authErr
	}
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeTokenMalformed, "token is not a well-formed JWT")
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeTokenExpired, "token has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeSignatureInvalid, "token signature is invalid or its algorithm is not accepted")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeClaimsInvalid, "token claims failed validation")
	default:
		return domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeTokenMalformed, "token could not be verified")
	}
}

func principalFromClaims(claims jwt.MapClaims) (domain.Principal, error) {
	principal := domain.Principal{}

	if sub, err := claims.GetSubject(); err == nil {
		principal.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		principal.Issuer = iss
	}
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		principal.Audience = aud[0]
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		principal.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		principal.ExpiresAt = exp.Time
	}

	raw, present := claims["permissions"]
	if !present {
		// Absent claim stays nil so the authorizer can tell a token
		// issued without RBAC data apart from an empty grant set.
		return principal, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return domain.Principal{}, domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeClaimsInvalid, "permissions claim is not an array")
	}
	permissions := make([]string, 0, len(entries))
	for _, entry := range entries {
		permission, ok := entry.(string)
		if !ok {
			return domain.Principal{}, domain.NewAuthError(http.StatusUnauthorized,
				domain.AuthCodeClaimsInvalid, "permissions claim contains a non-string entry")
		}
		permissions = append(permissions, permission)
	}
	principal.Permissions = permissions
	return principal, nil
}
