package http

import (
	"net/http"
	"strings"

	"coffeeshop/internal/domain"

	"github.com/gin-gonic/gin"
)

// bearerToken extracts the raw token from an Authorization header. The
// header must hold exactly two space-separated parts and the scheme word
// must be exactly "Bearer".
func bearerToken(header http.Header) (string, error) {
	value := header.Get("Authorization")
	if value == "" {
		return "", domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeHeaderMissing, "authorization header is expected")
	}
	parts := strings.Split(value, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", domain.NewAuthError(http.StatusUnauthorized,
			domain.AuthCodeHeaderMalformed, "authorization header must be of the form: Bearer <token>")
	}
	return parts[1], nil
}

// requirePermission is the uniform guard in front of every protected
// handler: extract the bearer token, verify it, check the permission,
// then run the handler with the decoded claims. No route composes these
// steps differently.
func (s *Server) requirePermission(permission string, handler func(*gin.Context, domain.Principal)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.Request.Header)
		if err != nil {
			s.writeAuthError(c, err)
			return
		}
		principal, err := s.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.writeAuthError(c, err)
			return
		}
		if err := s.authorizer.Require(principal, permission); err != nil {
			s.writeAuthError(c, err)
			return
		}
		if !s.enforceRateLimit(c, permission, principal.Subject) {
			return
		}
		handler(c, principal)
	}
}

// public wraps an unprotected handler so it still gets rate limiting.
func (s *Server) public(handler func(*gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.enforceRateLimit(c, "public:"+c.FullPath(), "") {
			return
		}
		handler(c)
	}
}

func (s *Server) writeAuthError(c *gin.Context, err error) {
	if authErr, ok := domain.AsAuthError(err); ok {
		s.logger.Warn().
			Str("request_id", c.GetString(contextKeyRequestID)).
			Str("code", authErr.Code).
			Int("status", authErr.StatusCode).
			Msg("request rejected")
		writeError(c, authErr.StatusCode, authErr.Description)
		return
	}
	s.logger.Error().
		Str("request_id", c.GetString(contextKeyRequestID)).
		Err(err).
		Msg("authentication failed unexpectedly")
	writeError(c, http.StatusUnauthorized, "unable to verify credentials")
}

// writeError renders the fixed failure body shared by every error path.
func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   status,
		"message": message,
	})
}
