package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/ports/primary"
)

// Claims carried by the bearer tokens the learner front-ends issue.
// Subject is the learner's numeric id.
type Claims struct {
	jwt.RegisteredClaims
}

type MiddlewareProvider struct {
	SecretOption string
	logger       primary.Logger
}

func New(cfg *config.JwtConfig, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		SecretOption: cfg.Secret,
		logger:       logger,
	}
}

func (m *MiddlewareProvider) secret() []byte {
	return []byte(m.SecretOption)
}

func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.SecretOption == "" {
			m.logger.Error("Rejected request: jwt secret is not configured")
			ResponseError(w, "Authentication unavailable", http.StatusUnauthorized)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ResponseError(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			ResponseError(w, "Invalid authorization scheme", http.StatusUnauthorized)
			return
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return m.secret(), nil
		})
		if err != nil || !token.Valid {
			m.logger.Debug("Rejected bearer token", "error", err)
			ResponseError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			ResponseError(w, "Invalid token subject", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
