package middleware

import (
	"net/http"
	"strings"
	"time"

	"mnemo-backend/pkg/auth"
	"mnemo-backend/pkg/common"

	"go.uber.org/zap"
)

// Authenticate validates bearer tokens and attaches the user to the request
// context. Callers are rate limited per IP before validation and per user
// after it.
func Authenticate(validator *auth.Validator, logger *zap.Logger) func(next http.Handler) http.Handler {
	ipLimiter := auth.NewTokenBucketLimiter(100, time.Minute/100)
	userLimiter := auth.NewTokenBucketLimiter(200, time.Minute/200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIP(r)

			allowed, _ := ipLimiter.Allow(r.Context(), clientIP)
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMIT", "rate limit exceeded")
				return
			}

			token := extractToken(r)
			if token == "" {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("token rejected",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				switch err {
				case auth.ErrExpiredToken:
					common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token has expired")
				case auth.ErrInvalidSignature:
					common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token signature")
				default:
					common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				}
				return
			}

			allowed, _ = userLimiter.Allow(r.Context(), claims.UserID)
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMIT", "user rate limit exceeded")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests lacking an authenticated user. Used on
// subrouters mounted after Authenticate as a defensive backstop.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.GetUserFromContext(r.Context()); err != nil {
			common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthenticated request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return authHeader
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
