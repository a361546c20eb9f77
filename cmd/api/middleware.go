package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type claimsKey string

const claimsCtx claimsKey = "claims"

// Claims is the authenticated identity attached to the request context.
// It is built entirely from the validated token; no user lookup happens
// on the request path.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

func getClaimsFromContext(r *http.Request) *Claims {
	claims, _ := r.Context().Value(claimsCtx).(*Claims)
	return claims
}

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken looks for the access token in the access_token cookie first,
// then falls back to the Authorization: Bearer header for API clients.
func extractToken(r *http.Request) (string, error) {
	if c, err := r.Cookie("access_token"); err == nil && c.Value != "" {
		return c.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing credentials")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("authorization header is malformed")
	}

	return parts[1], nil
}

func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		jwtToken, err := app.authenticator.ValidateAccessToken(token)
		if err != nil || !jwtToken.Valid {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid token"))
			return
		}

		mapClaims, ok := jwtToken.Claims.(jwt.MapClaims)
		if !ok {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid claims"))
			return
		}

		sub, ok := mapClaims["sub"].(string)
		if !ok || sub == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid sub claim"))
			return
		}
		email, _ := mapClaims["email"].(string)
		role, _ := mapClaims["role"].(string)

		claims := &Claims{
			UserID: sub,
			Email:  email,
			Role:   role,
		}

		ctx := context.WithValue(r.Context(), claimsCtx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a subtree to a single role. It assumes
// AuthTokenMiddleware already ran; missing claims answer 403.
func (app *application) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := getClaimsFromContext(r)
			if claims == nil || claims.Role != role {
				app.forbiddenResponse(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter.String())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
