package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wsdeck/internal/engine"
	wsdecksdk "wsdeck/sdk/go"
)

// SessionCookie is read when no session header is present, as browsers send.
const SessionCookie = "coder_session_token"

type AuthConfig struct {
	JWTSecret string
	Logger    *log.Logger
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User   wsdecksdk.User
	Source string
}

type principalKey struct{}

func (c AuthConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func actorFromContext(ctx context.Context) (wsdecksdk.User, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.User.ID != uuid.Nil {
		return p.User, nil
	}
	return wsdecksdk.User{}, newAPIError(http.StatusUnauthorized, "Authentication required.")
}

func authenticateJWT(token string, secret string) (uuid.UUID, error) {
	if strings.TrimSpace(secret) == "" {
		return uuid.Nil, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return uuid.Nil, errors.New("subject claim required")
	}
	return uuid.Parse(claims.Subject)
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func isPublicPath(basePath, p string) bool {
	switch p {
	case path.Join(basePath, "buildinfo"),
		path.Join(basePath, "users/first"),
		path.Join(basePath, "users/login"),
		path.Join(basePath, "openapi.json"),
		path.Join(basePath, "docs"):
		return true
	}
	return false
}

// sessionToken finds the caller's credential. A bearer value with two dots is
// a JWT; anything else is treated as a session token.
func sessionToken(req *http.Request) (token string, isJWT bool, ok bool) {
	if token := strings.TrimSpace(req.Header.Get(wsdecksdk.SessionTokenHeader)); token != "" {
		return token, false, true
	}
	if cookie, err := req.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, false, true
	}
	if authz := strings.TrimSpace(req.Header.Get("Authorization")); authz != "" {
		token, ok := bearerToken(authz)
		if !ok {
			return "", false, false
		}
		return token, strings.Count(token, ".") == 2, true
	}
	return "", false, false
}

func newAuthMiddleware(basePath string, cfg AuthConfig, e engine.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			if isPublicPath(basePath, req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}
			token, isJWT, ok := sessionToken(req)
			if !ok {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "Authentication required."))
				return
			}
			var (
				user   wsdecksdk.User
				source = "session"
				err    error
			)
			if isJWT {
				source = "jwt"
				var id uuid.UUID
				id, err = authenticateJWT(token, cfg.JWTSecret)
				if err == nil {
					user, err = e.AuthenticateUserID(req.Context(), id)
				}
			} else {
				user, err = e.Authenticate(req.Context(), token)
			}
			if err != nil {
				if !errors.Is(err, engine.ErrUnauthorized) {
					cfg.logger().Printf("auth: %s %s: %v", source, req.URL.Path, err)
				}
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "Invalid credentials."))
				return
			}
			ctx := withPrincipal(req.Context(), Principal{User: user, Source: source})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
