package middleware

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"budgetplanner/backend/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// DevUserID is the identity attached to requests when no verifier is configured.
const DevUserID = "dev-user"

// TokenVerifier checks a Firebase ID token and returns its user id.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// NewFirebaseVerifier builds a Firebase Auth client. credentials may be raw
// service-account JSON or its base64 encoding; when empty, Application
// Default Credentials are used.
func NewFirebaseVerifier(ctx context.Context, projectID, credentials string) (*auth.Client, error) {
	var opts []option.ClientOption
	if creds := strings.TrimSpace(credentials); creds != "" {
		if !strings.HasPrefix(creds, "{") {
			decoded, err := base64.StdEncoding.DecodeString(creds)
			if err != nil {
				return nil, fmt.Errorf("decode base64 firebase credentials: %w", err)
			}
			creds = string(decoded)
		}
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firebase auth client: %w", err)
	}
	return client, nil
}

// Auth verifies bearer tokens. With a nil verifier every request is
// attributed to DevUserID.
type Auth struct {
	verifier TokenVerifier
}

func NewAuth(v TokenVerifier) *Auth {
	return &Auth{verifier: v}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflight carries no credentials.
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if a.verifier == nil {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, DevUserID)))
			return
		}

		idToken := extractToken(r.Header.Get("Authorization"))
		if idToken == "" {
			// Browsers cannot set headers on websocket upgrades.
			idToken = r.URL.Query().Get("auth")
		}
		if idToken == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		token, err := a.verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log := logger.FromContext(r.Context(), zerolog.Nop())
			log.Warn().Err(err).Msg("token verification failed")
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, token.UID)
		l := logger.FromContext(ctx, zerolog.Nop()).With().Str("user_id", token.UID).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, l)))
	})
}

// extractToken gets the token from a "Bearer <token>" header.
func extractToken(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserID returns the authenticated user id stored on the request context.
func UserID(r *http.Request) string {
	userID, _ := r.Context().Value(UserIDKey).(string)
	return userID
}
