package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type contextKey string

const AuthUserKey contextKey = "authUser"

// AuthUser carries the identity claims pulled out of a verified Firebase ID
// token.
type AuthUser struct {
	UID      string
	Email    string
	Name     string
	Picture  string
	Provider string
}

// FirebaseAuth validates Firebase ID tokens on protected routes.
type FirebaseAuth struct {
	client *auth.Client
}

func NewFirebaseAuth(client *auth.Client) *FirebaseAuth {
	return &FirebaseAuth{client: client}
}

func (m *FirebaseAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		decoded, err := m.client.VerifyIDToken(r.Context(), token)
		if err != nil {
			log.Printf("Token verification failed: %v", err)
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), AuthUserKey, authUserFromToken(decoded))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authUserFromToken(token *auth.Token) *AuthUser {
	u := &AuthUser{UID: token.UID, Provider: "email"}

	if email, ok := token.Claims["email"].(string); ok {
		u.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		u.Name = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		u.Picture = picture
	}
	if token.Firebase.SignInProvider == "google.com" {
		u.Provider = "google"
	}
	return u
}

// GetAuthUser extracts the verified identity from context.
func GetAuthUser(ctx context.Context) (*AuthUser, bool) {
	u, ok := ctx.Value(AuthUserKey).(*AuthUser)
	return u, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
