// Package auth handles Basic credentials and password hashing.
//
// Credential extraction is deliberately lenient: a missing or malformed
// Authorization header yields empty credentials instead of an error. The caller
// then fails to resolve a user and answers 404, so format problems never show up
// as a distinct status code.
package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
)

// Credentials is the email/password pair carried in a Basic Authorization header.
type Credentials struct {
	Email    string
	Password string
}

// contextKey is unexported so no other package can read or overwrite our values.
type contextKey string

const credentialsKey contextKey = "credentials"

// ParseAuthorization extracts credentials from a raw Authorization header value.
//
// The scheme prefix (everything up to the first space) is dropped, the rest is
// base64-decoded and split on the first ':'. Any failure along the way returns
// zero Credentials.
func ParseAuthorization(header string) Credentials {
	_, encoded, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return Credentials{}
	}

	decoded, err := decodeBase64(strings.TrimSpace(encoded))
	if err != nil {
		return Credentials{}
	}

	email, password, _ := strings.Cut(string(decoded), ":")
	return Credentials{Email: email, Password: password}
}

// decodeBase64 accepts padded and unpadded standard encoding.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// BasicAuth is a middleware that parses the Authorization header and stores the
// credentials in the request context. It never rejects a request: deciding what
// an unresolved identity means is the service layer's job.
func BasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := ParseAuthorization(r.Header.Get("Authorization"))
		ctx := context.WithValue(r.Context(), credentialsKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CredentialsFromContext returns the credentials stored by BasicAuth, or zero
// Credentials when the middleware did not run.
func CredentialsFromContext(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey).(Credentials)
	return creds
}

// WithCredentials returns a copy of ctx carrying creds. Useful outside HTTP,
// e.g. in tests that call services directly.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey, creds)
}
