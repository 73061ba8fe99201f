package utils

import (
	"context"
	"errors"
)

// Key type for context values
type contextKey string

const (
	subjectKey contextKey = "subject"
	tokenKey   contextKey = "bearerToken"
)

// ErrNoCredentials is returned when the request context carries no verified bearer token
var ErrNoCredentials = errors.New("credentials not found in context")

// GetSubjectFromContext extracts the verified token subject (the parent's email)
func GetSubjectFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(subjectKey).(string)
	if !ok || subject == "" {
		return "", ErrNoCredentials
	}
	return subject, nil
}

// GetBearerTokenFromContext returns the raw bearer token the subject came from
func GetBearerTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(tokenKey).(string)
	if !ok || token == "" {
		return "", ErrNoCredentials
	}
	return token, nil
}

// SetCredentialsToContext stores a verified bearer token and its subject
func SetCredentialsToContext(ctx context.Context, token, subject string) context.Context {
	ctx = context.WithValue(ctx, tokenKey, token)
	return context.WithValue(ctx, subjectKey, subject)
}
