package domain

import (
	"context"
	"net/http"
)

// HTTPAdapter defines the interface for authenticated HTTP operations.
// Callers own the returned response body.
type HTTPAdapter interface {
	GetWithAuth(ctx context.Context, url, token string) (*http.Response, error)
	PostWithAuth(
		ctx context.Context,
		url, token string,
		payload any,
	) (*http.Response, error)
	PutWithAuth(
		ctx context.Context,
		url, token string,
		payload any,
	) (*http.Response, error)
	DeleteWithAuth(ctx context.Context, url, token string) (*http.Response, error)
}
