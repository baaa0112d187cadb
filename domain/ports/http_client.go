package ports

import (
	"context"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

// HTTPClient defines the interface for HTTP operations.
// Inside a guest the request is carried out by the host.
type HTTPClient interface {
	// Do executes an HTTP request and returns the response.
	Do(ctx context.Context, req entities.HTTPRequest) (entities.HTTPRequestOutcome, error)

	// Get performs an HTTP GET request.
	Get(ctx context.Context, url string) (entities.HTTPRequestOutcome, error)

	// Post performs an HTTP POST request.
	Post(ctx context.Context, url string, contentType string, body []byte) (entities.HTTPRequestOutcome, error)
}
