package hostcall

import (
	"context"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/domain/ports"
	"github.com/basm-dev/basm-sdk-go/guest"
)

// SendHTTPRequest asks the host to perform an HTTP request. An error means the request
// could not be sent or the host reported a failure; HTTP error statuses are returned as
// a normal outcome.
func SendHTTPRequest(
	inst *guest.Instance,
	method, url string,
	headers map[string][]string,
	body []byte,
) (entities.HTTPRequestOutcome, error) {
	if headers == nil {
		headers = map[string][]string{}
	}
	req := entities.HTTPRequest{
		URL:     url,
		Method:  method,
		Headers: headers,
		Body:    body,
	}
	return Call[entities.HTTPRequest, entities.HTTPRequestOutcome](inst, HTTPService, inst.Imports().HTTPRequest, req)
}

// Compile-time interface compliance check
var _ ports.HTTPClient = (*HTTPClient)(nil)

// HTTPClient implements ports.HTTPClient on top of the host's httpRequest service.
type HTTPClient struct {
	inst *guest.Instance
}

// NewHTTPClient creates a client bound to inst, or to the default instance when inst is nil.
func NewHTTPClient(inst *guest.Instance) *HTTPClient {
	if inst == nil {
		inst = guest.Default()
	}
	return &HTTPClient{inst: inst}
}

// Do executes an HTTP request. The guest cannot interrupt a host call, so ctx is only
// checked before the request is sent.
func (c *HTTPClient) Do(ctx context.Context, req entities.HTTPRequest) (entities.HTTPRequestOutcome, error) {
	if err := ctx.Err(); err != nil {
		return entities.HTTPRequestOutcome{}, err
	}
	return SendHTTPRequest(c.inst, req.Method, req.URL, req.Headers, req.Body)
}

// Get performs an HTTP GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (entities.HTTPRequestOutcome, error) {
	return c.Do(ctx, entities.HTTPRequest{Method: "GET", URL: url})
}

// Post performs an HTTP POST request.
func (c *HTTPClient) Post(ctx context.Context, url string, contentType string, body []byte) (entities.HTTPRequestOutcome, error) {
	return c.Do(ctx, entities.HTTPRequest{
		Method:  "POST",
		URL:     url,
		Headers: map[string][]string{"Content-Type": {contentType}},
		Body:    body,
	})
}
