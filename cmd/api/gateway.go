package main

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// httpRequestFrom rebuilds an http.Request from an API Gateway proxy event so
// the chi router can serve it unchanged.
func httpRequestFrom(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	path := req.Path
	for param, value := range req.PathParameters {
		path = strings.ReplaceAll(path, "{"+param+"}", value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, path, body)
	if err != nil {
		return nil, err
	}

	if req.QueryStringParameters != nil {
		query := httpReq.URL.Query()
		for param, value := range req.QueryStringParameters {
			query.Add(param, value)
		}
		httpReq.URL.RawQuery = query.Encode()
	}
	for key, value := range req.Headers {
		httpReq.Header.Add(key, value)
	}

	return httpReq, nil
}

// responseRecorder captures the router's response for conversion back into an
// API Gateway proxy response.
type responseRecorder struct {
	header     http.Header
	body       []byte
	statusCode int
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return len(body), nil
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}

func (r *responseRecorder) proxyResponse() events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(r.header))
	for key := range r.header {
		headers[key] = r.header.Get(key)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: r.statusCode,
		Headers:    headers,
		Body:       string(r.body),
	}
}
