package enjin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultEndpoint is the public Enjin platform GraphQL endpoint.
	DefaultEndpoint = "https://platform.enjin.io/graphql"

	defaultRequestTimeout = 30 * time.Second
	maxErrorBodyBytes     = 64 * 1024
)

// Config defines the inputs for the upstream API client.
type Config struct {
	Endpoint string
	APIKey   string
	// BearerAuth prefixes the API key with "Bearer " in the auth header.
	BearerAuth bool
	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
}

// Client issues GraphQL requests against the Enjin platform API.
type Client struct {
	endpoint   string
	authHeader string
	httpClient *http.Client
	tracer     trace.Tracer
}

// New creates a Client. The API key is required.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("enjin api key is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	authHeader := apiKey
	if cfg.BearerAuth && !strings.HasPrefix(apiKey, "Bearer ") {
		authHeader = "Bearer " + apiKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		endpoint:   endpoint,
		authHeader: authHeader,
		httpClient: httpClient,
		tracer:     otel.Tracer("enjin"),
	}, nil
}

// UpstreamError reports a failed upstream request: a transport failure, a
// non-success HTTP status, or a GraphQL error list. Payload carries the raw
// error body when one was received.
type UpstreamError struct {
	Operation string
	Status    int
	Payload   json.RawMessage
	Err       error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("upstream %s: %v", e.Operation, e.Err)
	case len(e.Payload) > 0:
		return fmt.Sprintf("upstream %s: status %d: %s", e.Operation, e.Status, e.Payload)
	default:
		return fmt.Sprintf("upstream %s: status %d", e.Operation, e.Status)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// query runs one GraphQL request and decodes the data stanza into out.
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	ctx, span := c.tracer.Start(ctx, "enjin."+operation,
		trace.WithAttributes(attribute.String("graphql.operation", operation)))
	defer span.End()

	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upErr := &UpstreamError{Operation: operation, Err: err}
		span.RecordError(upErr)
		return upErr
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		upErr := &UpstreamError{Operation: operation, Status: resp.StatusCode, Err: err}
		span.RecordError(upErr)
		return upErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upErr := &UpstreamError{Operation: operation, Status: resp.StatusCode, Payload: body}
		span.RecordError(upErr)
		return upErr
	}

	var envelope gqlEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	if len(envelope.Errors) > 0 && string(envelope.Errors) != "null" {
		upErr := &UpstreamError{Operation: operation, Status: resp.StatusCode, Payload: envelope.Errors}
		span.RecordError(upErr)
		return upErr
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", operation, err)
		}
	}
	return nil
}

// scalar decodes a GraphQL value that may arrive as a JSON string or number.
// Nulls decode to the empty string.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = scalar(value)
		return nil
	}
	*s = scalar(data)
	return nil
}
