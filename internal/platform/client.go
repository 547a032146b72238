package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orgreg/internal/catalog"
	"orgreg/internal/log"
	"orgreg/internal/organization"
)

const organizationsPath = "/api/v1/organizations"

// CredentialsSource supplies the bearer token and acting user for requests.
// The session package implements it.
type CredentialsSource interface {
	Token() string
	UserID() string
}

// Client talks to the platform API. The base URL starts unresolved and is
// set either from configuration or by Resolve; requests before that fail
// with REASON_NOT_RESOLVED.
type Client struct {
	httpClient *http.Client
	creds      CredentialsSource
	tracer     trace.Tracer

	mu      sync.RWMutex
	baseURL string
}

// NewClient creates an API client. timeout bounds every request; zero
// uses a 15s default.
func NewClient(creds CredentialsSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		tracer:     otel.Tracer("orgreg/platform"),
	}
}

// BaseURL returns the resolved API base URL, or "" when unresolved.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL pins the API base URL. Trailing slashes are dropped so path
// joining stays predictable.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// Resolved reports whether the base URL is known.
func (c *Client) Resolved() bool {
	return c.BaseURL() != ""
}

// createOrganizationRequest is the wire payload: the registration fields
// plus the acting user and the constant description.
type createOrganizationRequest struct {
	organization.Registration
	UserID      string `json:"user_id"`
	Description string `json:"description"`
}

// createOrganizationResponse tolerates both a bare organization body and
// one nested under "data".
type createOrganizationResponse struct {
	Data organization.Organization `json:"data"`
	organization.Organization
}

func (r createOrganizationResponse) organization() organization.Organization {
	if r.Data.GUID != "" || r.Data.Name != "" {
		return r.Data
	}
	return r.Organization
}

type validationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// CreateOrganization submits a registration. Exactly one request is made
// per call. Returns *ValidationError on 422, *Error on any other failure.
func (c *Client) CreateOrganization(ctx context.Context, reg organization.Registration) (organization.Organization, error) {
	var org organization.Organization

	base := c.BaseURL()
	if base == "" {
		return org, NewNotResolvedError()
	}

	var span trace.Span
	ctx, span = c.tracer.Start(ctx, "platform.create_organization",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	payload := createOrganizationRequest{
		Registration: reg,
		UserID:       c.creds.UserID(),
		Description:  organization.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return org, NewRequestFailedError("encoding request", err)
	}

	url := base + organizationsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return org, NewRequestFailedError("building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.creds.Token())

	log.Info(log.CatAPI, "creating organization", "url", url, "name", reg.Name)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatAPI, "create organization request failed", err, "url", url)
		return org, NewRequestFailedError("sending request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return org, NewRequestFailedError("reading response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		span.SetStatus(codes.Ok, "")
		log.Info(log.CatAPI, "organization created", "status", resp.StatusCode)
		if len(respBody) == 0 {
			return org, nil
		}
		var decoded createOrganizationResponse
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			// Created but undecodable - treat as success with no entity
			log.Warn(log.CatAPI, "could not decode create response", "error", err)
			return org, nil
		}
		return decoded.organization(), nil

	case resp.StatusCode == http.StatusUnprocessableEntity:
		span.SetStatus(codes.Error, "validation failed")
		var decoded validationErrorResponse
		// A missing or malformed errors key yields an empty list
		_ = json.Unmarshal(respBody, &decoded)
		log.Warn(log.CatAPI, "organization rejected", "fields", len(decoded.Errors))
		return org, &ValidationError{Fields: decoded.Errors}

	default:
		span.SetStatus(codes.Error, fmt.Sprintf("unexpected status %d", resp.StatusCode))
		var decoded messageResponse
		_ = json.Unmarshal(respBody, &decoded)
		log.Error(log.CatAPI, "unexpected status creating organization",
			"status", resp.StatusCode, "message", decoded.Message)
		return org, NewUnexpectedStatusError(resp.StatusCode, decoded.Message)
	}
}

type catalogResponse struct {
	Items []catalog.Item `json:"items"`
}

// FetchCatalog retrieves a named enumerated set. Implements catalog.Fetcher.
func (c *Client) FetchCatalog(ctx context.Context, name string) ([]catalog.Item, error) {
	return c.fetchItems(ctx, fmt.Sprintf("/api/v1/catalogs/%s", name))
}

// FetchStates retrieves the states of a country. Implements catalog.Fetcher.
func (c *Client) FetchStates(ctx context.Context, country string) ([]catalog.Item, error) {
	return c.fetchItems(ctx, fmt.Sprintf("/api/v1/catalogs/countries/%s/states", url.PathEscape(country)))
}

func (c *Client) fetchItems(ctx context.Context, path string) ([]catalog.Item, error) {
	base := c.BaseURL()
	if base == "" {
		return nil, NewNotResolvedError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, NewRequestFailedError("building request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.Token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewRequestFailedError("sending request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewUnexpectedStatusError(resp.StatusCode, "")
	}

	var decoded catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, NewDecodeFailedError("decoding catalog response", err)
	}
	return decoded.Items, nil
}
