// Package client provides a client for the marketplace HTTP API. Its list
// methods have the shape of a listing page source, so they plug directly
// into the listing engine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/api"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// StatusError is an unexpected API response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("unexpected status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string // API base URL, e.g., "http://localhost:8080"
	Timeout time.Duration
}

// NewClient creates a new API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// =============================================================================
// Listings
// =============================================================================

// ListBusinesses fetches one page of businesses.
func (c *Client) ListBusinesses(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Business, error) {
	var resp api.ListResponse[api.BusinessResponse]
	if err := c.get(ctx, "/api/v1/businesses", EncodeQuery(filter, page), &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Business, 0, len(resp.Items))
	for _, b := range resp.Items {
		out = append(out, b.Business)
	}
	return out, nil
}

// ListProducts fetches one page of products. A BusinessID in filter lists
// the storefront of that business.
func (c *Client) ListProducts(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Product, error) {
	var items []api.ProductResponse
	if filter.BusinessID != "" {
		var resp api.StorefrontResponse[api.ProductResponse]
		if err := c.get(ctx, storefrontPath(filter.BusinessID, "products"), EncodeQuery(filter, page), &resp); err != nil {
			return nil, err
		}
		items = resp.Items
	} else {
		var resp api.ListResponse[api.ProductResponse]
		if err := c.get(ctx, "/api/v1/products", EncodeQuery(filter, page), &resp); err != nil {
			return nil, err
		}
		items = resp.Items
	}
	out := make([]domain.Product, 0, len(items))
	for _, p := range items {
		out = append(out, p.Product)
	}
	return out, nil
}

// ListServices fetches one page of services.
func (c *Client) ListServices(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Service, error) {
	var items []api.ServiceResponse
	if filter.BusinessID != "" {
		var resp api.StorefrontResponse[api.ServiceResponse]
		if err := c.get(ctx, storefrontPath(filter.BusinessID, "services"), EncodeQuery(filter, page), &resp); err != nil {
			return nil, err
		}
		items = resp.Items
	} else {
		var resp api.ListResponse[api.ServiceResponse]
		if err := c.get(ctx, "/api/v1/services", EncodeQuery(filter, page), &resp); err != nil {
			return nil, err
		}
		items = resp.Items
	}
	out := make([]domain.Service, 0, len(items))
	for _, s := range items {
		out = append(out, s.Service)
	}
	return out, nil
}

func storefrontPath(businessID, kind string) string {
	return "/api/v1/businesses/" + url.PathEscape(businessID) + "/" + kind
}

// EncodeQuery renders a datastore query as listing route parameters.
func EncodeQuery(filter domain.ListFilter, page domain.Page) url.Values {
	q := url.Values{}
	for _, v := range filter.CategoryIDs {
		q.Add("category_id", v)
	}
	for _, v := range filter.Provincias {
		q.Add("provincia", v)
	}
	for _, v := range filter.Cantons {
		q.Add("canton", v)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64))
	}
	if filter.MinDuration != nil {
		q.Set("min_duration", strconv.Itoa(*filter.MinDuration))
	}
	if filter.MaxDuration != nil {
		q.Set("max_duration", strconv.Itoa(*filter.MaxDuration))
	}
	if filter.SortBy != domain.SortDefault {
		q.Set("sort_by", string(filter.SortBy))
	}
	page = page.Normalize()
	q.Set("page", strconv.Itoa(page.Number))
	q.Set("limit", strconv.Itoa(page.Size))
	return q
}

// =============================================================================
// Detail Routes
// =============================================================================

// Resolve fetches the entity of type t named by slug.
func (c *Client) Resolve(ctx context.Context, t domain.EntityType, slug string) (domain.Entity, error) {
	path := "/api/v1/" + t.Route() + "/" + url.PathEscape(slug)
	switch t {
	case domain.EntityBusiness:
		var resp api.BusinessResponse
		if err := c.get(ctx, path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp.Business, nil
	case domain.EntityProduct:
		var resp api.ProductResponse
		if err := c.get(ctx, path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp.Product, nil
	case domain.EntityService:
		var resp api.ServiceResponse
		if err := c.get(ctx, path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp.Service, nil
	default:
		return nil, fmt.Errorf("resolve %q: %w", slug, domain.ErrInvalidEntityType)
	}
}

// Categories lists every category.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var resp api.CategoriesResponse
	if err := c.get(ctx, "/api/v1/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// Locations lists provincias with their cantones.
func (c *Client) Locations(ctx context.Context) ([]domain.Provincia, error) {
	var resp api.LocationsResponse
	if err := c.get(ctx, "/api/v1/locations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Provincias, nil
}

// =============================================================================
// Contact Events
// =============================================================================

// RecordContact reports a WhatsApp contact. productID and serviceID are
// optional.
func (c *Client) RecordContact(ctx context.Context, businessID, productID, serviceID string) error {
	body, err := json.Marshal(api.ContactEventRequest{
		BusinessID: businessID,
		ProductID:  productID,
		ServiceID:  serviceID,
	})
	if err != nil {
		return fmt.Errorf("marshal contact event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/contact-events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		err := statusError(resp)
		c.logger.Debug("api request failed", "path", path, "status", resp.StatusCode, "error", err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	se := &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	var e api.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		se.Code = e.Code
		se.Message = e.Error
	}
	return se
}
