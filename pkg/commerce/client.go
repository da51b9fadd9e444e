package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/loomworks-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

const (
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
	apiKeyHeader                = "x-api-key"
)

var errBaseURLRequired = errors.New("commerce base url is required")

// Client reads sales orders from the storefront admin API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the commerce client from config.
func NewClient(cfg config.CommerceConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// LineItem is one product line of a sales order.
type LineItem struct {
	ItemID       string
	Title        string
	VariantTitle string
	SKU          string
	Thumbnail    string
	Quantity     int
}

// OrderLineItems fetches the line items of the given order.
func (c *Client) OrderLineItems(ctx context.Context, orderID string) ([]LineItem, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	endpoint := fmt.Sprintf("%s/admin/orders/%s", c.baseURL, url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithDetails(map[string]any{"order_id": trimmed})
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "order request failed")
	}

	var apiResp struct {
		Order struct {
			ID    string `json:"id"`
			Items []struct {
				ID           string `json:"id"`
				Title        string `json:"title"`
				VariantTitle string `json:"variant_title"`
				VariantSKU   string `json:"variant_sku"`
				Thumbnail    string `json:"thumbnail"`
				Quantity     int    `json:"quantity"`
			} `json:"items"`
		} `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}

	items := make([]LineItem, 0, len(apiResp.Order.Items))
	for _, item := range apiResp.Order.Items {
		items = append(items, LineItem{
			ItemID:       item.ID,
			Title:        item.Title,
			VariantTitle: item.VariantTitle,
			SKU:          item.VariantSKU,
			Thumbnail:    item.Thumbnail,
			Quantity:     item.Quantity,
		})
	}
	return items, nil
}
