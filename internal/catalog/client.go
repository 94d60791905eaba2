package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-checkout/internal/pricing"
	"github.com/noah-isme/pos-checkout/internal/resilience"
)

// authTokenHeader is the header name the catalog service expects.
const authTokenHeader = "auth-token"

// Credentials are passed explicitly into the client; the pricing core never
// reads ambient session state.
type Credentials struct {
	Token string
}

// ClientConfig groups catalog client dependencies.
type ClientConfig struct {
	BaseURL     string
	Credentials Credentials
	HTTP        resilience.HTTPClient
	Logger      zerolog.Logger
}

// Client fetches product and category records from the catalog service.
type Client struct {
	baseURL  string
	creds    Credentials
	http     resilience.HTTPClient
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewClient constructs a catalog client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog: base url is required")
	}
	httpClient := cfg.HTTP
	if httpClient.Client == nil {
		httpClient.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:  base,
		creds:    cfg.Credentials,
		http:     httpClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   cfg.Logger,
	}, nil
}

type productPayload struct {
	ID                 string          `json:"_id" validate:"required"`
	Title              string          `json:"title" validate:"required"`
	Category           string          `json:"category" validate:"required"`
	Price              decimal.Decimal `json:"price"`
	Discount           int             `json:"discount" validate:"gte=0,lte=100"`
	DiscountExpiration time.Time       `json:"discountExpiration"`
}

type categoryPayload struct {
	Title              string    `json:"title" validate:"required"`
	Discount           int       `json:"discount" validate:"gte=0,lte=100"`
	DiscountExpiration time.Time `json:"discountExpiration"`
}

// Products fetches all catalog products. Records failing validation are
// dropped and logged rather than failing the fetch.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var envelope struct {
		AllProducts []productPayload `json:"allProducts"`
	}
	if err := c.get(ctx, "/products/", &envelope); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(envelope.AllProducts))
	for _, payload := range envelope.AllProducts {
		if err := c.validate.Struct(payload); err != nil {
			c.logger.Warn().Err(err).Str("product_id", payload.ID).Msg("drop invalid product record")
			continue
		}
		if payload.Price.IsNegative() {
			c.logger.Warn().Str("product_id", payload.ID).Msg("drop product with negative price")
			continue
		}
		products = append(products, Product{
			ID:                payload.ID,
			Title:             payload.Title,
			Category:          payload.Category,
			Price:             pricing.MoneyFromDecimal(payload.Price),
			DiscountPercent:   payload.Discount,
			DiscountExpiresAt: payload.DiscountExpiration,
		})
	}
	return products, nil
}

// Categories fetches the category discount table.
func (c *Client) Categories(ctx context.Context) ([]CategoryDiscount, error) {
	var envelope struct {
		AllCategories []categoryPayload `json:"allCategories"`
	}
	if err := c.get(ctx, "/categories/", &envelope); err != nil {
		return nil, err
	}
	discounts := make([]CategoryDiscount, 0, len(envelope.AllCategories))
	for _, payload := range envelope.AllCategories {
		if err := c.validate.Struct(payload); err != nil {
			c.logger.Warn().Err(err).Str("category", payload.Title).Msg("drop invalid category record")
			continue
		}
		discounts = append(discounts, CategoryDiscount{
			Title:             payload.Title,
			DiscountPercent:   payload.Discount,
			DiscountExpiresAt: payload.DiscountExpiration,
		})
	}
	return discounts, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	if token := strings.TrimSpace(c.creds.Token); token != "" {
		req.Header.Set(authTokenHeader, token)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("catalog: fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: fetch %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return nil
}
