package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PriceFeed reports the fiat price of one whole unit of an asset. Feed
// failures surface as hard errors of the enclosing operation; there are no
// retries here.
type PriceFeed interface {
	AssetPrice(ctx context.Context, feedURL string) (decimal.Decimal, error)
}

// HTTPFeed pulls the price from an external JSON endpoint.
type HTTPFeed struct {
	client *http.Client
}

func NewHTTPFeed(timeout time.Duration) *HTTPFeed {
	return &HTTPFeed{
		client: &http.Client{Timeout: timeout},
	}
}

type feedResponse struct {
	Price decimal.Decimal `json:"price"`
}

func (f *HTTPFeed) AssetPrice(ctx context.Context, feedURL string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price feed unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode feed response: %w", err)
	}

	if body.Price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("price feed returned non-positive price %s", body.Price)
	}

	return body.Price, nil
}
