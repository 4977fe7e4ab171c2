package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketforge/pkg/cache"
	"ticketforge/pkg/logger"
	"ticketforge/pkg/metrics"

	"github.com/shopspring/decimal"
)

var ErrUnacceptablePayment = errors.New("unacceptable payment asset")

const bpsDenominator = 10000

// Adapter converts a tier's fiat reference price into a concrete payment
// asset amount, applying a slippage buffer so that minor feed movement
// between quote and settlement does not underpay.
type Adapter struct {
	repo          Repository
	feed          PriceFeed
	cacheService  cache.Service
	slippageBps   int64
	quoteCacheTTL time.Duration
}

func NewAdapter(repo Repository, feed PriceFeed, slippageBps int64) *Adapter {
	return &Adapter{
		repo:        repo,
		feed:        feed,
		slippageBps: slippageBps,
	}
}

// SetCacheService enables short-lived quote caching.
func (a *Adapter) SetCacheService(cacheService cache.Service, ttl time.Duration) {
	a.cacheService = cacheService
	a.quoteCacheTTL = ttl
}

// Quote converts referencePriceCents (fiat minor units) into an amount of
// the given payment asset, buffered by the configured slippage and rounded
// up to the asset's exponent.
func (a *Adapter) Quote(ctx context.Context, tierID string, referencePriceCents int64, asset string) (decimal.Decimal, error) {
	start := time.Now()

	cacheKey := fmt.Sprintf("quote:%s:%s:%d", tierID, asset, referencePriceCents)
	if a.cacheService != nil {
		var cached decimal.Decimal
		if err := a.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			metrics.ObserveQuote(asset, "cache", time.Since(start))
			return cached, nil
		}
	}

	pa, err := a.repo.GetAsset(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}

	assetPrice, err := a.feed.AssetPrice(ctx, pa.FeedURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote for tier %s failed: %w", tierID, err)
	}

	amount := bufferedAmount(referencePriceCents, assetPrice, a.slippageBps, pa.Exponent)

	if a.cacheService != nil {
		if err := a.cacheService.Set(ctx, cacheKey, amount, a.quoteCacheTTL); err != nil {
			logger.GetDefault().Debug("failed to cache quote", "key", cacheKey, "error", err)
		}
	}

	metrics.ObserveQuote(asset, "feed", time.Since(start))
	return amount, nil
}

// SetPaymentAssets registers or updates feeds for the given assets.
func (a *Adapter) SetPaymentAssets(ctx context.Context, assets []PaymentAsset) error {
	return a.repo.UpsertAssets(ctx, assets)
}

// ListPaymentAssets returns the feed registry.
func (a *Adapter) ListPaymentAssets(ctx context.Context) ([]PaymentAsset, error) {
	return a.repo.ListAssets(ctx)
}

// bufferedAmount is the pure conversion: fiat minor units -> asset amount,
// plus the slippage buffer, rounded up so the quote never understates.
func bufferedAmount(referencePriceCents int64, assetPrice decimal.Decimal, slippageBps int64, exponent int32) decimal.Decimal {
	fiat := decimal.New(referencePriceCents, -2)
	raw := fiat.Div(assetPrice)
	buffered := raw.
		Mul(decimal.NewFromInt(bpsDenominator + slippageBps)).
		Div(decimal.NewFromInt(bpsDenominator))
	return buffered.RoundUp(exponent)
}
