package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetAsset(ctx context.Context, asset string) (*PaymentAsset, error) {
	args := m.Called(ctx, asset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentAsset), args.Error(1)
}

func (m *mockRepo) ListAssets(ctx context.Context) ([]PaymentAsset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]PaymentAsset), args.Error(1)
}

func (m *mockRepo) UpsertAssets(ctx context.Context, assets []PaymentAsset) error {
	args := m.Called(ctx, assets)
	return args.Error(0)
}

type staticFeed struct {
	price decimal.Decimal
	err   error
}

func (f staticFeed) AssetPrice(ctx context.Context, feedURL string) (decimal.Decimal, error) {
	return f.price, f.err
}

func TestQuoteAppliesSlippageBuffer(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetAsset", mock.Anything, "NATIVE").
		Return(&PaymentAsset{Asset: "NATIVE", FeedURL: "http://feed", Exponent: 8}, nil)

	// $100 tier, asset worth $50: raw = 2 units, +1% = 2.02
	adapter := NewAdapter(repo, staticFeed{price: decimal.NewFromInt(50)}, 100)

	amount, err := adapter.Quote(context.Background(), "vip", 10000, "NATIVE")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.02").Equal(amount), "got %s", amount)
}

func TestQuoteRoundsUpToAssetExponent(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetAsset", mock.Anything, "USDX").
		Return(&PaymentAsset{Asset: "USDX", FeedURL: "http://feed", Exponent: 2}, nil)

	// $99.99 against a $3 asset: 33.33 * 1.01 = 33.6633 -> rounds up to 33.67
	adapter := NewAdapter(repo, staticFeed{price: decimal.NewFromInt(3)}, 100)

	amount, err := adapter.Quote(context.Background(), "std", 9999, "USDX")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("33.67").Equal(amount), "got %s", amount)
}

func TestQuoteUnknownAsset(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetAsset", mock.Anything, "DOGE").Return(nil, ErrUnacceptablePayment)

	adapter := NewAdapter(repo, staticFeed{price: decimal.NewFromInt(1)}, 100)

	_, err := adapter.Quote(context.Background(), "vip", 10000, "DOGE")
	assert.ErrorIs(t, err, ErrUnacceptablePayment)
}

func TestQuoteFeedFailureIsHardError(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetAsset", mock.Anything, "NATIVE").
		Return(&PaymentAsset{Asset: "NATIVE", FeedURL: "http://feed", Exponent: 8}, nil)

	adapter := NewAdapter(repo, staticFeed{err: assert.AnError}, 100)

	_, err := adapter.Quote(context.Background(), "vip", 10000, "NATIVE")
	assert.Error(t, err)
}

func TestBufferedAmountExactness(t *testing.T) {
	// No buffer: $100 / $100 = exactly 1.
	amount := bufferedAmount(10000, decimal.NewFromInt(100), 0, 8)
	assert.True(t, decimal.NewFromInt(1).Equal(amount), "got %s", amount)
}
