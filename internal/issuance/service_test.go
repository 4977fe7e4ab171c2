package issuance

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketforge/internal/shared/config"
	"ticketforge/internal/signer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// in-memory repository with transactional rollback semantics

type memState struct {
	tiers      map[string]*Tier
	claims     map[[2]string]string
	tickets    []Ticket
	nonces     map[string]uint64
	allowances map[string]decimal.Decimal
	balances   map[string]decimal.Decimal
	entries    []LedgerEntry
	settings   LedgerSettings
	nextToken  int64
}

func newMemState() *memState {
	return &memState{
		tiers:      make(map[string]*Tier),
		claims:     make(map[[2]string]string),
		nonces:     make(map[string]uint64),
		allowances: make(map[string]decimal.Decimal),
		balances:   make(map[string]decimal.Decimal),
		settings:   LedgerSettings{ID: 1, FeeRateBps: 250, Treasury: "treasury"},
		nextToken:  1,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.tiers {
		tier := *v
		c.tiers[k] = &tier
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	c.tickets = append([]Ticket(nil), s.tickets...)
	for k, v := range s.nonces {
		c.nonces[k] = v
	}
	for k, v := range s.allowances {
		c.allowances[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	c.entries = append([]LedgerEntry(nil), s.entries...)
	c.settings = s.settings
	c.nextToken = s.nextToken
	return c
}

type memRepo struct {
	state *memState
}

func newMemRepo() *memRepo {
	return &memRepo{state: newMemState()}
}

func (r *memRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	backup := r.state.clone()
	if err := fn(r); err != nil {
		r.state = backup
		return err
	}
	return nil
}

func (r *memRepo) CreateTier(ctx context.Context, tier *Tier) error {
	t := *tier
	r.state.tiers[tier.ID] = &t
	return nil
}

func (r *memRepo) GetTier(ctx context.Context, id string) (*Tier, error) {
	tier, ok := r.state.tiers[id]
	if !ok {
		return nil, ErrUnknownTier
	}
	t := *tier
	return &t, nil
}

func (r *memRepo) GetTierForUpdate(ctx context.Context, id string) (*Tier, error) {
	return r.GetTier(ctx, id)
}

func (r *memRepo) ListTiers(ctx context.Context) ([]Tier, error) {
	var tiers []Tier
	for _, t := range r.state.tiers {
		tiers = append(tiers, *t)
	}
	return tiers, nil
}

func (r *memRepo) UpdateTierSupply(ctx context.Context, id string, maxSupply int64) error {
	r.state.tiers[id].MaxSupply = maxSupply
	return nil
}

func (r *memRepo) UpdateTierPrice(ctx context.Context, id string, referencePrice int64) error {
	r.state.tiers[id].ReferencePrice = referencePrice
	return nil
}

func (r *memRepo) IncrementTierSold(ctx context.Context, id string, by int64) error {
	r.state.tiers[id].Sold += by
	return nil
}

func (r *memRepo) SeatClaimed(ctx context.Context, section, seatNumber string) (bool, error) {
	_, ok := r.state.claims[[2]string{section, seatNumber}]
	return ok, nil
}

func (r *memRepo) CreateSeatClaim(ctx context.Context, claim *SeatClaim) error {
	r.state.claims[[2]string{claim.Section, claim.SeatNumber}] = claim.TierID
	return nil
}

func (r *memRepo) GetNonceForUpdate(ctx context.Context, recipient string) (uint64, error) {
	return r.state.nonces[recipient], nil
}

func (r *memRepo) IncrementNonce(ctx context.Context, recipient string) error {
	r.state.nonces[recipient]++
	return nil
}

func (r *memRepo) SetAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	r.state.allowances[owner+"|"+asset] = amount
	return nil
}

func (r *memRepo) GetAllowanceForUpdate(ctx context.Context, owner, asset string) (decimal.Decimal, error) {
	return r.state.allowances[owner+"|"+asset], nil
}

func (r *memRepo) DeductAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	key := owner + "|" + asset
	r.state.allowances[key] = r.state.allowances[key].Sub(amount)
	return nil
}

func (r *memRepo) CreateTicket(ctx context.Context, ticket *Ticket) error {
	ticket.TokenID = r.state.nextToken
	r.state.nextToken++
	r.state.tickets = append(r.state.tickets, *ticket)
	return nil
}

func (r *memRepo) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	for i := range r.state.tickets {
		if r.state.tickets[i].ID == id {
			t := r.state.tickets[i]
			return &t, nil
		}
	}
	return nil, ErrTicketNotFound
}

func (r *memRepo) GetTicketByTokenForUpdate(ctx context.Context, contract string, tokenID int64) (*Ticket, error) {
	for i := range r.state.tickets {
		if r.state.tickets[i].ContractAddr == contract && r.state.tickets[i].TokenID == tokenID {
			t := r.state.tickets[i]
			return &t, nil
		}
	}
	return nil, ErrTicketNotFound
}

func (r *memRepo) ListTicketsByOwner(ctx context.Context, owner string) ([]Ticket, error) {
	var tickets []Ticket
	for _, t := range r.state.tickets {
		if t.Owner == owner {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (r *memRepo) UpdateTicketOwner(ctx context.Context, contract string, tokenID int64, newOwner string) error {
	for i := range r.state.tickets {
		if r.state.tickets[i].ContractAddr == contract && r.state.tickets[i].TokenID == tokenID {
			r.state.tickets[i].Owner = newOwner
			return nil
		}
	}
	return ErrTicketNotFound
}

func (r *memRepo) AddRetained(ctx context.Context, asset string, amount decimal.Decimal) error {
	r.state.balances[asset] = r.state.balances[asset].Add(amount)
	return nil
}

func (r *memRepo) GetBalanceForUpdate(ctx context.Context, asset string) (decimal.Decimal, error) {
	return r.state.balances[asset], nil
}

func (r *memRepo) ZeroBalance(ctx context.Context, asset string) error {
	r.state.balances[asset] = decimal.Zero
	return nil
}

func (r *memRepo) ListBalances(ctx context.Context) ([]LedgerBalance, error) {
	var balances []LedgerBalance
	for asset, retained := range r.state.balances {
		balances = append(balances, LedgerBalance{Asset: asset, Retained: retained})
	}
	return balances, nil
}

func (r *memRepo) CreateLedgerEntries(ctx context.Context, entries []LedgerEntry) error {
	r.state.entries = append(r.state.entries, entries...)
	return nil
}

func (r *memRepo) GetSettings(ctx context.Context) (*LedgerSettings, error) {
	s := r.state.settings
	return &s, nil
}

func (r *memRepo) SaveSettings(ctx context.Context, settings *LedgerSettings) error {
	settings.ID = 1
	r.state.settings = *settings
	return nil
}

// fixed quoter: one amount per tier, no feed round-trip

type fixedQuoter map[string]decimal.Decimal

func (q fixedQuoter) Quote(ctx context.Context, tierID string, referencePriceCents int64, asset string) (decimal.Decimal, error) {
	return q[tierID], nil
}

// test fixture

type fixture struct {
	svc    Service
	repo   *memRepo
	issuer *signer.Issuer
	cfg    *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	issuer, err := signer.NewIssuer()
	require.NoError(t, err)
	pemKey, err := issuer.PublicKeyPEM()
	require.NoError(t, err)
	authority, err := signer.NewAuthority(pemKey)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Signer.ContextID = "ticketforge-test"
	cfg.Issuance.NativeAsset = "NATIVE"
	cfg.Issuance.TicketContract = "ticketforge-tickets"
	cfg.Issuance.FeeRateBps = 250
	cfg.Issuance.Treasury = "treasury"

	repo := newMemRepo()
	repo.state.tiers["vip"] = &Tier{ID: "vip", Name: "VIP", ReferencePrice: 10000, MaxSupply: 100, Numbered: true}
	repo.state.tiers["standing"] = &Tier{ID: "standing", Name: "Standing", ReferencePrice: 2500, MaxSupply: 2, Numbered: false}

	quoter := fixedQuoter{
		// $100 at a $50 feed price plus 1% buffer
		"vip":      decimal.RequireFromString("2.02"),
		"standing": decimal.RequireFromString("0.51"),
	}

	svc := NewService(repo, authority, quoter, nil, cfg)
	return &fixture{svc: svc, repo: repo, issuer: issuer, cfg: cfg}
}

func (f *fixture) voucher(t *testing.T, recipient string, nonce uint64, seats ...signer.Seat) PaymentRequest {
	t.Helper()
	v := signer.Voucher{
		ContextID: f.cfg.Signer.ContextID,
		Recipient: recipient,
		Seats:     seats,
		Nonce:     nonce,
		Deadline:  time.Now().Add(time.Hour).Unix(),
	}
	sig, err := f.issuer.Sign(v)
	require.NoError(t, err)
	return PaymentRequest{Voucher: v, Signature: sig, Payer: recipient}
}

func vipSeat(number string) signer.Seat {
	return signer.Seat{Section: "A", SeatNumber: number, TierID: "vip"}
}

func standingSeat() signer.Seat {
	return signer.Seat{Section: "GA", SeatNumber: "0", TierID: "standing"}
}

// TESTS

func TestHappyPathNativeMint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	req.AmountSent = decimal.RequireFromString("2.02")

	result, err := f.svc.PayWithNative(ctx, req)
	require.NoError(t, err)

	require.Len(t, result.Tickets, 1)
	assert.Equal(t, "buyer-1", result.Tickets[0].Owner)
	assert.True(t, decimal.RequireFromString("2.02").Equal(result.Required))

	// fee + net == required exactly (250 bps of 2.02 truncated = 0.05)
	assert.True(t, decimal.RequireFromString("0.05").Equal(result.Fee), "fee %s", result.Fee)
	assert.True(t, decimal.RequireFromString("1.97").Equal(result.Net), "net %s", result.Net)
	assert.True(t, result.Fee.Add(result.Net).Equal(result.Required))
	assert.True(t, result.Refund.IsZero())

	tier, err := f.svc.GetTier(ctx, "vip")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tier.Sold)

	nonce, err := f.svc.CurrentNonce(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	assert.True(t, f.repo.state.balances["NATIVE"].Equal(result.Net))
}

func TestExcessPaymentIsRefunded(t *testing.T) {
	f := newFixture(t)

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	req.AmountSent = decimal.RequireFromString("3.00")

	result, err := f.svc.PayWithNative(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.98").Equal(result.Refund), "refund %s", result.Refund)

	var refundEntries int
	for _, e := range f.repo.state.entries {
		if e.Kind == EntryRefund {
			refundEntries++
			assert.Equal(t, "buyer-1", e.Counterparty)
		}
	}
	assert.Equal(t, 1, refundEntries)
}

func TestUnderpaymentRejectedWithoutMutation(t *testing.T) {
	f := newFixture(t)

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	req.AmountSent = decimal.RequireFromString("2.01")

	_, err := f.svc.PayWithNative(context.Background(), req)
	assert.ErrorIs(t, err, ErrInsufficientAmount)

	assert.Equal(t, uint64(0), f.repo.state.nonces["buyer-1"])
	assert.Empty(t, f.repo.state.claims)
	assert.Empty(t, f.repo.state.entries)
}

func TestVoucherReplayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	req.AmountSent = decimal.RequireFromString("2.02")

	_, err := f.svc.PayWithNative(ctx, req)
	require.NoError(t, err)

	// identical voucher, identical signature
	_, err = f.svc.PayWithNative(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidNonce)

	tier, _ := f.svc.GetTier(ctx, "vip")
	assert.Equal(t, int64(1), tier.Sold)
}

func TestSeatDoubleClaimRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	first.AmountSent = decimal.RequireFromString("2.02")
	_, err := f.svc.PayWithNative(ctx, first)
	require.NoError(t, err)

	second := f.voucher(t, "buyer-2", 0, vipSeat("12"))
	second.AmountSent = decimal.RequireFromString("2.02")
	_, err = f.svc.PayWithNative(ctx, second)
	assert.ErrorIs(t, err, ErrSeatAlreadyClaimed)

	// the loser's nonce did not advance
	assert.Equal(t, uint64(0), f.repo.state.nonces["buyer-2"])
}

func TestStandingTierSharesSeatValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.voucher(t, "buyer-1", 0, standingSeat())
	first.AmountSent = decimal.RequireFromString("0.51")
	_, err := f.svc.PayWithNative(ctx, first)
	require.NoError(t, err)

	second := f.voucher(t, "buyer-2", 0, standingSeat())
	second.AmountSent = decimal.RequireFromString("0.51")
	_, err = f.svc.PayWithNative(ctx, second)
	require.NoError(t, err)
}

func TestSupplyCapIsExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		req := f.voucher(t, "buyer-1", uint64(i), standingSeat())
		req.AmountSent = decimal.RequireFromString("0.51")
		_, err := f.svc.PayWithNative(ctx, req)
		require.NoError(t, err)
	}

	req := f.voucher(t, "buyer-1", 2, standingSeat())
	req.AmountSent = decimal.RequireFromString("0.51")
	_, err := f.svc.PayWithNative(ctx, req)
	assert.ErrorIs(t, err, ErrExceedsMaxSupply)

	tier, _ := f.svc.GetTier(ctx, "standing")
	assert.Equal(t, int64(2), tier.Sold)
	assert.Equal(t, tier.MaxSupply, tier.Sold)
}

func TestBatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.voucher(t, "buyer-1", 0, vipSeat("7"))
	first.AmountSent = decimal.RequireFromString("2.02")
	_, err := f.svc.PayWithNative(ctx, first)
	require.NoError(t, err)

	batch := f.voucher(t, "buyer-2", 0, vipSeat("8"), vipSeat("7"), vipSeat("9"))
	batch.AmountSent = decimal.RequireFromString("6.06")
	_, err = f.svc.PayBatchWithNative(ctx, batch)
	assert.ErrorIs(t, err, ErrSeatAlreadyClaimed)

	tier, _ := f.svc.GetTier(ctx, "vip")
	assert.Equal(t, int64(1), tier.Sold, "batch must not partially mint")
	assert.Equal(t, uint64(0), f.repo.state.nonces["buyer-2"])
	tickets, _ := f.svc.ListTicketsByOwner(ctx, "buyer-2")
	assert.Empty(t, tickets)
}

func TestBatchRejectsDuplicateSeatWithinBatch(t *testing.T) {
	f := newFixture(t)

	batch := f.voucher(t, "buyer-1", 0, vipSeat("8"), vipSeat("8"))
	batch.AmountSent = decimal.RequireFromString("4.04")
	_, err := f.svc.PayBatchWithNative(context.Background(), batch)
	assert.ErrorIs(t, err, ErrSeatAlreadyClaimed)
}

func TestBatchPriceIsSumOfPerSeatQuotes(t *testing.T) {
	f := newFixture(t)

	batch := f.voucher(t, "buyer-1", 0, vipSeat("1"), standingSeat())
	batch.AmountSent = decimal.RequireFromString("2.53")

	result, err := f.svc.PayBatchWithNative(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.53").Equal(result.Required))
	require.Len(t, result.Tickets, 2)
}

func TestAssetPaymentPullsExactlyRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetAllowance(ctx, "buyer-1", "USDX", decimal.RequireFromString("5.00")))

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	result, err := f.svc.PayWithAsset(ctx, "USDX", req)
	require.NoError(t, err)
	assert.True(t, result.Refund.IsZero())

	remaining := f.repo.state.allowances["buyer-1|USDX"]
	assert.True(t, decimal.RequireFromString("2.98").Equal(remaining), "remaining allowance %s", remaining)
}

func TestAssetPaymentInsufficientAllowance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetAllowance(ctx, "buyer-1", "USDX", decimal.RequireFromString("1.00")))

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	_, err := f.svc.PayWithAsset(ctx, "USDX", req)
	assert.ErrorIs(t, err, ErrInsufficientAmount)

	assert.Equal(t, uint64(0), f.repo.state.nonces["buyer-1"])
	assert.True(t, decimal.RequireFromString("1.00").Equal(f.repo.state.allowances["buyer-1|USDX"]))
}

func TestExpiredVoucherRejected(t *testing.T) {
	f := newFixture(t)

	v := signer.Voucher{
		ContextID: f.cfg.Signer.ContextID,
		Recipient: "buyer-1",
		Seats:     []signer.Seat{vipSeat("12")},
		Nonce:     0,
		Deadline:  time.Now().Add(-time.Minute).Unix(),
	}
	sig, err := f.issuer.Sign(v)
	require.NoError(t, err)

	req := PaymentRequest{Voucher: v, Signature: sig, Payer: "buyer-1", AmountSent: decimal.RequireFromString("2.02")}
	_, err = f.svc.PayWithNative(context.Background(), req)
	assert.ErrorIs(t, err, signer.ErrSignatureExpired)
}

func TestForgedSignatureRejected(t *testing.T) {
	f := newFixture(t)

	rogue, err := signer.NewIssuer()
	require.NoError(t, err)

	v := signer.Voucher{
		ContextID: f.cfg.Signer.ContextID,
		Recipient: "buyer-1",
		Seats:     []signer.Seat{vipSeat("12")},
		Deadline:  time.Now().Add(time.Hour).Unix(),
	}
	sig, err := rogue.Sign(v)
	require.NoError(t, err)

	req := PaymentRequest{Voucher: v, Signature: sig, Payer: "buyer-1", AmountSent: decimal.RequireFromString("2.02")}
	_, err = f.svc.PayWithNative(context.Background(), req)
	assert.ErrorIs(t, err, signer.ErrInvalidSignature)
	assert.Equal(t, uint64(0), f.repo.state.nonces["buyer-1"])
}

func TestAdminMintKeepsSeatAndSupplyChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AdminMint(ctx, "vip-guest", []signer.Seat{vipSeat("12")})
	require.NoError(t, err)

	_, err = f.svc.AdminMint(ctx, "other-guest", []signer.Seat{vipSeat("12")})
	assert.ErrorIs(t, err, ErrSeatAlreadyClaimed)

	// supply cap still binds
	_, err = f.svc.AdminMint(ctx, "guest", []signer.Seat{standingSeat(), standingSeat(), standingSeat()})
	assert.ErrorIs(t, err, ErrExceedsMaxSupply)
}

func TestSetTierSuppliesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SetTierSupplies(ctx, []string{"vip", "standing"}, []int64{200})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = f.svc.AdminMint(ctx, "guest", []signer.Seat{standingSeat(), standingSeat()})
	require.NoError(t, err)

	err = f.svc.SetTierSupplies(ctx, []string{"standing"}, []int64{1})
	assert.ErrorIs(t, err, ErrInvalidSupply)

	require.NoError(t, f.svc.SetTierSupplies(ctx, []string{"standing"}, []int64{5}))
	tier, _ := f.svc.GetTier(ctx, "standing")
	assert.Equal(t, int64(5), tier.MaxSupply)
}

func TestWithdrawZeroesRetainedBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	req.AmountSent = decimal.RequireFromString("2.02")
	result, err := f.svc.PayWithNative(ctx, req)
	require.NoError(t, err)

	w, err := f.svc.WithdrawNative(ctx, "ops-wallet")
	require.NoError(t, err)
	assert.True(t, w.Amount.Equal(result.Net))

	assert.True(t, f.repo.state.balances["NATIVE"].IsZero())
}

func TestPausedLedgerRejectsPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Pause(ctx))

	req := f.voucher(t, "buyer-1", 0, vipSeat("12"))
	req.AmountSent = decimal.RequireFromString("2.02")
	_, err := f.svc.PayWithNative(ctx, req)
	assert.ErrorIs(t, err, ErrLedgerPaused)

	require.NoError(t, f.svc.Unpause(ctx))
	_, err = f.svc.PayWithNative(ctx, req)
	require.NoError(t, err)
}

func TestTransferTicketOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.AdminMint(ctx, "seller-1", []signer.Seat{vipSeat("12")})
	require.NoError(t, err)
	ticket := result.Tickets[0]

	err = f.svc.TransferTicket(ctx, ticket.ContractAddr, ticket.TokenID, "stranger", "buyer-9")
	assert.ErrorIs(t, err, ErrNotTicketOwner)

	require.NoError(t, f.svc.TransferTicket(ctx, ticket.ContractAddr, ticket.TokenID, "seller-1", "buyer-9"))

	moved, err := f.svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer-9", moved.Owner)
}

func TestSplitFeeConservesTotal(t *testing.T) {
	cases := []struct {
		amount string
		bps    int64
	}{
		{"2.02", 250},
		{"0.01", 250},
		{"100", 1000},
		{"33.67", 777},
		{"1.000001", 1},
	}
	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.amount)
		fee, net := splitFee(amount, tc.bps)
		assert.True(t, fee.Add(net).Equal(amount), "amount=%s bps=%d fee=%s net=%s", tc.amount, tc.bps, fee, net)
		assert.False(t, fee.IsNegative())
		assert.False(t, net.IsNegative())
	}
}

// settingsErrRepo fakes a failing settings read.
type settingsErrRepo struct {
	Repository
	readErr error
}

func (r settingsErrRepo) GetSettings(ctx context.Context) (*LedgerSettings, error) {
	return nil, r.readErr
}

func TestEnsureSettingsOnlySeedsWhenMissing(t *testing.T) {
	repo := newMemRepo()
	repo.state.settings.FeeRateBps = 500 // manager-tuned value

	cfg := &config.Config{}
	cfg.Issuance.FeeRateBps = 250
	cfg.Issuance.Treasury = "treasury"

	transient := errors.New("connection reset by peer")
	err := EnsureSettings(context.Background(), settingsErrRepo{repo, transient}, cfg)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, int64(500), repo.state.settings.FeeRateBps, "a transient read error must not reseed settings")

	err = EnsureSettings(context.Background(), settingsErrRepo{repo, gorm.ErrRecordNotFound}, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(250), repo.state.settings.FeeRateBps)
	assert.Equal(t, "treasury", repo.state.settings.Treasury)
}
