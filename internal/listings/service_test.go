package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketforge/internal/shared/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// in-memory repository with transactional rollback semantics

type regState struct {
	listings    map[int64]*Listing
	ticketState map[uuid.UUID]TicketState
	requests    map[uuid.UUID]VerificationRequest
	contracts   map[string]bool
	settlements []SettlementEntry
	settings    RegistrySettings
	nextID      int64
}

func newRegState() *regState {
	return &regState{
		listings:    make(map[int64]*Listing),
		ticketState: make(map[uuid.UUID]TicketState),
		requests:    make(map[uuid.UUID]VerificationRequest),
		contracts:   make(map[string]bool),
		settings: RegistrySettings{
			ID:           1,
			FeeBps:       250,
			FeeRecipient: "platform",
			MinDuration:  3600,
			MaxDuration:  30 * 24 * 3600,
		},
		nextID: 1,
	}
}

func (s *regState) clone() *regState {
	c := newRegState()
	for k, v := range s.listings {
		l := *v
		c.listings[k] = &l
	}
	for k, v := range s.ticketState {
		c.ticketState[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.contracts {
		c.contracts[k] = v
	}
	c.settlements = append([]SettlementEntry(nil), s.settlements...)
	c.settings = s.settings
	c.nextID = s.nextID
	return c
}

type regRepo struct {
	state *regState
}

func newRegRepo() *regRepo {
	return &regRepo{state: newRegState()}
}

func (r *regRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	backup := r.state.clone()
	if err := fn(r); err != nil {
		r.state = backup
		return err
	}
	return nil
}

func (r *regRepo) CreateListing(ctx context.Context, listing *Listing) error {
	listing.ID = r.state.nextID
	r.state.nextID++
	l := *listing
	r.state.listings[listing.ID] = &l
	return nil
}

func (r *regRepo) GetListing(ctx context.Context, id int64) (*Listing, error) {
	listing, ok := r.state.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	l := *listing
	return &l, nil
}

func (r *regRepo) GetListingForUpdate(ctx context.Context, id int64) (*Listing, error) {
	return r.GetListing(ctx, id)
}

func (r *regRepo) ListActiveListings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	for _, l := range r.state.listings {
		if l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *regRepo) SetListingState(ctx context.Context, id int64, active, pendingVerification bool) error {
	l := r.state.listings[id]
	l.Active = active
	l.PendingVerification = pendingVerification
	return nil
}

func (r *regRepo) GetTicketStatus(ctx context.Context, ticketID uuid.UUID) (TicketStatus, error) {
	state, ok := r.state.ticketState[ticketID]
	if !ok {
		return StatusNone, nil
	}
	return state.Status, nil
}

func (r *regRepo) SaveTicketState(ctx context.Context, state *TicketState) error {
	r.state.ticketState[state.TicketID] = *state
	return nil
}

func (r *regRepo) CreateVerificationRequest(ctx context.Context, req *VerificationRequest) error {
	if _, exists := r.state.requests[req.RequestID]; exists {
		return errors.New("duplicate request id")
	}
	r.state.requests[req.RequestID] = *req
	return nil
}

func (r *regRepo) GetVerificationRequest(ctx context.Context, requestID uuid.UUID) (*VerificationRequest, error) {
	req, ok := r.state.requests[requestID]
	if !ok {
		return nil, ErrUnexpectedRequestID
	}
	return &req, nil
}

func (r *regRepo) IsSupportedContract(ctx context.Context, addr string) (bool, error) {
	return r.state.contracts[addr], nil
}

func (r *regRepo) AddSupportedContract(ctx context.Context, addr string) error {
	r.state.contracts[addr] = true
	return nil
}

func (r *regRepo) RemoveSupportedContract(ctx context.Context, addr string) error {
	delete(r.state.contracts, addr)
	return nil
}

func (r *regRepo) ListSupportedContracts(ctx context.Context) ([]SupportedContract, error) {
	var out []SupportedContract
	for addr := range r.state.contracts {
		out = append(out, SupportedContract{Addr: addr})
	}
	return out, nil
}

func (r *regRepo) CreateSettlementEntries(ctx context.Context, entries []SettlementEntry) error {
	r.state.settlements = append(r.state.settlements, entries...)
	return nil
}

func (r *regRepo) GetSettings(ctx context.Context) (*RegistrySettings, error) {
	s := r.state.settings
	return &s, nil
}

func (r *regRepo) SaveSettings(ctx context.Context, settings *RegistrySettings) error {
	settings.ID = 1
	r.state.settings = *settings
	return nil
}

// fakes for the settlement and oracle boundaries

type fakeTransferor struct {
	transfers []string
	failWith  error
}

func (f *fakeTransferor) TransferTicket(ctx context.Context, contract string, tokenID int64, from, to string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.transfers = append(f.transfers, from+"->"+to)
	return nil
}

type fakeDispatcher struct {
	requests map[uuid.UUID]uuid.UUID // requestID -> ticketID
	failWith error
}

func (f *fakeDispatcher) RequestVerification(ctx context.Context, requestID, ticketID uuid.UUID) error {
	if f.failWith != nil {
		return f.failWith
	}
	if f.requests == nil {
		f.requests = make(map[uuid.UUID]uuid.UUID)
	}
	f.requests[requestID] = ticketID
	return nil
}

func (f *fakeDispatcher) onlyRequestID(t *testing.T) uuid.UUID {
	t.Helper()
	require.Len(t, f.requests, 1)
	for id := range f.requests {
		return id
	}
	return uuid.Nil
}

const testContract = "ticketforge-tickets"

type regFixture struct {
	svc        Service
	repo       *regRepo
	transferor *fakeTransferor
	oracle     *fakeDispatcher
}

func newRegFixture(t *testing.T) *regFixture {
	t.Helper()
	repo := newRegRepo()
	repo.state.contracts[testContract] = true
	transferor := &fakeTransferor{}
	oracle := &fakeDispatcher{}
	return &regFixture{
		svc:        NewService(repo, transferor, oracle),
		repo:       repo,
		transferor: transferor,
		oracle:     oracle,
	}
}

func untrackedParams(price string) CreateParams {
	return CreateParams{
		AssetContract: testContract,
		TokenID:       7,
		Seller:        "seller-1",
		Price:         decimal.RequireFromString(price),
		Duration:      7200,
	}
}

func trackedParams(price string, ticketID uuid.UUID) CreateParams {
	p := untrackedParams(price)
	p.TicketID = &ticketID
	return p
}

// TESTS

func TestCreateUntrackedListingIsImmediatelyActive(t *testing.T) {
	f := newRegFixture(t)

	listing, err := f.svc.CreateListing(context.Background(), untrackedParams("40.00"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), listing.ID)
	assert.True(t, listing.Active)
	assert.False(t, listing.PendingVerification)
	assert.Empty(t, f.oracle.requests)
}

func TestCreateTrackedListingDispatchesVerification(t *testing.T) {
	f := newRegFixture(t)
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(context.Background(), trackedParams("40.00", ticketID))
	require.NoError(t, err)

	assert.False(t, listing.Active)
	assert.True(t, listing.PendingVerification)

	requestID := f.oracle.onlyRequestID(t)
	assert.Equal(t, ticketID, f.oracle.requests[requestID])

	status, err := f.svc.TicketStatus(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
}

func TestCreateListingValidation(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	p := untrackedParams("0")
	_, err := f.svc.CreateListing(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	p = untrackedParams("40.00")
	p.Duration = 60 // below the one hour minimum
	_, err = f.svc.CreateListing(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	p = untrackedParams("40.00")
	p.AssetContract = "unknown-contract"
	_, err = f.svc.CreateListing(ctx, p)
	assert.ErrorIs(t, err, ErrUnsupportedContract)
}

func TestListingIDsAreSequentialAndNeverReused(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateListing(ctx, untrackedParams("10"))
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelListing(ctx, first.ID, "seller-1"))

	second, err := f.svc.CreateListing(ctx, untrackedParams("10"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestVerificationSuccessActivatesListing(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)

	requestID := f.oracle.onlyRequestID(t)
	require.NoError(t, f.svc.OnVerificationResult(ctx, requestID, true, 0))

	got, err := f.svc.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.False(t, got.PendingVerification)

	status, _ := f.svc.TicketStatus(ctx, ticketID)
	assert.Equal(t, StatusActive, status)
}

func TestVerificationFailureDelists(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)

	requestID := f.oracle.onlyRequestID(t)
	require.NoError(t, f.svc.OnVerificationResult(ctx, requestID, false, 0))

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.False(t, got.Active)
	assert.False(t, got.PendingVerification)

	status, _ := f.svc.TicketStatus(ctx, ticketID)
	assert.Equal(t, StatusDelisted, status)
}

func TestVerificationUsedTicketDelistsDespiteSuccess(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)

	requestID := f.oracle.onlyRequestID(t)
	require.NoError(t, f.svc.OnVerificationResult(ctx, requestID, true, 1))

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.False(t, got.Active)

	status, _ := f.svc.TicketStatus(ctx, ticketID)
	assert.Equal(t, StatusDelisted, status)
}

func TestVerificationUnknownRequestID(t *testing.T) {
	f := newRegFixture(t)

	err := f.svc.OnVerificationResult(context.Background(), uuid.New(), true, 0)
	assert.ErrorIs(t, err, ErrUnexpectedRequestID)
}

func TestDuplicateVerificationResultIsNoOp(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)

	requestID := f.oracle.onlyRequestID(t)
	require.NoError(t, f.svc.OnVerificationResult(ctx, requestID, true, 0))

	// a late contradictory delivery cannot reopen the resolved state
	require.NoError(t, f.svc.OnVerificationResult(ctx, requestID, false, 1))

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.True(t, got.Active)
	status, _ := f.svc.TicketStatus(ctx, ticketID)
	assert.Equal(t, StatusActive, status)
}

func TestLateResultAfterCancelKeepsTerminalState(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)
	requestID := f.oracle.onlyRequestID(t)

	require.NoError(t, f.svc.CancelListing(ctx, listing.ID, "seller-1"))
	require.NoError(t, f.svc.OnVerificationResult(ctx, requestID, true, 0))

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.False(t, got.Active)
	status, _ := f.svc.TicketStatus(ctx, ticketID)
	assert.Equal(t, StatusDelisted, status)
}

func TestTicketCannotBeListedTwiceConcurrently(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	_, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)

	_, err = f.svc.CreateListing(ctx, trackedParams("45.00", ticketID))
	assert.ErrorIs(t, err, ErrTicketAlreadyListed)
}

func TestPurchaseSettlesFeeSellerAndRefund(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	result, err := f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("41.00"))
	require.NoError(t, err)

	// 250 bps of 40.00 truncated to cents
	assert.True(t, decimal.RequireFromString("1.00").Equal(result.Fee), "fee %s", result.Fee)
	assert.True(t, decimal.RequireFromString("39.00").Equal(result.SellerNet))
	assert.True(t, result.Fee.Add(result.SellerNet).Equal(result.Price))
	assert.True(t, decimal.RequireFromString("1.00").Equal(result.Refund))

	require.Equal(t, []string{"seller-1->buyer-1"}, f.transferor.transfers)

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.False(t, got.Active)

	kinds := make(map[SettlementKind]decimal.Decimal)
	for _, e := range f.repo.state.settlements {
		kinds[e.Kind] = e.Amount
	}
	assert.True(t, kinds[SettlementPlatformFee].Equal(result.Fee))
	assert.True(t, kinds[SettlementSellerNet].Equal(result.SellerNet))
	assert.True(t, kinds[SettlementRefund].Equal(result.Refund))
}

func TestPurchaseMarksTrackedTicketSold(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()
	ticketID := uuid.New()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", ticketID))
	require.NoError(t, err)
	require.NoError(t, f.svc.OnVerificationResult(ctx, f.oracle.onlyRequestID(t), true, 0))

	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("40.00"))
	require.NoError(t, err)

	status, _ := f.svc.TicketStatus(ctx, ticketID)
	assert.Equal(t, StatusSold, status)

	// sold is terminal: a second buyer finds nothing to purchase
	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-2", decimal.RequireFromString("40.00"))
	assert.ErrorIs(t, err, ErrListingNotActive)
}

func TestPurchaseRejectsUnderpayment(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("39.99"))
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.True(t, got.Active)
	assert.Empty(t, f.repo.state.settlements)
}

func TestPurchaseRejectsExpiredListing(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	f.repo.state.listings[listing.ID].CreatedAt = time.Now().Add(-3 * time.Hour)

	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("40.00"))
	assert.ErrorIs(t, err, ErrListingExpired)
}

func TestPurchaseRejectsPendingListing(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, trackedParams("40.00", uuid.New()))
	require.NoError(t, err)

	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("40.00"))
	assert.ErrorIs(t, err, ErrListingNotActive)
}

func TestFailedTransferRollsBackPurchase(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	f.transferor.failWith = errors.New("ownership moved out of band")
	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("40.00"))
	require.Error(t, err)

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.True(t, got.Active, "listing must stay purchasable")
	assert.Empty(t, f.repo.state.settlements)
}

// flakyStateRepo fails SetListingState once state writes start, standing in
// for a commit-time failure on the listing side of a purchase.
type flakyStateRepo struct {
	*regRepo
	failWith error
}

func (r *flakyStateRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.regRepo.Transaction(ctx, func(tx Repository) error {
		return fn(&flakyStateRepo{regRepo: tx.(*regRepo), failWith: r.failWith})
	})
}

func (r *flakyStateRepo) SetListingState(ctx context.Context, id int64, active, pendingVerification bool) error {
	if r.failWith != nil {
		return r.failWith
	}
	return r.regRepo.SetListingState(ctx, id, active, pendingVerification)
}

func TestListingWriteFailurePreventsTransfer(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	// The transferor settles in its own transaction, so a listing-side
	// write failure must surface before ownership ever moves.
	repo := &flakyStateRepo{regRepo: f.repo, failWith: errors.New("write conflict")}
	svc := NewService(repo, f.transferor, f.oracle)

	_, err = svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("40.00"))
	require.Error(t, err)

	assert.Empty(t, f.transferor.transfers, "ownership must not move when the listing write fails")
	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.True(t, got.Active, "listing must stay purchasable")
	assert.Empty(t, f.repo.state.settlements)
}

func TestFailedDispatchRollsBackCreate(t *testing.T) {
	f := newRegFixture(t)

	f.oracle.failWith = errors.New("broker unavailable")
	_, err := f.svc.CreateListing(context.Background(), trackedParams("40.00", uuid.New()))
	require.Error(t, err)

	assert.Empty(t, f.repo.state.listings)
	assert.Empty(t, f.repo.state.requests)
}

func TestCancelListingSellerOnly(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	err = f.svc.CancelListing(ctx, listing.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotSeller)

	require.NoError(t, f.svc.CancelListing(ctx, listing.ID, "seller-1"))

	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.False(t, got.Active)

	// delisted is terminal
	err = f.svc.CancelListing(ctx, listing.ID, "seller-1")
	assert.ErrorIs(t, err, ErrListingNotActive)
}

func TestEmergencyCancelIgnoresSeller(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	require.NoError(t, f.svc.EmergencyCancelListing(ctx, listing.ID))
	got, _ := f.svc.GetListing(ctx, listing.ID)
	assert.False(t, got.Active)
}

func TestPauseBlocksCreateAndPurchaseButNotCancel(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, untrackedParams("40.00"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Pause(ctx))

	_, err = f.svc.CreateListing(ctx, untrackedParams("10.00"))
	assert.ErrorIs(t, err, ErrRegistryPaused)

	_, err = f.svc.PurchaseListing(ctx, listing.ID, "buyer-1", decimal.RequireFromString("40.00"))
	assert.ErrorIs(t, err, ErrRegistryPaused)

	require.NoError(t, f.svc.CancelListing(ctx, listing.ID, "seller-1"))

	require.NoError(t, f.svc.Unpause(ctx))
	_, err = f.svc.CreateListing(ctx, untrackedParams("10.00"))
	require.NoError(t, err)
}

func TestSetterBounds(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SetFeeBps(ctx, 1001), ErrInvalidFeePercent)
	require.NoError(t, f.svc.SetFeeBps(ctx, 1000))

	assert.ErrorIs(t, f.svc.SetFeeRecipient(ctx, ""), ErrZeroAddress)
	require.NoError(t, f.svc.SetFeeRecipient(ctx, "new-platform"))

	assert.ErrorIs(t, f.svc.SetDurations(ctx, 0, 100), ErrInvalidDuration)
	assert.ErrorIs(t, f.svc.SetDurations(ctx, 100, 100), ErrInvalidDuration)
	require.NoError(t, f.svc.SetDurations(ctx, 60, 120))

	settings, err := f.repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), settings.FeeBps)
	assert.Equal(t, "new-platform", settings.FeeRecipient)
	assert.Equal(t, int64(60), settings.MinDuration)
	assert.Equal(t, int64(120), settings.MaxDuration)
}

func TestSplitPriceConservesTotal(t *testing.T) {
	cases := []struct {
		price string
		bps   int64
	}{
		{"40.00", 250},
		{"0.01", 1000},
		{"99.99", 333},
		{"1", 999},
	}
	for _, tc := range cases {
		price := decimal.RequireFromString(tc.price)
		fee, net := splitPrice(price, tc.bps)
		assert.True(t, fee.Add(net).Equal(price), "price=%s bps=%d fee=%s net=%s", tc.price, tc.bps, fee, net)
		assert.False(t, fee.IsNegative())
		assert.False(t, net.IsNegative())
	}
}

// settingsErrRepo fakes a failing settings read.
type settingsErrRepo struct {
	Repository
	readErr error
}

func (r settingsErrRepo) GetSettings(ctx context.Context) (*RegistrySettings, error) {
	return nil, r.readErr
}

func TestEnsureSettingsOnlySeedsWhenMissing(t *testing.T) {
	repo := newRegRepo()
	cfg := &config.Config{}
	cfg.Listings.FeeBps = 300
	cfg.Listings.FeeRecipient = "platform"
	cfg.Listings.MinDuration = time.Hour
	cfg.Listings.MaxDuration = 48 * time.Hour

	transient := errors.New("connection reset by peer")
	err := EnsureSettings(context.Background(), settingsErrRepo{repo, transient}, cfg)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, int64(250), repo.state.settings.FeeBps, "a transient read error must not reseed settings")

	err = EnsureSettings(context.Background(), settingsErrRepo{repo, gorm.ErrRecordNotFound}, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(300), repo.state.settings.FeeBps)
	assert.Equal(t, int64(3600), repo.state.settings.MinDuration)
}
