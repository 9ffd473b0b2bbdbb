package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcheckout "github.com/asif4762/bookbarn-final-server/internal/application/checkout"
	"github.com/asif4762/bookbarn-final-server/internal/domain/billing"
	"github.com/asif4762/bookbarn-final-server/internal/domain/cart"
	"github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
	domcheckout "github.com/asif4762/bookbarn-final-server/internal/domain/checkout"
	"github.com/asif4762/bookbarn-final-server/internal/infrastructure/memory"
)

type stubGateway struct {
	mu    sync.Mutex
	calls []domcheckout.SessionRequest
	err   error
}

func (g *stubGateway) CreateSession(_ context.Context, req domcheckout.SessionRequest) (*domcheckout.GatewaySession, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &domcheckout.GatewaySession{
		TransactionID: req.TransactionID,
		BuyerEmail:    req.BuyerEmail,
		TotalAmount:   req.TotalAmount,
		RedirectURL:   "https://pay.example/session/" + req.TransactionID,
	}, nil
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type seqIDs struct {
	n atomic.Int64
}

func (s *seqIDs) NewID() string {
	return fmt.Sprintf("id-%d", s.n.Add(1))
}

type fixture struct {
	service *appcheckout.Service
	carts   *memory.CartRepository
	catalog *memory.CatalogRepository
	ledger  *memory.BillingLedger
	gateway *stubGateway
}

func newFixture() *fixture {
	carts := memory.NewCartRepository()
	catalogRepo := memory.NewCatalogRepository()
	ledger := memory.NewBillingLedger()
	gw := &stubGateway{}
	svc := appcheckout.NewService(carts, catalogRepo, ledger, gw, &seqIDs{}, nil, nil)
	return &fixture{
		service: svc,
		carts:   carts,
		catalog: catalogRepo,
		ledger:  ledger,
		gateway: gw,
	}
}

func seedListing(t *testing.T, repo *memory.CatalogRepository, id string, price int64, quantity int) {
	t.Helper()
	listing, err := catalog.New(id, "Intro to Algorithms", "Cormen", "seller@example.com", price, quantity)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), listing))
}

func seedCartItem(t *testing.T, repo cart.Repository, email, bookID string, price int64, count int) {
	t.Helper()
	item, err := cart.NewItem(email, bookID, count)
	require.NoError(t, err)
	item.Title = "Intro to Algorithms"
	item.Author = "Cormen"
	item.Price = price
	require.NoError(t, repo.Upsert(context.Background(), item))
}

func TestInitiateRepricesFromCatalog(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-1", 1500, 5)

	result, err := f.service.Initiate(ctx, appcheckout.InitiateInput{
		BuyerEmail: "buyer@example.com",
		Lines: []appcheckout.LineInput{
			// the count matters, any client-side price does not
			{BookID: "book-1", Count: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3000), result.TotalAmount)
	assert.Equal(t, domcheckout.StatusSessionCreated, result.Status)
	assert.NotEmpty(t, result.TransactionID)
	assert.Equal(t, "https://pay.example/session/"+result.TransactionID, result.RedirectURL)

	require.Equal(t, 1, f.gateway.callCount())
	assert.Equal(t, int64(3000), f.gateway.calls[0].TotalAmount)
}

func TestInitiateValidation(t *testing.T) {
	tests := []struct {
		name  string
		input appcheckout.InitiateInput
	}{
		{
			name:  "missing buyer email",
			input: appcheckout.InitiateInput{Lines: []appcheckout.LineInput{{BookID: "book-1", Count: 1}}},
		},
		{
			name:  "no line items",
			input: appcheckout.InitiateInput{BuyerEmail: "buyer@example.com"},
		},
		{
			name: "missing book id",
			input: appcheckout.InitiateInput{
				BuyerEmail: "buyer@example.com",
				Lines:      []appcheckout.LineInput{{Count: 1}},
			},
		},
		{
			name: "zero count",
			input: appcheckout.InitiateInput{
				BuyerEmail: "buyer@example.com",
				Lines:      []appcheckout.LineInput{{BookID: "book-1", Count: 0}},
			},
		},
		{
			name: "unknown book",
			input: appcheckout.InitiateInput{
				BuyerEmail: "buyer@example.com",
				Lines:      []appcheckout.LineInput{{BookID: "no-such-book", Count: 1}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.Initiate(context.Background(), tc.input)
			require.ErrorIs(t, err, domcheckout.ErrValidation)
			assert.Zero(t, f.gateway.callCount(), "no session may be created for an invalid request")
		})
	}
}

func TestInitiateGatewayFailure(t *testing.T) {
	f := newFixture()
	f.gateway.err = errors.New("connection refused")
	seedListing(t, f.catalog, "book-1", 1000, 3)

	_, err := f.service.Initiate(context.Background(), appcheckout.InitiateInput{
		BuyerEmail: "buyer@example.com",
		Lines:      []appcheckout.LineInput{{BookID: "book-1", Count: 1}},
	})
	require.ErrorIs(t, err, domcheckout.ErrGateway)
}

func TestConfirmFulfillsCartAndWritesLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-1", 1500, 5)
	seedListing(t, f.catalog, "book-2", 800, 2)
	seedCartItem(t, f.carts, "buyer@example.com", "book-1", 1500, 2)
	seedCartItem(t, f.carts, "buyer@example.com", "book-2", 800, 1)

	result, err := f.service.Confirm(ctx, "txn-1", "buyer@example.com")
	require.NoError(t, err)

	assert.Equal(t, domcheckout.StatusReconciled, result.Status)
	assert.False(t, result.Replayed)
	require.NotNil(t, result.Record)
	assert.Equal(t, "txn-1", result.Record.TransactionID)
	assert.Len(t, result.Record.Lines, 2)
	for _, line := range result.Record.Lines {
		assert.True(t, line.Fulfilled)
		assert.Empty(t, line.Reason)
	}
	assert.Equal(t, int64(2*1500+800), result.Record.Total())

	book1, err := f.catalog.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, book1.Quantity)
	assert.Equal(t, 2, book1.OrderCount)

	items, err := f.carts.ListByBuyer(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Empty(t, items, "cart must be cleared after reconciliation")

	records, err := f.ledger.ListByBuyer(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestConfirmReplayIsSideEffectFree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-1", 1200, 4)
	seedCartItem(t, f.carts, "buyer@example.com", "book-1", 1200, 1)

	first, err := f.service.Confirm(ctx, "txn-replay", "buyer@example.com")
	require.NoError(t, err)
	require.False(t, first.Replayed)

	// the gateway redelivers the callback
	second, err := f.service.Confirm(ctx, "txn-replay", "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, domcheckout.StatusReconciled, second.Status)
	assert.Equal(t, first.Record.ID, second.Record.ID)

	listing, err := f.catalog.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, listing.Quantity, "stock decrements exactly once across replays")

	records, err := f.ledger.ListByBuyer(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConfirmEmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.service.Confirm(context.Background(), "txn-forged", "buyer@example.com")
	require.ErrorIs(t, err, domcheckout.ErrEmptyCart)

	_, err = f.ledger.FindByTransaction(context.Background(), "txn-forged")
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestConfirmValidation(t *testing.T) {
	f := newFixture()

	_, err := f.service.Confirm(context.Background(), "", "buyer@example.com")
	require.ErrorIs(t, err, domcheckout.ErrValidation)

	_, err = f.service.Confirm(context.Background(), "txn-1", "")
	require.ErrorIs(t, err, domcheckout.ErrValidation)
}

func TestConfirmPartialFulfillment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-scarce", 2000, 1)
	seedListing(t, f.catalog, "book-plenty", 500, 10)
	seedCartItem(t, f.carts, "buyer@example.com", "book-scarce", 2000, 2) // more than the last copy
	seedCartItem(t, f.carts, "buyer@example.com", "book-plenty", 500, 3)

	result, err := f.service.Confirm(ctx, "txn-partial", "buyer@example.com")
	require.NoError(t, err, "a skipped line must not fail the checkout")

	require.Len(t, result.Record.Lines, 2)
	byBook := map[string]billing.Line{}
	for _, line := range result.Record.Lines {
		byBook[line.BookID] = line
	}
	assert.False(t, byBook["book-scarce"].Fulfilled)
	assert.Equal(t, string(catalog.DecrementInsufficientStock), byBook["book-scarce"].Reason)
	assert.True(t, byBook["book-plenty"].Fulfilled)

	// the skipped listing keeps its stock
	scarce, err := f.catalog.FindByID(ctx, "book-scarce")
	require.NoError(t, err)
	assert.Equal(t, 1, scarce.Quantity)
	assert.Zero(t, scarce.OrderCount)

	plenty, err := f.catalog.FindByID(ctx, "book-plenty")
	require.NoError(t, err)
	assert.Equal(t, 7, plenty.Quantity)

	// total covers every line so it matches the session amount
	assert.Equal(t, int64(2*2000+3*500), result.Record.Total())

	items, err := f.carts.ListByBuyer(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConfirmUnknownBookLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedCartItem(t, f.carts, "buyer@example.com", "book-deleted", 900, 1)

	result, err := f.service.Confirm(ctx, "txn-gone", "buyer@example.com")
	require.NoError(t, err)

	require.Len(t, result.Record.Lines, 1)
	assert.False(t, result.Record.Lines[0].Fulfilled)
	assert.Equal(t, string(catalog.DecrementListingNotFound), result.Record.Lines[0].Reason)
}

func TestConcurrentConfirmsOfSameTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-1", 1000, 5)
	seedCartItem(t, f.carts, "buyer@example.com", "book-1", 1000, 1)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Confirm(ctx, "txn-race", "buyer@example.com")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// a loser that read the cart after the winner cleared it sees an
		// empty cart; no other failure is acceptable
		require.ErrorIs(t, err, domcheckout.ErrEmptyCart)
	}
	require.GreaterOrEqual(t, succeeded, 1)

	listing, err := f.catalog.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 4, listing.Quantity, "stock decrements exactly once")
	assert.Equal(t, 1, listing.OrderCount)

	records, err := f.ledger.ListByBuyer(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, records, 1, "exactly one ledger record per transaction")
}

func TestTwoBuyersRaceForLastCopy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-last", 1000, 1)
	seedCartItem(t, f.carts, "alice@example.com", "book-last", 1000, 1)
	seedCartItem(t, f.carts, "bob@example.com", "book-last", 1000, 1)

	var wg sync.WaitGroup
	results := make([]*appcheckout.ConfirmResult, 2)
	confirmErrs := make([]error, 2)
	buyers := []struct{ txn, email string }{
		{"txn-alice", "alice@example.com"},
		{"txn-bob", "bob@example.com"},
	}
	for i, b := range buyers {
		wg.Add(1)
		go func(i int, txn, email string) {
			defer wg.Done()
			results[i], confirmErrs[i] = f.service.Confirm(ctx, txn, email)
		}(i, b.txn, b.email)
	}
	wg.Wait()

	var fulfilled, skipped int
	for i, result := range results {
		require.NoError(t, confirmErrs[i])
		require.Len(t, result.Record.Lines, 1)
		if result.Record.Lines[0].Fulfilled {
			fulfilled++
		} else {
			skipped++
			assert.Equal(t, string(catalog.DecrementInsufficientStock), result.Record.Lines[0].Reason)
		}
	}
	assert.Equal(t, 1, fulfilled, "only one buyer gets the last copy")
	assert.Equal(t, 1, skipped)

	listing, err := f.catalog.FindByID(ctx, "book-last")
	require.NoError(t, err)
	assert.Zero(t, listing.Quantity)
	assert.Equal(t, 1, listing.OrderCount)
}

func TestInitiateConfirmTotalsAgree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedListing(t, f.catalog, "book-1", 1500, 5)
	seedListing(t, f.catalog, "book-2", 700, 5)
	seedCartItem(t, f.carts, "buyer@example.com", "book-1", 1500, 2)
	seedCartItem(t, f.carts, "buyer@example.com", "book-2", 700, 1)

	initiated, err := f.service.Initiate(ctx, appcheckout.InitiateInput{
		BuyerEmail: "buyer@example.com",
		Lines: []appcheckout.LineInput{
			{BookID: "book-1", Count: 2},
			{BookID: "book-2", Count: 1},
		},
	})
	require.NoError(t, err)

	confirmed, err := f.service.Confirm(ctx, initiated.TransactionID, "buyer@example.com")
	require.NoError(t, err)

	assert.Equal(t, initiated.TotalAmount, confirmed.Record.Total(),
		"ledger total must match the amount the session was created with")
}
