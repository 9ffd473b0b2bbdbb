package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
	"github.com/asif4762/bookbarn-final-server/internal/infrastructure/memory"
)

func newListing(t *testing.T, id string, price int64, quantity int) *catalog.Listing {
	t.Helper()
	listing, err := catalog.New(id, "Linear Algebra Done Right", "Axler", "seller@example.com", price, quantity)
	require.NoError(t, err)
	return listing
}

func TestCatalogInsertAndFind(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newListing(t, "book-1", 1200, 3)))
	assert.ErrorIs(t, repo.Insert(ctx, newListing(t, "book-1", 1200, 3)), catalog.ErrConflict)

	found, err := repo.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), found.Price)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalogFindReturnsCopy(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newListing(t, "book-1", 1200, 3)))

	found, err := repo.FindByID(ctx, "book-1")
	require.NoError(t, err)
	found.Quantity = 99

	again, err := repo.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Quantity)
}

func TestCatalogListFilters(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()

	a := newListing(t, "book-a", 900, 1)
	a.Category = "math"
	b := newListing(t, "book-b", 900, 1)
	b.Category = "cs"
	b.SellerEmail = "other@example.com"
	require.NoError(t, repo.Insert(ctx, a))
	require.NoError(t, repo.Insert(ctx, b))

	byCategory, err := repo.List(ctx, catalog.Filter{Category: "math"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "book-a", byCategory[0].ID)

	bySeller, err := repo.List(ctx, catalog.Filter{SellerEmail: "other@example.com"})
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, "book-b", bySeller[0].ID)

	all, err := repo.List(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDecrementStockOutcomes(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newListing(t, "book-1", 1000, 2)))

	outcome, err := repo.DecrementStock(ctx, "book-1", 2, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.DecrementApplied, outcome)

	listing, err := repo.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Zero(t, listing.Quantity)
	assert.Equal(t, 2, listing.OrderCount)

	// stock exhausted: later transactions are skipped, not failed
	outcome, err = repo.DecrementStock(ctx, "book-1", 1, "txn-2")
	require.NoError(t, err)
	assert.Equal(t, catalog.DecrementInsufficientStock, outcome)

	outcome, err = repo.DecrementStock(ctx, "missing", 1, "txn-3")
	require.NoError(t, err)
	assert.Equal(t, catalog.DecrementListingNotFound, outcome)
}

func TestDecrementStockIsIdempotentPerDedupKey(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newListing(t, "book-1", 1000, 5)))

	first, err := repo.DecrementStock(ctx, "book-1", 2, "txn-1")
	require.NoError(t, err)
	require.Equal(t, catalog.DecrementApplied, first)

	// same transaction retries: first outcome replays, stock untouched
	replay, err := repo.DecrementStock(ctx, "book-1", 2, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.DecrementApplied, replay)

	listing, err := repo.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, listing.Quantity)
	assert.Equal(t, 2, listing.OrderCount)
}

func TestDecrementStockReplaysNegativeOutcome(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()

	outcome, err := repo.DecrementStock(ctx, "book-late", 1, "txn-1")
	require.NoError(t, err)
	require.Equal(t, catalog.DecrementListingNotFound, outcome)

	// the listing shows up afterwards; the recorded outcome still wins
	require.NoError(t, repo.Insert(ctx, newListing(t, "book-late", 1000, 5)))
	replay, err := repo.DecrementStock(ctx, "book-late", 1, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.DecrementListingNotFound, replay)

	listing, err := repo.FindByID(ctx, "book-late")
	require.NoError(t, err)
	assert.Equal(t, 5, listing.Quantity)
}

func TestDecrementStockRejectsNonPositiveAmount(t *testing.T) {
	repo := memory.NewCatalogRepository()
	require.NoError(t, repo.Insert(context.Background(), newListing(t, "book-1", 1000, 5)))

	_, err := repo.DecrementStock(context.Background(), "book-1", 0, "txn-1")
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)
}

func TestDecrementStockConcurrentNeverOversells(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()
	const stock = 10
	require.NoError(t, repo.Insert(ctx, newListing(t, "book-1", 1000, stock)))

	const workers = 50
	outcomes := make([]catalog.DecrementOutcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := repo.DecrementStock(ctx, "book-1", 1, fmt.Sprintf("txn-%d", i))
			if err == nil {
				outcomes[i] = outcome
			}
		}(i)
	}
	wg.Wait()

	var applied int
	for _, outcome := range outcomes {
		if outcome.Applied() {
			applied++
		}
	}
	// 50 distinct transactions fought over 10 copies
	assert.Equal(t, stock, applied)

	listing, err := repo.FindByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Zero(t, listing.Quantity)
	assert.Equal(t, stock, listing.OrderCount)
}
