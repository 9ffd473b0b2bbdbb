package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domcatalog "github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
	domcheckout "github.com/asif4762/bookbarn-final-server/internal/domain/checkout"
	domoutbox "github.com/asif4762/bookbarn-final-server/internal/domain/outbox"
)

// Worker watches completed checkouts and flags listings whose remaining
// stock fell to the configured threshold, so sellers can restock before the
// title sells out.
type Worker struct {
	repo       domcatalog.Repository
	subscriber domoutbox.Subscriber
	threshold  int
	log        *zap.Logger

	booksSold prometheus.Counter
	lowStock  prometheus.Counter
}

func NewWorker(
	repo domcatalog.Repository,
	subscriber domoutbox.Subscriber,
	threshold int,
	logger *zap.Logger,
	booksSold, lowStock prometheus.Counter,
) *Worker {
	if logger == nil {
		logger = zap.L()
	}
	return &Worker{
		repo:       repo,
		subscriber: subscriber,
		threshold:  threshold,
		log:        logger.With(zap.String("component", "stock_watcher")),
		booksSold:  booksSold,
		lowStock:   lowStock,
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.repo == nil {
		return
	}
	w.subscriber.Subscribe(domcheckout.CompletedEvent{}.EventName(), w.handleCheckoutCompleted)
}

func (w *Worker) handleCheckoutCompleted(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domcheckout.CompletedEvent)
	if !ok {
		return nil
	}

	logger := w.log.With(zap.String("transaction_id", evt.TransactionID))

	for _, line := range evt.Lines {
		if !line.Fulfilled {
			continue
		}
		if w.booksSold != nil {
			w.booksSold.Add(float64(line.Count))
		}

		listing, err := w.repo.FindByID(ctx, line.BookID)
		if errors.Is(err, domcatalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stock watcher: load listing %s: %w", line.BookID, err)
		}

		if listing.Quantity <= w.threshold {
			if w.lowStock != nil {
				w.lowStock.Inc()
			}
			logger.Warn("low_stock",
				zap.String("listing_id", listing.ID),
				zap.String("title", listing.Title),
				zap.Int("quantity", listing.Quantity),
				zap.Int("threshold", w.threshold),
			)
		}
	}
	return nil
}
