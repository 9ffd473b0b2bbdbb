package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/asif4762/bookbarn-final-server/internal/domain/billing"
	"github.com/asif4762/bookbarn-final-server/internal/domain/cart"
	"github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
	domcheckout "github.com/asif4762/bookbarn-final-server/internal/domain/checkout"
	domoutbox "github.com/asif4762/bookbarn-final-server/internal/domain/outbox"
	"github.com/asif4762/bookbarn-final-server/internal/pkg/logging"
)

const (
	useCaseInitiate = "checkout.initiate"
	useCaseConfirm  = "checkout.confirm"
	spanPrefix      = "UC."
	publishTimeout  = 300 * time.Millisecond
)

// Service is the fulfillment orchestrator. Initiate turns a buyer's cart
// into a hosted-payment session; Confirm handles the gateway callback and
// reconciles stock, ledger and cart. No long-lived locks are held across the
// confirm sequence; each step is individually safe to retry (conditional
// decrement deduped per transaction, unique-constrained ledger append,
// idempotent cart clear).
type Service struct {
	carts     cart.Repository
	catalog   catalog.Repository
	ledger    billing.Ledger
	gateway   domcheckout.Gateway
	ids       IDGenerator
	publisher domoutbox.Publisher
	metrics   *Metrics
	tracer    trace.Tracer
}

func NewService(
	carts cart.Repository,
	catalogRepo catalog.Repository,
	ledger billing.Ledger,
	gateway domcheckout.Gateway,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	metrics *Metrics,
) *Service {
	return &Service{
		carts:     carts,
		catalog:   catalogRepo,
		ledger:    ledger,
		gateway:   gateway,
		ids:       ids,
		publisher: publisher,
		metrics:   metrics,
		tracer:    otel.Tracer("bookbarn.checkout"),
	}
}

type LineInput struct {
	BookID string
	Count  int
}

type InitiateInput struct {
	BuyerEmail string
	Lines      []LineInput
}

type InitiateResult struct {
	TransactionID string
	RedirectURL   string
	TotalAmount   int64
	Status        domcheckout.Status
}

// Initiate validates the request, re-prices every line from the catalog,
// creates a gateway session under a fresh transaction id and returns the
// redirect target. Nothing is persisted on this path, so a failed initiate
// is always safe to retry.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (_ *InitiateResult, err error) {
	logger := logging.FromContext(ctx).With(zap.String("use_case", useCaseInitiate))

	ctx, span := s.tracer.Start(ctx, spanPrefix+"InitiateCheckout",
		trace.WithAttributes(
			attribute.String("use_case", useCaseInitiate),
			attribute.String("checkout.buyer_email", input.BuyerEmail),
			attribute.Int("checkout.lines", len(input.Lines)),
		),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.metrics.observe(useCaseInitiate, outcome, lat)

		fields := []zap.Field{
			zap.String("outcome", outcome),
			zap.String("status", statusText),
			zap.Float64("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	if input.BuyerEmail == "" {
		outcome, statusText = "error", "BUYER_REQUIRED"
		return nil, validation("buyer email is required")
	}
	if len(input.Lines) == 0 {
		outcome, statusText = "error", "EMPTY_LINE_ITEMS"
		return nil, validation("line items are required")
	}
	for _, line := range input.Lines {
		if line.BookID == "" {
			outcome, statusText = "error", "BOOK_ID_REQUIRED"
			return nil, validation("book id is required")
		}
		if line.Count < 1 {
			outcome, statusText = "error", "COUNT_INVALID"
			return nil, validation("count must be at least one")
		}
	}

	// Client-supplied prices are hints only; the catalog is authoritative.
	var total int64
	for _, line := range input.Lines {
		listing, ferr := s.catalog.FindByID(ctx, line.BookID)
		if errors.Is(ferr, catalog.ErrNotFound) {
			outcome, statusText = "error", "UNKNOWN_BOOK"
			return nil, validation(fmt.Sprintf("unknown book %s", line.BookID))
		}
		if ferr != nil {
			outcome, statusText = "error", "CATALOG_LOOKUP_FAILED"
			return nil, fmt.Errorf("checkout: price lookup: %w", ferr)
		}
		total += listing.Price * int64(line.Count)
	}

	chk := domcheckout.New(s.ids.NewID(), input.BuyerEmail, total)
	span.SetAttributes(attribute.String("checkout.transaction_id", chk.TransactionID))

	session, gerr := s.gateway.CreateSession(ctx, domcheckout.SessionRequest{
		TransactionID: chk.TransactionID,
		BuyerEmail:    chk.BuyerEmail,
		TotalAmount:   total,
	})
	if gerr != nil {
		_ = chk.Fail("gateway_session_failed")
		outcome, statusText = "error", "GATEWAY_SESSION_FAILED"
		if errors.Is(gerr, domcheckout.ErrGateway) {
			return nil, gerr
		}
		return nil, fmt.Errorf("%w: %v", domcheckout.ErrGateway, gerr)
	}
	if terr := chk.SessionCreated(); terr != nil {
		outcome, statusText = "error", "STATE_TRANSITION_FAILED"
		return nil, terr
	}

	s.publish(ctx, domcheckout.NewSessionCreatedEvent(chk), logger)

	span.AddEvent("checkout.session_created",
		trace.WithAttributes(attribute.Int64("checkout.total_amount", total)),
	)
	return &InitiateResult{
		TransactionID: chk.TransactionID,
		RedirectURL:   session.RedirectURL,
		TotalAmount:   total,
		Status:        chk.Status,
	}, nil
}

type ConfirmResult struct {
	TransactionID string
	Status        domcheckout.Status
	Record        *billing.Record
	Replayed      bool
}

// Confirm is invoked by the gateway callback, which is delivered at least
// once. Replays short-circuit on the ledger record; first delivery runs the
// decrement / append / clear sequence.
func (s *Service) Confirm(ctx context.Context, transactionID, buyerEmail string) (_ *ConfirmResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("use_case", useCaseConfirm),
		zap.String("transaction_id", transactionID),
	)

	ctx, span := s.tracer.Start(ctx, spanPrefix+"ConfirmCheckout",
		trace.WithAttributes(
			attribute.String("use_case", useCaseConfirm),
			attribute.String("checkout.transaction_id", transactionID),
			attribute.String("checkout.buyer_email", buyerEmail),
		),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.metrics.observe(useCaseConfirm, outcome, lat)

		fields := []zap.Field{
			zap.String("outcome", outcome),
			zap.String("status", statusText),
			zap.Float64("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	if transactionID == "" {
		outcome, statusText = "error", "TRANSACTION_ID_REQUIRED"
		return nil, validation("transaction id is required")
	}
	if buyerEmail == "" {
		outcome, statusText = "error", "BUYER_REQUIRED"
		return nil, validation("buyer email is required")
	}

	// Step 1: idempotency anchor. A record means this transaction is
	// already reconciled; re-applying side effects is forbidden.
	existing, lerr := s.ledger.FindByTransaction(ctx, transactionID)
	switch {
	case lerr == nil:
		statusText = "IDEMPOTENT_REPLAY"
		span.AddEvent("checkout.idempotent_replay")
		return &ConfirmResult{
			TransactionID: transactionID,
			Status:        domcheckout.StatusReconciled,
			Record:        existing,
			Replayed:      true,
		}, nil
	case !errors.Is(lerr, billing.ErrNotFound):
		outcome, statusText = "error", "LEDGER_LOOKUP_FAILED"
		return nil, fmt.Errorf("checkout: ledger lookup: %w", lerr)
	}

	chk := domcheckout.FromCallback(transactionID, buyerEmail)

	// Step 2
	items, cerr := s.carts.ListByBuyer(ctx, buyerEmail)
	if cerr != nil {
		outcome, statusText = "error", "CART_LOAD_FAILED"
		return nil, fmt.Errorf("checkout: load cart: %w", cerr)
	}
	if len(items) == 0 {
		// callback for an already-cleared or forged transaction
		_ = chk.Fail("empty_cart")
		outcome, statusText = "error", "EMPTY_CART"
		logger.Warn("confirm_empty_cart", zap.String("buyer_email", buyerEmail))
		return nil, domcheckout.ErrEmptyCart
	}

	// Step 3: per-line conditional decrements, deduped by transaction id so
	// a retry after a later-step failure cannot decrement twice. A skipped
	// line does not abort the others; its outcome lands on the billing line.
	lines := make([]billing.Line, 0, len(items))
	eventLines := make([]domcheckout.CompletedLine, 0, len(items))
	for _, item := range items {
		outc, derr := s.catalog.DecrementStock(ctx, item.BookID, item.Count, transactionID)
		if derr != nil {
			outcome, statusText = "error", "STOCK_DECREMENT_FAILED"
			return nil, fmt.Errorf("checkout: decrement %s: %w", item.BookID, derr)
		}
		line := billing.Line{
			BookID:    item.BookID,
			Title:     item.Title,
			Author:    item.Author,
			Image:     item.Image,
			Price:     item.Price,
			Count:     item.Count,
			Fulfilled: outc.Applied(),
		}
		if !line.Fulfilled {
			line.Reason = string(outc)
			logger.Warn("line_not_fulfilled",
				zap.String("book_id", item.BookID),
				zap.String("reason", string(outc)),
			)
		}
		lines = append(lines, line)
		eventLines = append(eventLines, domcheckout.CompletedLine{
			BookID:    item.BookID,
			Count:     item.Count,
			Fulfilled: line.Fulfilled,
		})
	}

	// Step 4
	record, rerr := billing.NewRecord(s.ids.NewID(), buyerEmail, transactionID, lines)
	if rerr != nil {
		outcome, statusText = "error", "RECORD_BUILD_FAILED"
		return nil, fmt.Errorf("checkout: build record: %w", rerr)
	}
	if aerr := s.ledger.Append(ctx, record); aerr != nil {
		if errors.Is(aerr, billing.ErrDuplicateTransaction) {
			// lost the race against a concurrent callback; its record wins
			if winner, ferr := s.ledger.FindByTransaction(ctx, transactionID); ferr == nil {
				statusText = "IDEMPOTENT_REPLAY"
				span.AddEvent("checkout.idempotent_replay")
				return &ConfirmResult{
					TransactionID: transactionID,
					Status:        domcheckout.StatusReconciled,
					Record:        winner,
					Replayed:      true,
				}, nil
			}
		}
		outcome, statusText = "error", "LEDGER_APPEND_FAILED"
		return nil, fmt.Errorf("checkout: ledger append: %w", aerr)
	}

	// Step 5
	if clrErr := s.carts.Clear(ctx, buyerEmail); clrErr != nil {
		outcome, statusText = "error", "CART_CLEAR_FAILED"
		return nil, fmt.Errorf("checkout: clear cart: %w", clrErr)
	}

	// Step 6
	if terr := chk.Reconciled(); terr != nil {
		outcome, statusText = "error", "STATE_TRANSITION_FAILED"
		return nil, terr
	}

	s.publish(ctx, domcheckout.NewCompletedEvent(transactionID, buyerEmail, record.Total(), eventLines), logger)

	span.AddEvent("checkout.reconciled",
		trace.WithAttributes(attribute.Int("checkout.lines", len(lines))),
	)
	return &ConfirmResult{
		TransactionID: transactionID,
		Status:        chk.Status,
		Record:        record,
	}, nil
}

// publish is best-effort: the ledger is the durable artifact, events only
// feed in-process watchers.
func (s *Service) publish(ctx context.Context, e domoutbox.Event, logger *zap.Logger) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

func validation(msg string) error {
	return fmt.Errorf("%w: %s", domcheckout.ErrValidation, msg)
}
