package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asif4762/bookbarn-final-server/internal/domain/checkout"
	"github.com/asif4762/bookbarn-final-server/internal/pkg/logging"
)

// Config carries the hosted-checkout credentials and redirect targets for the
// SSLCommerz sandbox/live API.
type Config struct {
	APIURL        string
	StoreID       string
	StorePassword string
	// SuccessURL receives tran_id and email query parameters appended per
	// session so the callback can resume the right checkout.
	SuccessURL string
	FailURL    string
	CancelURL  string
	Timeout    time.Duration
}

// Client creates hosted-payment sessions. One outbound call per attempt with
// a single retry on transport failure; every failure mode is folded into
// checkout.ErrGateway so callers decide whether to retry the whole initiate.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With(zap.String("component", "sslcommerz_gateway")),
	}
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func (c *Client) CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.GatewaySession, error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "sslcommerz_gateway"),
		zap.String("transaction_id", req.TransactionID),
	)

	form := c.sessionForm(req)

	var resp *sessionResponse
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err = c.post(ctx, form)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		logger.Warn("gateway_session_retry", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", checkout.ErrGateway, err)
	}

	if !strings.EqualFold(resp.Status, "SUCCESS") || resp.GatewayPageURL == "" {
		logger.Warn("gateway_session_rejected",
			zap.String("status", resp.Status),
			zap.String("reason", resp.FailedReason),
		)
		return nil, fmt.Errorf("%w: session rejected: %s", checkout.ErrGateway, resp.FailedReason)
	}

	logger.Info("gateway_session_created", zap.Int64("total_amount", req.TotalAmount))
	return &checkout.GatewaySession{
		TransactionID: req.TransactionID,
		BuyerEmail:    req.BuyerEmail,
		TotalAmount:   req.TotalAmount,
		RedirectURL:   resp.GatewayPageURL,
	}, nil
}

func (c *Client) post(ctx context.Context, form url.Values) (*sessionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}

	var resp sessionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &resp, nil
}

func (c *Client) sessionForm(req checkout.SessionRequest) url.Values {
	successURL := c.cfg.SuccessURL
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	successURL += sep + "tran_id=" + url.QueryEscape(req.TransactionID) + "&email=" + url.QueryEscape(req.BuyerEmail)

	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePassword)
	form.Set("total_amount", formatAmount(req.TotalAmount))
	form.Set("currency", "BDT")
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", successURL)
	form.Set("fail_url", c.cfg.FailURL)
	form.Set("cancel_url", c.cfg.CancelURL)
	form.Set("shipping_method", "Courier")
	form.Set("product_name", "Books")
	form.Set("product_category", "Education")
	form.Set("product_profile", "general")
	form.Set("cus_name", req.BuyerEmail)
	form.Set("cus_email", req.BuyerEmail)
	form.Set("cus_add1", "Dhaka")
	form.Set("cus_phone", "01700000000")
	form.Set("ship_name", req.BuyerEmail)
	form.Set("ship_add1", "Dhaka")
	form.Set("ship_city", "Dhaka")
	form.Set("ship_postcode", "1200")
	form.Set("ship_country", "Bangladesh")
	return form
}

// formatAmount renders minor currency units as a decimal string, e.g. 1050 -> "10.50".
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
