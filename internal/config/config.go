package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded once at startup from the environment.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"bookbarn"`
	Env         string `envconfig:"ENV" default:"dev"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8159"`

	// CartBackend selects the cart store: "memory" or "redis".
	CartBackend string `envconfig:"CART_BACKEND" default:"memory"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	GatewayAPIURL     string        `envconfig:"SSLCZ_API_URL" default:"https://sandbox.sslcommerz.com/gwprocess/v4/api.php"`
	GatewayStoreID    string        `envconfig:"SSLCZ_STORE_ID"`
	GatewayStorePass  string        `envconfig:"SSLCZ_STORE_PASS"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	PaymentSuccessURL string        `envconfig:"PAYMENT_SUCCESS_URL" default:"http://localhost:8159/checkout/callback"`
	PaymentFailURL    string        `envconfig:"PAYMENT_FAIL_URL" default:"http://localhost:3000/payment-fail"`
	PaymentCancelURL  string        `envconfig:"PAYMENT_CANCEL_URL" default:"http://localhost:3000/payment-cancel"`
	// StatusPageURL is where the buyer lands after a confirmed checkout.
	StatusPageURL string `envconfig:"STATUS_PAGE_URL" default:"http://localhost:5173/dashboard/delivery-status"`

	LowStockThreshold int `envconfig:"LOW_STOCK_THRESHOLD" default:"3"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.CartBackend != "memory" && cfg.CartBackend != "redis" {
		return nil, fmt.Errorf("config: unknown cart backend %q", cfg.CartBackend)
	}
	return &cfg, nil
}
