package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
)

// SmartGatewayConfig contains the merchant credentials for the hosted payment page API
type SmartGatewayConfig struct {
	// BaseURL is the API root, e.g. https://smartgatewayuat.hdfcbank.com
	BaseURL string
	// APIKey authenticates every call as the basic-auth user name
	APIKey string
	// MerchantID is sent in the x-merchantid header
	MerchantID string
	// ClientID selects the payment page configuration
	ClientID string
	Timeout  time.Duration
}

// Errors for configuration validation
var (
	ErrSmartGatewayMissingBaseURL    = errors.New("smartgateway: missing base URL")
	ErrSmartGatewayMissingAPIKey     = errors.New("smartgateway: missing API key")
	ErrSmartGatewayMissingMerchantID = errors.New("smartgateway: missing merchant ID")
)

// SmartGatewayConfigFromApp maps the application gateway section
func SmartGatewayConfigFromApp(cfg config.GatewayConfig) *SmartGatewayConfig {
	return &SmartGatewayConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		MerchantID: cfg.MerchantID,
		ClientID:   cfg.ClientID,
		Timeout:    cfg.Timeout,
	}
}

// Validate validates the configuration
func (c *SmartGatewayConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrSmartGatewayMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrSmartGatewayMissingAPIKey
	}
	if c.MerchantID == "" {
		return ErrSmartGatewayMissingMerchantID
	}
	return nil
}
