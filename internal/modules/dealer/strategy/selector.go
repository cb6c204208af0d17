package strategy

import (
	"fmt"

	dealerconfig "github.com/hxuan190/stable_payment_gateway/internal/config"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
)

// defaultStartingSpotPriceUsd seeds PaperStrategy when no live price feed
// is wired in; cmd/dealer/main.go can move it with SetSpotPriceUsd once a
// feed is available.
const defaultStartingSpotPriceUsd = 60_000.0

const (
	defaultMinMarginRatio = 1.0
	defaultMaxMarginRatio = 1.2
)

// New constructs the configured HedgingStrategy implementation. An unknown
// or empty name is a ConfigurationError raised here, never from a running
// tick.
func New(name string, cfg *dealerconfig.Config) (ports.HedgingStrategy, error) {
	switch name {
	case "paper":
		return NewPaperStrategy(defaultStartingSpotPriceUsd, defaultMinMarginRatio, defaultMaxMarginRatio), nil
	case "":
		return nil, domain.NewConfigurationError("DEALER_STRATEGY_IMPL is required")
	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown strategy implementation %q", name))
	}
}
