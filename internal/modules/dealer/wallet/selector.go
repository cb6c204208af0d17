package wallet

import (
	"fmt"

	dealerconfig "github.com/hxuan190/stable_payment_gateway/internal/config"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
)

// New constructs the configured WalletClient implementation. An unknown or
// empty name is a ConfigurationError raised here, at process construction —
// never surfaced from a running tick, per the error taxonomy's
// ConfigurationError category.
func New(name string, cfg *dealerconfig.Config) (ports.WalletClient, error) {
	switch name {
	case "solana":
		return NewSolanaClient(cfg.Solana)
	case "bsc":
		return NewBSCClient(cfg.BSC)
	case "":
		return nil, domain.NewConfigurationError("DEALER_WALLET_IMPL is required")
	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown wallet implementation %q", name))
	}
}
