// Package solana wraps a signing Solana keypair for the dealer's
// WalletClient adapter (internal/modules/dealer/wallet/solana_client.go).
// Trimmed to the surface that adapter actually reaches: loading a key,
// reading SOL/SPL balances, and building + signing + sending a transfer.
package solana

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// Wallet is a Solana keypair bound to an RPC endpoint.
type Wallet struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
	rpcClient  *rpc.Client
}

// LoadWallet creates a wallet instance from a base58-encoded private key,
// in the format exported by the Solana CLI or Phantom wallet.
func LoadWallet(privateKeyBase58 string, rpcURL string) (*Wallet, error) {
	if privateKeyBase58 == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL cannot be empty")
	}

	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: expected %d bytes, got %d bytes",
			ed25519.PrivateKeySize, len(privateKeyBytes))
	}

	privateKey := solana.PrivateKey(privateKeyBytes)
	publicKey := privateKey.PublicKey()

	return &Wallet{
		privateKey: privateKey,
		publicKey:  publicKey,
		rpcClient:  rpc.New(rpcURL),
	}, nil
}

// GetAddress returns the wallet's public address as a base58 string.
func (w *Wallet) GetAddress() string {
	return w.publicKey.String()
}

// GetPublicKey returns the wallet's public key.
func (w *Wallet) GetPublicKey() solana.PublicKey {
	return w.publicKey
}

// GetSOLBalance returns the wallet's SOL balance in SOL, not lamports.
func (w *Wallet) GetSOLBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := w.rpcClient.GetBalance(ctx, w.publicKey, rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get SOL balance: %w", err)
	}

	lamportsDecimal := decimal.NewFromUint64(balance.Value)
	solBalance := lamportsDecimal.Div(decimal.NewFromInt(1_000_000_000))

	return solBalance, nil
}

// GetTokenBalance returns the balance of a specific SPL token; tokenMint is
// the token's mint address (e.g. USDC).
func (w *Wallet) GetTokenBalance(ctx context.Context, tokenMint string) (decimal.Decimal, error) {
	if tokenMint == "" {
		return decimal.Zero, fmt.Errorf("token mint cannot be empty")
	}

	mintPubkey, err := solana.PublicKeyFromBase58(tokenMint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token mint address: %w", err)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(w.publicKey, mintPubkey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find associated token account: %w", err)
	}

	accountInfo, err := w.rpcClient.GetAccountInfo(ctx, ata)
	if err != nil {
		return decimal.Zero, nil
	}
	if accountInfo == nil || accountInfo.Value == nil {
		return decimal.Zero, nil
	}

	var tokenAccount token.Account
	if err := tokenAccount.UnmarshalWithDecoder(solana.NewBinDecoder(accountInfo.Value.Data.GetBinary())); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse token account: %w", err)
	}

	mintInfo, err := w.getTokenMintInfo(ctx, tokenMint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get mint info: %w", err)
	}

	rawAmount := decimal.NewFromBigInt(tokenAccount.Amount.BigInt(), 0)
	divisor := decimal.NewFromInt(10).Pow(decimal.NewFromInt(int64(mintInfo.Decimals)))
	return rawAmount.Div(divisor), nil
}

// getTokenMintInfo retrieves a token mint's on-chain metadata, used by
// GetTokenBalance to resolve the token's decimal precision.
func (w *Wallet) getTokenMintInfo(ctx context.Context, tokenMint string) (*token.Mint, error) {
	mintPubkey, err := solana.PublicKeyFromBase58(tokenMint)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}

	accountInfo, err := w.rpcClient.GetAccountInfo(ctx, mintPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to get mint account info: %w", err)
	}
	if accountInfo == nil || accountInfo.Value == nil {
		return nil, fmt.Errorf("mint account not found")
	}

	var mintInfo token.Mint
	if err := mintInfo.UnmarshalWithDecoder(solana.NewBinDecoder(accountInfo.Value.Data.GetBinary())); err != nil {
		return nil, fmt.Errorf("failed to parse mint info: %w", err)
	}

	return &mintInfo, nil
}

// signTransaction signs a transaction with the wallet's private key.
func (w *Wallet) signTransaction(tx *solana.Transaction) error {
	if tx == nil {
		return fmt.Errorf("transaction cannot be nil")
	}

	signers := []solana.PrivateKey{w.privateKey}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, signer := range signers {
			if signer.PublicKey() == key {
				return &signer
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	return nil
}

// SignAndSendTransaction signs and sends a transaction to the network.
func (w *Wallet) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	recent, err := w.rpcClient.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = recent.Value.Blockhash

	if err := w.signTransaction(tx); err != nil {
		return solana.Signature{}, err
	}

	sig, err := w.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig, nil
}

// CreateTransferInstruction creates a SOL transfer instruction.
func (w *Wallet) CreateTransferInstruction(to solana.PublicKey, lamports uint64) solana.Instruction {
	return solana.NewTransferInstruction(lamports, w.publicKey, to).Build()
}
