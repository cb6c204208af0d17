package solana

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRPCURL = "https://api.devnet.solana.com"

// testUSDCMint is a devnet USDC mint address; may need updating if devnet
// resets.
const testUSDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func generateTestWallet() (*Wallet, ed25519.PrivateKey) {
	_, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}

	privateKeyBase58 := base58.Encode(privateKey)
	wallet, err := LoadWallet(privateKeyBase58, testRPCURL)
	if err != nil {
		panic(err)
	}

	return wallet, privateKey
}

func TestLoadWallet(t *testing.T) {
	tests := []struct {
		name        string
		privateKey  string
		rpcURL      string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "Empty private key",
			privateKey:  "",
			rpcURL:      testRPCURL,
			expectError: true,
			errorMsg:    "private key cannot be empty",
		},
		{
			name:        "Empty RPC URL",
			privateKey:  "5JCz9xMrCW8yGN3P9nKLqGvSYN5F8VG7vTxMYWKPLZNNqhFYYh3V3X1X8aQ5YfYJN6MQbMZ8Z1Z2Z3Z4Z5Z6Z7Z8",
			rpcURL:      "",
			expectError: true,
			errorMsg:    "RPC URL cannot be empty",
		},
		{
			name:        "Invalid base58 private key",
			privateKey:  "invalid-base58-!@#$%",
			rpcURL:      testRPCURL,
			expectError: true,
			errorMsg:    "failed to decode private key",
		},
		{
			name:        "Invalid private key length",
			privateKey:  base58.Encode([]byte("short")),
			rpcURL:      testRPCURL,
			expectError: true,
			errorMsg:    "invalid private key length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet, err := LoadWallet(tt.privateKey, tt.rpcURL)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, wallet)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, wallet)
			}
		})
	}
}

func TestLoadWallet_ValidKey(t *testing.T) {
	_, privateKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	privateKeyBase58 := base58.Encode(privateKey)

	wallet, err := LoadWallet(privateKeyBase58, testRPCURL)
	require.NoError(t, err)
	assert.NotNil(t, wallet)
	assert.NotNil(t, wallet.privateKey)
	assert.NotNil(t, wallet.publicKey)
	assert.NotNil(t, wallet.rpcClient)

	expectedPublicKey := ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey)
	assert.Equal(t, expectedPublicKey, []byte(wallet.publicKey[:]))
}

func TestGetAddress(t *testing.T) {
	wallet, privateKey := generateTestWallet()

	address := wallet.GetAddress()
	assert.NotEmpty(t, address)

	_, err := solana.PublicKeyFromBase58(address)
	assert.NoError(t, err)

	expectedPublicKey := ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey)
	expectedAddress := solana.PublicKeyFromBytes(expectedPublicKey).String()
	assert.Equal(t, expectedAddress, address)
}

func TestGetPublicKey(t *testing.T) {
	wallet, privateKey := generateTestWallet()

	publicKey := wallet.GetPublicKey()
	assert.NotNil(t, publicKey)

	expectedPublicKey := ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey)
	assert.Equal(t, expectedPublicKey, []byte(publicKey[:]))
}

// TestGetSOLBalance requires network connection.
func TestGetSOLBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	wallet, _ := generateTestWallet()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balance, err := wallet.GetSOLBalance(ctx)

	assert.NoError(t, err)
	assert.True(t, balance.GreaterThanOrEqual(decimal.Zero))
}

// TestGetTokenBalance requires network connection.
func TestGetTokenBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tests := []struct {
		name        string
		tokenMint   string
		expectError bool
	}{
		{
			name:        "Empty token mint",
			tokenMint:   "",
			expectError: true,
		},
		{
			name:        "Invalid token mint",
			tokenMint:   "invalid",
			expectError: true,
		},
		{
			name:        "Valid USDC mint (may have zero balance)",
			tokenMint:   testUSDCMint,
			expectError: false,
		},
	}

	wallet, _ := generateTestWallet()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := wallet.GetTokenBalance(ctx, tt.tokenMint)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, balance.GreaterThanOrEqual(decimal.Zero))
			}
		})
	}
}

func TestSignTransaction(t *testing.T) {
	wallet, _ := generateTestWallet()

	recipient := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	instruction := wallet.CreateTransferInstruction(recipient, 1000)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		solana.Hash{},
		solana.TransactionPayer(wallet.publicKey),
	)
	require.NoError(t, err)

	err = wallet.signTransaction(tx)
	assert.NoError(t, err)
	assert.NotEmpty(t, tx.Signatures)
}

func TestSignTransaction_NilTransaction(t *testing.T) {
	wallet, _ := generateTestWallet()

	err := wallet.signTransaction(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction cannot be nil")
}

func TestCreateTransferInstruction(t *testing.T) {
	wallet, _ := generateTestWallet()

	recipient := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	lamports := uint64(1000000) // 0.001 SOL

	instruction := wallet.CreateTransferInstruction(recipient, lamports)
	assert.NotNil(t, instruction)

	programID := instruction.ProgramID()
	assert.Equal(t, solana.SystemProgramID, programID)
}

func BenchmarkLoadWallet(b *testing.B) {
	_, privateKey, err := ed25519.GenerateKey(nil)
	require.NoError(b, err)
	privateKeyBase58 := base58.Encode(privateKey)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadWallet(privateKeyBase58, testRPCURL)
	}
}

func BenchmarkSignTransaction(b *testing.B) {
	wallet, _ := generateTestWallet()
	recipient := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	instruction := wallet.CreateTransferInstruction(recipient, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tx, _ := solana.NewTransaction(
			[]solana.Instruction{instruction},
			solana.Hash{},
			solana.TransactionPayer(wallet.publicKey),
		)
		_ = wallet.signTransaction(tx)
	}
}
