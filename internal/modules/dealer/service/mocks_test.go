package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
)

// Mock collaborators, grounded on internal/service/payment_test.go's
// MockPaymentRepository pattern (testify mock.Mock wrapping each
// interface method).

type MockWalletClient struct {
	mock.Mock
}

func (m *MockWalletClient) GetUsdWalletBalance(ctx context.Context) domain.Result[float64] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[float64])
}

func (m *MockWalletClient) GetBtcWalletBalance(ctx context.Context) domain.Result[float64] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[float64])
}

func (m *MockWalletClient) DepositAddress(ctx context.Context) domain.Result[string] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[string])
}

func (m *MockWalletClient) PayOnChain(ctx context.Context, address string, sats int64, memo string) domain.Result[struct{}] {
	args := m.Called(ctx, address, sats, memo)
	return args.Get(0).(domain.Result[struct{}])
}

type MockHedgingStrategy struct {
	mock.Mock
}

func (m *MockHedgingStrategy) Name() string {
	return m.Called().String(0)
}

func (m *MockHedgingStrategy) GetBtcSpotPriceInUsd(ctx context.Context) domain.Result[float64] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[float64])
}

func (m *MockHedgingStrategy) UpdatePosition(ctx context.Context, usdLiability, btcPriceInUsd float64) domain.Result[domain.PositionDelta] {
	args := m.Called(ctx, usdLiability, btcPriceInUsd)
	return args.Get(0).(domain.Result[domain.PositionDelta])
}

func (m *MockHedgingStrategy) ClosePosition(ctx context.Context) domain.Result[struct{}] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[struct{}])
}

func (m *MockHedgingStrategy) UpdateLeverage(
	ctx context.Context,
	usdLiability, btcPriceInUsd float64,
	depositAddress string,
	withdraw ports.WithdrawCallback,
	deposit ports.DepositCallback,
) domain.Result[domain.LeverageDelta] {
	args := m.Called(ctx, usdLiability, btcPriceInUsd, depositAddress, withdraw, deposit)
	return args.Get(0).(domain.Result[domain.LeverageDelta])
}

func (m *MockHedgingStrategy) IsDepositCompleted(ctx context.Context, address string, sats int64) domain.Result[bool] {
	args := m.Called(ctx, address, sats)
	return args.Get(0).(domain.Result[bool])
}

func (m *MockHedgingStrategy) IsWithdrawalCompleted(ctx context.Context, address string, sats int64) domain.Result[bool] {
	args := m.Called(ctx, address, sats)
	return args.Get(0).(domain.Result[bool])
}

type MockTransferLedger struct {
	mock.Mock
}

func (m *MockTransferLedger) Insert(ctx context.Context, t domain.Transfer) domain.Result[struct{}] {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Result[struct{}])
}

func (m *MockTransferLedger) GetPendingDeposit(ctx context.Context) domain.Result[map[string][]domain.Transfer] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[map[string][]domain.Transfer])
}

func (m *MockTransferLedger) GetPendingWithdraw(ctx context.Context) domain.Result[map[string][]domain.Transfer] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[map[string][]domain.Transfer])
}

func (m *MockTransferLedger) Completed(ctx context.Context, address string) domain.Result[struct{}] {
	args := m.Called(ctx, address)
	return args.Get(0).(domain.Result[struct{}])
}

func (m *MockTransferLedger) GetPendingCount(ctx context.Context) domain.Result[int] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Result[int])
}
